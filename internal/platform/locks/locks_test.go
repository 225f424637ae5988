package locks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			unlock := km.Lock("swap-1")
			defer unlock()
			counter++
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 100, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlock := km.Lock("swap-1")
	defer unlock()

	// A different key must not block behind swap-1's holder.
	done := make(chan struct{})
	go func() {
		other := km.Lock("swap-2")
		other()
		close(done)
	}()
	<-done
}

func TestKeyedMutex_Reentry(t *testing.T) {
	km := NewKeyedMutex()

	unlock := km.Lock("swap-1")
	unlock()

	// Releasing makes the same key acquirable again.
	again := km.Lock("swap-1")
	again()
}
