package audit

import "context"

// ChannelSink queues events for a background Worker so slow side channels
// (like a Kafka produce) never sit on the swap path. Append drops the event
// when the buffer is full rather than block.
type ChannelSink struct {
	ch chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

func (s *ChannelSink) Append(_ context.Context, event Event) error {
	select {
	case s.ch <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// ListBySwap is unsupported; the sink is write-only.
func (s *ChannelSink) ListBySwap(context.Context, string) ([]Event, error) {
	return nil, ErrWriteOnly
}

// Events exposes the queue for a Worker to drain.
func (s *ChannelSink) Events() <-chan Event { return s.ch }
