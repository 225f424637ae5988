// Package walletmock provides a testify mock of the wallet client port for
// orchestrator tests.
package walletmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fedbridge/internal/wallet"
)

type Client struct {
	mock.Mock
}

var _ wallet.Client = (*Client)(nil)

func (m *Client) ReserveFunds(ctx context.Context, accountToken string, amount int64) (wallet.LockHandle, error) {
	args := m.Called(ctx, accountToken, amount)
	return args.Get(0).(wallet.LockHandle), args.Error(1)
}

func (m *Client) ReleaseFunds(ctx context.Context, lock wallet.LockHandle) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *Client) PrepareReceipt(ctx context.Context, accountToken string, amount int64) (wallet.StageHandle, error) {
	args := m.Called(ctx, accountToken, amount)
	return args.Get(0).(wallet.StageHandle), args.Error(1)
}

func (m *Client) Commit(ctx context.Context, lock wallet.LockHandle, stage wallet.StageHandle) error {
	args := m.Called(ctx, lock, stage)
	return args.Error(0)
}
