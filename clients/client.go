package clients

import (
	"context"

	"github.com/circularprotocol/cep/types"
)

// Client is the set of NAG calls an account session depends on. baseURL is
// passed per call because an account may switch networks at any time.
type Client interface {
	GetWalletNonce(ctx context.Context, baseURL string, req *types.WalletNonceRequest) (*types.WalletNonceResponse, error)
	GetTransactionByID(ctx context.Context, baseURL, node string, req *types.TransactionByIDRequest) (*types.TransactionLookup, error)
	AddTransaction(ctx context.Context, baseURL, node string, tx *types.Transaction) (*types.GatewayResponse, error)
	ResolveNetwork(ctx context.Context, network string) (string, error)
}
