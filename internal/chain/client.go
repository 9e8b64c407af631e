package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps a JSON-RPC connection to a Substrate node.
type Client struct {
	rpcClient *rpc.Client
}

// NewClient dials the node at rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

type header struct {
	Number hexutil.Uint64 `json:"number"`
}

// CurrentHeight returns the block number of the chain head.
func (c *Client) CurrentHeight(ctx context.Context) (uint64, error) {
	var h header
	if err := c.rpcClient.CallContext(ctx, &h, "chain_getHeader"); err != nil {
		return 0, err
	}
	return uint64(h.Number), nil
}
