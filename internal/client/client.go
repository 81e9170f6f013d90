package client

import (
	"context"
	"fmt"
	"net"
	"sync"

	"stasis/internal/protocol"
)

// Client sends commands to a stasis server over one TCP connection.
// Calls to Do are serialized.
type Client struct {
	mu    sync.Mutex
	conn  net.Conn
	codec protocol.Codec
}

// Dial connects to addr, retrying according to policy.
// framing and maxFrame must match the server's settings.
func Dial(
	ctx context.Context,
	addr string,
	framing string,
	maxFrame int,
	policy RetryPolicy,
) (*Client, error) {
	var (
		dialer net.Dialer
		conn   net.Conn
	)

	err := Retry(ctx, policy, func() error {
		c, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	codec, err := protocol.NewCodec(framing, conn, maxFrame)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{conn: conn, codec: codec}, nil
}

// Do sends one command and returns the server's reply line.
// Replies starting with "error: " are returned as text, not as errors;
// err is reserved for transport failures.
func (c *Client) Do(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.codec.WriteMessage([]byte(command)); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}

	reply, err := c.codec.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("receive: %w", err)
	}
	return string(reply), nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
