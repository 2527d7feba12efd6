package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the runtime.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Toggle flips mode and returns the settled flags.
func (c *Client) Toggle(mode string) (*ToggleResponse, error) {
	var resp ToggleResponse
	if err := c.client.Call(serviceName+".Toggle", ToggleRequest{Mode: mode}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Fetch asks the backend for the processed file at path.
func (c *Client) Fetch(path string) (*FetchResponse, error) {
	var resp FetchResponse
	if err := c.client.Call(serviceName+".Fetch", FetchRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the runtime status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call(serviceName+".Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns up to limit journaled transitions, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call(serviceName+".History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Check runs preflight checks inside the runtime.
func (c *Client) Check() (*CheckResponse, error) {
	var resp CheckResponse
	if err := c.client.Call(serviceName+".Check", CheckRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the runtime.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call(serviceName+".TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
