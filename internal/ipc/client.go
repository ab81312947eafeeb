package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
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
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call(serviceName+".Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Decay triggers the weekly punishment decay via the daemon.
func (c *Client) Decay() (*DecayResponse, error) {
	var resp DecayResponse
	if err := c.client.Call(serviceName+".Decay", DecayRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PunishAdd adds penalty points through the daemon so role enforcement runs.
func (c *Client) PunishAdd(req PunishAddRequest) (*PunishAddResponse, error) {
	var resp PunishAddResponse
	if err := c.client.Call(serviceName+".PunishAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PunishRemove subtracts penalty points through the daemon.
func (c *Client) PunishRemove(req PunishRemoveRequest) (*PunishRemoveResponse, error) {
	var resp PunishRemoveResponse
	if err := c.client.Call(serviceName+".PunishRemove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call(serviceName+".TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
