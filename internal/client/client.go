package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/grid-dock/internal/models"
)

const (
	DefaultSocketPath = "/tmp/griddock.sock"
	DefaultTimeout    = 30 * time.Second
)

// Client talks to a griddock daemon, or to GridServer, over a unix socket
type Client struct {
	conn *Connection
}

// NewClient creates a new client
func NewClient(socketPath string, timeout time.Duration) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		conn: NewConnection(socketPath, timeout),
	}
}

// Connect establishes connection to the server
func (c *Client) Connect() error {
	return c.conn.Connect()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// request is a helper to send a request and get the response
func (c *Client) request(ctx context.Context, method string, params map[string]interface{}) (*models.Response, error) {
	if !c.conn.IsConnected() {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	req := models.NewRequest(uuid.New().String(), method, params)
	return c.conn.SendRequest(ctx, req)
}

// CallMethod sends a generic RPC request with the given method and parameters
func (c *Client) CallMethod(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	resp, err := c.request(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, &ServerError{Code: resp.Error.Code, Message: resp.GetError()}
	}

	return resp.Result, nil
}

// call sends a request and decodes the result into out (which may be nil)
func (c *Client) call(ctx context.Context, method string, params map[string]interface{}, out interface{}) error {
	result, err := c.CallMethod(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return models.FromMap(result, out)
}

// ServerError is an error returned by the server in a response
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// Ping sends a ping request to test connectivity
func (c *Client) Ping(ctx context.Context) (map[string]interface{}, error) {
	return c.CallMethod(ctx, models.MethodPing, nil)
}

// Dump retrieves the complete GridServer window state
func (c *Client) Dump(ctx context.Context) (map[string]interface{}, error) {
	return c.CallMethod(ctx, "dump", map[string]interface{}{})
}

// UpdateWindow updates a GridServer window's properties
func (c *Client) UpdateWindow(ctx context.Context, windowID int, updates map[string]interface{}) (map[string]interface{}, error) {
	params := map[string]interface{}{
		"windowId": windowID,
	}

	// Merge updates into params
	for k, v := range updates {
		params[k] = v
	}

	return c.CallMethod(ctx, "updateWindow", params)
}

// Track starts tracking a window under the given identity
func (c *Client) Track(ctx context.Context, windowID uint32, appUUID, name string) error {
	return c.call(ctx, models.MethodTrack, map[string]interface{}{
		"windowId": windowID,
		"uuid":     appUUID,
		"name":     name,
	}, nil)
}

// Untrack stops tracking a window
func (c *Client) Untrack(ctx context.Context, windowID uint32) (*models.MembershipResult, error) {
	var out models.MembershipResult
	err := c.call(ctx, models.MethodUntrack, map[string]interface{}{"windowId": windowID}, &out)
	return &out, err
}

// Join adds window to target's group
func (c *Client) Join(ctx context.Context, windowID, targetID uint32) (*models.MembershipResult, error) {
	var out models.MembershipResult
	err := c.call(ctx, models.MethodJoin, map[string]interface{}{"windowId": windowID, "targetId": targetID}, &out)
	return &out, err
}

// Merge merges window's group into target's group
func (c *Client) Merge(ctx context.Context, windowID, targetID uint32) (*models.MembershipResult, error) {
	var out models.MembershipResult
	err := c.call(ctx, models.MethodMerge, map[string]interface{}{"windowId": windowID, "targetId": targetID}, &out)
	return &out, err
}

// Leave removes window from its group
func (c *Client) Leave(ctx context.Context, windowID uint32) (*models.MembershipResult, error) {
	var out models.MembershipResult
	err := c.call(ctx, models.MethodLeave, map[string]interface{}{"windowId": windowID}, &out)
	return &out, err
}

// Groups lists groups and ungrouped tracked windows
func (c *Client) Groups(ctx context.Context) (*models.GroupsResult, error) {
	var out models.GroupsResult
	if err := c.call(ctx, models.MethodList, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBounds moves/resizes a grouped window by a delta
func (c *Client) UpdateBounds(ctx context.Context, windowID uint32, delta map[string]interface{}) (*models.MoveResult, error) {
	params := map[string]interface{}{"windowId": windowID, "delta": delta}
	var out models.MoveResult
	if err := c.call(ctx, models.MethodUpdateBounds, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetBounds sets a grouped window's visible bounds; omitted fields keep their value
func (c *Client) SetBounds(ctx context.Context, windowID uint32, bounds map[string]interface{}) (*models.MoveResult, error) {
	params := map[string]interface{}{"windowId": windowID, "bounds": bounds}
	var out models.MoveResult
	if err := c.call(ctx, models.MethodSetBounds, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RaiseEvent republishes a forwarded event on the remote daemon's bus
func (c *Client) RaiseEvent(ctx context.Context, params map[string]interface{}) error {
	return c.call(ctx, models.MethodRaiseEvent, params, nil)
}

// Subscribe streams events until ctx is cancelled or the connection drops.
// handle is called for each event on the calling goroutine.
func (c *Client) Subscribe(ctx context.Context, filter map[string]interface{}, handle func(*models.Event)) error {
	if _, err := c.CallMethod(ctx, models.MethodSubscribe, filter); err != nil {
		return err
	}

	for {
		env, err := c.conn.ReadEnvelope(ctx)
		if err != nil {
			return err
		}
		if env.Type == "event" && env.Event != nil {
			handle(env.Event)
		}
	}
}
