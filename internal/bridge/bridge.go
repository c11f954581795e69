// Package bridge submits specs to a remote pinpatch host over socket.io and
// waits for the matching apply report.
package bridge

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names used on the wire.
const (
	EventApply       = "apply"
	EventApplyResult = "apply_result"
)

// DefaultTimeout bounds both the connection and each submission when
// Options.Timeout is not set.
const DefaultTimeout = 15 * time.Second

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("bridge client closed")
	// ErrBadResponse is wrapped when an apply_result payload cannot be decoded.
	ErrBadResponse = errors.New("malformed apply_result payload")
)

// Options configures Dial.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Request is the payload of an apply event.
type Request struct {
	RequestID string          `json:"request_id"`
	Spec      json.RawMessage `json:"spec"`
}

// Response is the payload of an apply_result event.
type Response struct {
	RequestID string              `json:"request_id"`
	Result    *report.ApplyResult `json:"result"`
	Error     string              `json:"error,omitempty"`
}

// Client is a connected socket.io client. Submissions may run concurrently;
// responses are routed by request id.
type Client struct {
	io      *socket.Socket
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
}

// Dial connects to the host and waits for the connect event.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	ctx = ctxlog.With(ctx, "component", "bridge", "url", opts.URL)
	logger := ctxlog.FromContext(ctx)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q needs a scheme and host", opts.URL)
	}

	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(namespace(opts.Namespace), sockOpts)

	c := &Client{
		io:      io,
		timeout: opts.timeout(),
		pending: make(map[string]chan Response),
	}

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to pinpatch host", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := connectErr(errs)
		logger.Debug("Connection error", "error", err)
		connectChan <- err
	})
	io.On(types.EventName(EventApplyResult), func(data ...any) {
		c.deliver(ctx, data)
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(c.timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", c.timeout)
	}
}

// Submit emits spec under a fresh request id and waits for its report.
func (c *Client) Submit(ctx context.Context, specJSON []byte) (*report.ApplyResult, error) {
	logger := ctxlog.FromContext(ctx).With("component", "bridge")

	req, payload, err := NewRequest(specJSON)
	if err != nil {
		return nil, err
	}

	ch, err := c.register(req.RequestID)
	if err != nil {
		return nil, err
	}
	defer c.unregister(req.RequestID)

	logger.Debug("Emitting spec", "event", EventApply, "request_id", req.RequestID, "bytes", len(req.Spec))
	c.io.Emit(EventApply, payload)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("remote apply %s failed: %s", req.RequestID, resp.Error)
		}
		if resp.Result == nil {
			return nil, fmt.Errorf("%w: request %s has no result", ErrBadResponse, req.RequestID)
		}
		logger.Info("Received apply result", "request_id", req.RequestID, "success", resp.Result.Success)
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("timed out after %v waiting for %s %s", c.timeout, EventApplyResult, req.RequestID)
	}
}

// Close disconnects and fails any pending submissions.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.io.Disconnect()
	return nil
}

func (c *Client) register(id string) (chan Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	ch := make(chan Response, 1)
	c.pending[id] = ch
	return ch, nil
}

func (c *Client) unregister(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// deliver routes an apply_result to its waiting submission. Results for
// unknown ids are dropped.
func (c *Client) deliver(ctx context.Context, data []any) {
	logger := ctxlog.FromContext(ctx)

	resp, err := DecodeResponse(data)
	if err != nil {
		logger.Warn("Dropping apply_result.", "error", err)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	if ok {
		delete(c.pending, resp.RequestID)
	}
	c.mu.Unlock()

	if !ok {
		logger.Debug("No submission waiting for apply_result", "request_id", resp.RequestID)
		return
	}
	ch <- resp
}

// NewRequest validates specJSON and builds the apply payload. The payload is
// a generic map so the socket.io encoder emits plain JSON.
func NewRequest(specJSON []byte) (Request, map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(specJSON, &decoded); err != nil {
		return Request{}, nil, fmt.Errorf("spec is not valid JSON: %w", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		return Request{}, nil, fmt.Errorf("spec must be a JSON object, got %T", decoded)
	}
	req := Request{RequestID: uuid.NewString(), Spec: json.RawMessage(specJSON)}
	return req, map[string]any{"request_id": req.RequestID, "spec": decoded}, nil
}

// DecodeResponse converts the first argument of an apply_result event. The
// socket.io decoder hands over generic JSON values or raw bytes.
func DecodeResponse(data []any) (Response, error) {
	if len(data) == 0 {
		return Response{}, fmt.Errorf("%w: no arguments", ErrBadResponse)
	}

	var raw []byte
	switch v := data[0].(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		raw = b
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if resp.RequestID == "" {
		return Response{}, fmt.Errorf("%w: missing request_id", ErrBadResponse)
	}
	return resp, nil
}

func namespace(ns string) string {
	if ns == "" {
		return "/"
	}
	return ns
}

// connectErr extracts the error from a connect_error event.
func connectErr(args []any) error {
	if len(args) == 0 || args[0] == nil {
		return errors.New("unknown connection error")
	}
	if err, ok := args[0].(error); ok {
		return err
	}
	return fmt.Errorf("%v", args[0])
}
