// Copyright 2026 The MagicFolder Authors
// SPDX-License-Identifier: Apache-2.0

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// DefaultTimeout is the design value for both the send and the
// receive timeout.
const DefaultTimeout = 60 * time.Second

// request is the wire request: the absolute backing-store paths of
// every file in the batch.
type request struct {
	Files []string `json:"files"`
}

// Client dials a local Unix domain socket and speaks the
// classification service's request/reply protocol.
type Client struct {
	socketPath string
	timeout    time.Duration
	logger     *slog.Logger
	dial       func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Options configures a Client.
type Options struct {
	// SocketPath is the Unix domain socket the classification
	// service listens on.
	SocketPath string

	// Timeout bounds both the send and the receive side of a single
	// request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New constructs a Client. Dialing is deferred to the first Classify
// call; New never fails.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		socketPath: opts.SocketPath,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		dial:       (&net.Dialer{}).DialContext,
	}
}

// Probe attempts a short-lived connection to the socket and logs the
// outcome, matching the startup diagnostic of the system this client
// replaces. Non-fatal: the mount proceeds either way.
func (c *Client) Probe(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn, err := c.dial(dialCtx, "unix", c.socketPath)
	if err != nil {
		c.logger.Warn("classification service unreachable at startup", "socket", c.socketPath, "error", err)
		return
	}
	conn.Close()
	c.logger.Info("connected to classification service", "socket", c.socketPath)
}

// Classify sends paths as a single batch and returns the verdicts
// received, keyed by absolute path. On any send, receive, or parse
// failure — including a dial or I/O timeout — it returns an empty
// map and logs the failure once; the caller treats that as the
// batch being abandoned.
func (c *Client) Classify(ctx context.Context, paths []string) map[string]string {
	verdicts, err := c.classify(ctx, paths)
	if err != nil {
		c.logger.Warn("classification request failed", "error", err, "batch_size", len(paths))
		return map[string]string{}
	}
	return verdicts
}

func (c *Client) classify(ctx context.Context, paths []string) (map[string]string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(dialCtx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set write deadline: %w", err)
	}
	payload, err := json.Marshal(request{Files: paths})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	var document interface{}
	if err := json.NewDecoder(conn).Decode(&document); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	wanted := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		wanted[p] = struct{}{}
	}
	return extractVerdicts(document, wanted), nil
}

// extractVerdicts walks an arbitrary decoded JSON document looking
// for objects that carry a "category" string field alongside a
// sibling string field whose value is one of the requested absolute
// paths. This is the structured replacement for substring search:
// every candidate is matched by exact field value, never by finding
// a path as a substring of the raw response text.
func extractVerdicts(node interface{}, wanted map[string]struct{}) map[string]string {
	verdicts := make(map[string]string)
	walkVerdicts(node, wanted, verdicts)
	return verdicts
}

func walkVerdicts(node interface{}, wanted map[string]struct{}, out map[string]string) {
	switch v := node.(type) {
	case map[string]interface{}:
		category, hasCategory := v["category"].(string)
		if hasCategory {
			for _, field := range v {
				path, ok := field.(string)
				if !ok {
					continue
				}
				if _, isWanted := wanted[path]; isWanted {
					if _, already := out[path]; !already {
						out[path] = category
					}
				}
			}
		}
		for _, child := range v {
			walkVerdicts(child, wanted, out)
		}
	case []interface{}:
		for _, child := range v {
			walkVerdicts(child, wanted, out)
		}
	}
}
