// Package apiclient is the HTTP adapter for the Listo REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout bounds each request; zero leaves it to the caller's context.
	Timeout time.Duration
	// Location interprets the server's zone-less timestamps.
	Location *time.Location
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	loc     *time.Location
	session *Session

	mu              sync.Mutex
	online          bool
	onNetworkChange func(online bool)
}

func New(session *Session, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	if session == nil {
		session = NewSession(nil)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		timeout: opts.Timeout,
		loc:     loc,
		session: session,
		online:  true,
	}
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) Location() *time.Location { return c.loc }

// Online is false after a request failed in transport and until the next
// response arrives.
func (c *Client) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// OnNetworkChange registers a hook called on every online/offline transition.
func (c *Client) OnNetworkChange(fn func(online bool)) {
	c.mu.Lock()
	c.onNetworkChange = fn
	c.mu.Unlock()
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	fn := c.onNetworkChange
	c.mu.Unlock()
	if changed {
		log.Info().Bool("online", online).Msg("network status changed")
		if fn != nil {
			fn(online)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.setOnline(false)
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.setOnline(true)

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if errors.Is(serr, ErrUnauthorized) {
			c.session.handleUnauthorized(ctx)
		}
		log.Warn().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Msg(serr.Message)
		return serr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

// readErrorMessage pulls a human message out of a Spring-style error body,
// falling back to the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
