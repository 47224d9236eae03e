// Package taskapi reads task conversation messages from the task service.
package taskapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrNoToken is returned when the login call succeeds without a token.
var ErrNoToken = errors.New("task api login returned no token")

type Config struct {
	LoginURL           string
	MessagesURL        string
	Username           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	Retries            uint64
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // provider serves a self-signed cert
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		log:  logger,
	}
}

// FetchMessages logs in as the configured user and returns the raw messages
// of taskID in provider order.
func (c *Client) FetchMessages(ctx context.Context, taskID int64) ([]json.RawMessage, error) {
	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("taskId", strconv.FormatInt(taskID, 10))
	req := func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.MessagesURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Authorization", "Bearer "+token)
		return r, nil
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages for task %d: %w", taskID, err)
	}

	var messages []json.RawMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("decode messages for task %d: %w", taskID, err)
	}
	return messages, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": c.cfg.Username})
	if err != nil {
		return "", err
	}
	req := func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LoginURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("task api login: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if resp.Token == "" {
		return "", ErrNoToken
	}
	return resp.Token, nil
}

// do retries network errors and 5xx responses; 4xx responses fail at once.
func (c *Client) do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode))
		}
		body = b
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn("task api request failed, retrying", zap.Duration("wait", wait), zap.Error(err))
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.Retries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}
