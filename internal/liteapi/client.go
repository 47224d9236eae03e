// Package liteapi fetches hotel details from the LiteAPI data service.
package liteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Hotel is the subset of the provider's hotel record that gets stored.
type Hotel struct {
	Name        string    `json:"name"`
	Description *string   `json:"hotelDescription"`
	Country     *string   `json:"country"`
	City        *string   `json:"city"`
	Address     *string   `json:"address"`
	Zip         *string   `json:"zip"`
	StarRating  *float64  `json:"starRating"`
	Location    *Location `json:"location"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retries uint64
	log     *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, retries uint64, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		retries: retries,
		log:     logger,
	}
}

// FetchHotel returns the hotel record, or nil when the provider has no data
// for hotelID.
func (c *Client) FetchHotel(ctx context.Context, hotelID string) (*Hotel, error) {
	q := url.Values{}
	q.Set("hotelId", hotelID)
	q.Set("timeout", "4")
	endpoint := c.baseURL + "/hotel?" + q.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")

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
			return fmt.Errorf("liteapi status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("liteapi status %d", resp.StatusCode))
		}
		body = b
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.log.Warn("liteapi request failed, retrying",
			zap.String("hotel_id", hotelID),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, fmt.Errorf("fetch hotel %s: %w", hotelID, err)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode hotel %s: %w", hotelID, err)
	}
	if isEmpty(envelope.Data) {
		return nil, nil
	}

	var h Hotel
	if err := json.Unmarshal(envelope.Data, &h); err != nil {
		return nil, fmt.Errorf("decode hotel %s: %w", hotelID, err)
	}
	return &h, nil
}

func isEmpty(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
