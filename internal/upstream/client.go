// Package upstream relays requests to the messaging bridge and the
// intelligence service. It only relays and maps errors; shaping the
// responses is left to the normalize and connection packages.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
)

const (
	serviceWhatsApp = "whatsapp"
	serviceIntel    = "intel"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Config holds upstream endpoints and credentials.
type Config struct {
	WhatsAppBaseURL string
	WhatsAppAPIKey  string
	IntelBaseURL    string
	IntelAPIKey     string
	Timeout         time.Duration
	HTTPClient      *http.Client
}

// Fetcher is the set of upstream calls the dashboard makes.
type Fetcher interface {
	Status(ctx context.Context) ([]byte, error)
	PairingCode(ctx context.Context) (models.PairingImage, error)
	OpenLoops(ctx context.Context) ([]byte, error)
	People(ctx context.Context) ([]byte, error)
	Digest(ctx context.Context) ([]byte, error)
	Complete(ctx context.Context, loopID string) error
	Dismiss(ctx context.Context, loopID string) error
}

// Client talks to both upstreams over HTTP.
type Client struct {
	whatsappBase string
	whatsappKey  string
	intelBase    string
	intelKey     string
	timeout      time.Duration
	httpClient   *http.Client
	logger       zerolog.Logger
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a client. Missing base URLs are reported per call as
// ErrNotConfigured so one unconfigured upstream does not disable the other.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		whatsappBase: strings.TrimRight(strings.TrimSpace(cfg.WhatsAppBaseURL), "/"),
		whatsappKey:  strings.TrimSpace(cfg.WhatsAppAPIKey),
		intelBase:    strings.TrimRight(strings.TrimSpace(cfg.IntelBaseURL), "/"),
		intelKey:     strings.TrimSpace(cfg.IntelAPIKey),
		timeout:      timeout,
		httpClient:   httpClient,
		logger:       logging.Component("upstream"),
	}
}

// Status fetches the raw connection status document.
func (c *Client) Status(ctx context.Context) ([]byte, error) {
	body, _, err := c.do(ctx, serviceWhatsApp, http.MethodGet, "/status")
	return body, err
}

// PairingCode fetches and decodes the pairing image.
func (c *Client) PairingCode(ctx context.Context) (models.PairingImage, error) {
	body, contentType, err := c.do(ctx, serviceWhatsApp, http.MethodGet, "/qr")
	if err != nil {
		return models.PairingImage{}, err
	}
	img, err := DecodePairing(body, contentType)
	if err != nil {
		return models.PairingImage{}, err
	}
	img.FetchedAt = time.Now().UTC()
	return img, nil
}

// OpenLoops fetches the active open loops.
func (c *Client) OpenLoops(ctx context.Context) ([]byte, error) {
	body, _, err := c.do(ctx, serviceIntel, http.MethodGet, "/open-loops/active")
	return body, err
}

// People fetches the relationship directory.
func (c *Client) People(ctx context.Context) ([]byte, error) {
	body, _, err := c.do(ctx, serviceIntel, http.MethodGet, "/relationships/people")
	return body, err
}

// Digest fetches today's digest.
func (c *Client) Digest(ctx context.Context) ([]byte, error) {
	body, _, err := c.do(ctx, serviceIntel, http.MethodGet, "/digest/today")
	return body, err
}

// Complete marks a loop done upstream.
func (c *Client) Complete(ctx context.Context, loopID string) error {
	_, _, err := c.do(ctx, serviceIntel, http.MethodPost, "/open-loops/"+url.PathEscape(loopID)+"/complete")
	return err
}

// Dismiss marks a loop dismissed upstream.
func (c *Client) Dismiss(ctx context.Context, loopID string) error {
	_, _, err := c.do(ctx, serviceIntel, http.MethodPost, "/open-loops/"+url.PathEscape(loopID)+"/dismiss")
	return err
}

func (c *Client) endpoint(service string) (base, key string) {
	if service == serviceWhatsApp {
		return c.whatsappBase, c.whatsappKey
	}
	return c.intelBase, c.intelKey
}

func (c *Client) do(ctx context.Context, service, method, path string) ([]byte, string, error) {
	base, key := c.endpoint(service)
	if base == "" {
		return nil, "", fmt.Errorf("%s: %w", service, ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if method == http.MethodPost {
		reqBody = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("%s: build request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("service", service).Str("path", path).Msg("upstream request failed")
		return nil, "", fmt.Errorf("%s %s %s: %w", service, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%s %s %s: read body: %w", service, method, path, err)
	}

	c.logger.Debug().
		Str("service", service).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("upstream request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", newStatusError(service, method, path, resp.StatusCode, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
