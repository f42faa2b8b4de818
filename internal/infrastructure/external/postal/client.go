// Package postal implements the client for India Post's public pincode
// directory API. It is the fallback ward resolver: pincodes already present
// in the local directory table never reach this client.
package postal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	"github.com/neta-watch/ward-pulse/pkg/circuitbreaker"
	"github.com/neta-watch/ward-pulse/pkg/logger"
	"github.com/neta-watch/ward-pulse/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the postal directory client.
type ClientConfig struct {
	// BaseURL is the directory API base URL,
	// e.g. "https://api.postalpincode.in".
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimiterConfig throttles outgoing lookups.
	RateLimiterConfig RateLimiterConfig

	// RetryConfig governs retry behavior for transient failures.
	RetryConfig retry.Config

	// CircuitBreakerConfig protects against a down directory service.
	CircuitBreakerConfig circuitbreaker.Config

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults for the given base URL.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:              baseURL,
		Timeout:              10 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		RetryConfig:          retry.DefaultConfig(),
		CircuitBreakerConfig: circuitbreaker.DefaultConfig("postal-directory"),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the postal pincode directory. It implements geo.Directory.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	log         *logger.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
}

// NewClient creates a new postal directory client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	return &Client{
		config:      cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		log:         cfg.Logger.With(logger.Component("postal_client")),
		rateLimiter: NewRateLimiter(cfg.RateLimiterConfig),
		breaker:     circuitbreaker.New(cfg.CircuitBreakerConfig),
		retrier:     retry.New(cfg.RetryConfig),
	}
}

// Lookup resolves a pincode through the directory API.
// Returns geo.ErrPincodeNotFound when the directory has no record, and
// geo.ErrDirectoryUnavailable when the service cannot be reached.
func (c *Client) Lookup(ctx context.Context, pincode shared.Pincode) (geo.WardLocation, error) {
	var loc geo.WardLocation

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			result, err := c.fetch(ctx, string(pincode))
			if err != nil {
				return err
			}
			loc = result
			return nil
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrPincodeNotFound):
			return geo.WardLocation{}, geo.ErrPincodeNotFound
		case errors.Is(err, circuitbreaker.ErrCircuitOpen):
			return geo.WardLocation{}, fmt.Errorf("%w: circuit open", geo.ErrDirectoryUnavailable)
		default:
			return geo.WardLocation{}, fmt.Errorf("%w: %v", geo.ErrDirectoryUnavailable, err)
		}
	}
	return loc, nil
}

// fetch performs one lookup request.
func (c *Client) fetch(ctx context.Context, pincode string) (geo.WardLocation, error) {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		return geo.WardLocation{}, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/pincode/%s", c.config.BaseURL, pincode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return geo.WardLocation{}, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.WardLocation{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.WardLocation{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 30 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		c.rateLimiter.RecordRateLimitHit(retryAfter)
		return geo.WardLocation{}, &RateLimitError{RetryAfter: retryAfter, Message: "rate limit exceeded"}
	}
	if resp.StatusCode >= 500 {
		return geo.WardLocation{}, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode >= 400 {
		return geo.WardLocation{}, retry.Permanent(&APIError{StatusCode: resp.StatusCode, Message: string(body)})
	}

	var envelope []lookupResponseDTO
	if err := json.Unmarshal(body, &envelope); err != nil {
		return geo.WardLocation{}, retry.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}
	if len(envelope) == 0 {
		return geo.WardLocation{}, retry.Permanent(fmt.Errorf("empty response envelope"))
	}

	entry := envelope[0]
	if entry.Status != statusSuccess || len(entry.PostOffice) == 0 {
		c.log.Debug("pincode not in postal directory", logger.Pincode(pincode))
		return geo.WardLocation{}, retry.Permanent(geo.ErrPincodeNotFound)
	}

	po := entry.PostOffice[0]
	loc := geo.WardLocation{
		Pincode: shared.Pincode(pincode),
		Ward:    po.Name,
		City:    po.District,
		State:   po.State,
	}
	if po.Block != "" && po.Block != "NA" {
		loc.City = po.Block
	}

	c.log.Debug("pincode resolved via postal directory",
		logger.Pincode(pincode),
		logger.Ward(loc.Ward))
	return loc, nil
}

// IsHealthy reports whether the directory API answers at all. Used by the
// readiness endpoint.
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.fetch(ctx, "110001")
	return err == nil || errors.Is(err, geo.ErrPincodeNotFound)
}

// BreakerState exposes the circuit state for status reporting.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
