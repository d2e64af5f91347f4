package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2"

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	cache      Cache
	logger     *zap.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache makes successful bodies reusable across calls.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient builds a client. rps <= 0 disables client-side rate limiting.
func NewClient(userAgent string, rps int, maxRetries int, opts ...Option) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Every(time.Second / time.Duration(rps))
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
		backoff:    time.Second,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListPokemon(ctx context.Context, limit, offset int) (*NamedResourceList, error) {
	u := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)

	var res NamedResourceList
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetPokemon accepts either a name/id or the absolute URL from a listing.
func (c *Client) GetPokemon(ctx context.Context, nameOrURL string) (*Pokemon, error) {
	var res Pokemon
	if err := c.get(ctx, c.resolve("pokemon", nameOrURL), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetSpecies(ctx context.Context, nameOrURL string) (*Species, error) {
	var res Species
	if err := c.get(ctx, c.resolve("pokemon-species", nameOrURL), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetEvolutionChain(ctx context.Context, idOrURL string) (*EvolutionChain, error) {
	var res EvolutionChain
	if err := c.get(ctx, c.resolve("evolution-chain", idOrURL), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) resolve(resource, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	key := url.PathEscape(strings.ToLower(strings.TrimSpace(ref)))
	return fmt.Sprintf("%s/%s/%s/", c.baseURL, resource, key)
}

func (c *Client) get(ctx context.Context, u string, target any) error {
	body, err := c.RawGet(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

// RawGet returns the response body for u, consulting the cache first.
func (c *Client) RawGet(ctx context.Context, u string) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, u)
		if err != nil {
			c.logger.Warn("cache lookup failed", zap.String("url", u), zap.Error(err))
		} else if ok {
			return body, nil
		}
	}

	body, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, u, body); err != nil {
			c.logger.Warn("cache store failed", zap.String("url", u), zap.Error(err))
		}
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retry, err := c.do(ctx, u)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		c.logger.Debug("retrying request", zap.String("url", u), zap.Int("attempt", i+1), zap.Error(err))
		lastErr = err
	}
	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, u string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, true, &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode != http.StatusOK:
		return nil, retryable(resp.StatusCode), &HTTPError{StatusCode: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, true, &NetworkError{URL: u, Err: err}
	}
	return body, false, nil
}
