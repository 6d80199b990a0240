package pandascore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/snutij/esport-ics/internal/logger"
	"github.com/snutij/esport-ics/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.pandascore.co"
	UserAgent      = "esport-ics/1.0 (github.com/snutij/esport-ics)"

	PageSize   = 100
	MaxPages   = 20
	MaxRetries = 3

	InitialBackoff = 2 * time.Second
	ConnectTimeout = 10 * time.Second
	ReadTimeout    = 30 * time.Second

	maxBodySize = 16 << 20
)

// Reasons a record is dropped before mapping.
const (
	SkipUnscheduled = "unscheduled"
	SkipNoOpponents = "no_opponents"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config configures a Client. Only Token is required.
type Config struct {
	Token   string
	BaseURL string

	// HTTPClient defaults to NewHTTPClient(ConnectTimeout, ReadTimeout).
	HTTPClient *http.Client
	Logger     *logger.Logger
	Metrics    *metrics.Metrics

	// MaxPages caps pagination; zero means MaxPages.
	MaxPages int
	// NewBackOff builds the wait policy between attempts of one request.
	// At most MaxRetries retries are made whatever it returns.
	NewBackOff func() backoff.BackOff
}

// Client fetches schedules from the PandaScore REST API. Requests are
// sequential; a Client is safe to reuse across games.
type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	log        *logger.Logger
	metrics    *metrics.Metrics
	maxPages   int
	newBackOff func() backoff.BackOff
}

// FetchOptions narrows a matches listing.
type FetchOptions struct {
	// LeagueID restricts the listing to one league.
	LeagueID string
}

// NewClient validates cfg and returns a Client. It fails with
// ErrMissingToken when the token is empty, before any request is made.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrMissingToken
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &Client{
		http:       cfg.HTTPClient,
		baseURL:    baseURL,
		token:      token,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
		maxPages:   cfg.MaxPages,
		newBackOff: cfg.NewBackOff,
	}
	if c.http == nil {
		c.http = NewHTTPClient(ConnectTimeout, ReadTimeout)
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	if c.maxPages <= 0 {
		c.maxPages = MaxPages
	}
	if c.newBackOff == nil {
		c.newBackOff = ExponentialBackOff
	}
	return c, nil
}

// NewHTTPClient returns an HTTP client with separate connect and read
// timeouts. Both surface as timeout errors, which the Client retries.
func NewHTTPClient(connect, read time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: connect + 2*read,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   connect,
			ResponseHeaderTimeout: read,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// ExponentialBackOff waits 2s, 4s, 8s... between attempts, without jitter.
func ExponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = InitialBackoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return b
}

// FetchMatches returns every upcoming match for a game code. Records with
// no scheduled time or no opponents are left out.
func (c *Client) FetchMatches(ctx context.Context, code string, opts FetchOptions) ([]RawMatch, error) {
	query := url.Values{}
	if opts.LeagueID != "" {
		query.Set("filter[league_id]", opts.LeagueID)
	}

	raw, err := fetchPages[RawMatch](ctx, c, code, "/"+url.PathEscape(code)+"/matches/upcoming", query)
	if err != nil {
		return nil, err
	}

	matches := make([]RawMatch, 0, len(raw))
	for _, m := range raw {
		if reason := skipReason(m); reason != "" {
			c.metrics.ObserveSkipped(code, reason)
			c.log.Debug("skipping match", logger.Fields{
				"game":   code,
				"match":  m.ID.String(),
				"reason": reason,
			})
			continue
		}
		matches = append(matches, m)
	}

	c.metrics.ObserveFetched(code, len(matches))
	return matches, nil
}

// FetchLeagues returns the leagues of a game code.
func (c *Client) FetchLeagues(ctx context.Context, code string) ([]RawLeague, error) {
	return fetchPages[RawLeague](ctx, c, code, "/"+url.PathEscape(code)+"/leagues", url.Values{})
}

func skipReason(m RawMatch) string {
	if strings.TrimSpace(m.ScheduledAt) == "" {
		return SkipUnscheduled
	}
	if len(m.Opponents) == 0 {
		return SkipNoOpponents
	}
	return ""
}

// fetchPages walks 1-based pages until an empty page or the page ceiling.
// Hitting the ceiling is logged and the partial result returned.
func fetchPages[T any](ctx context.Context, c *Client, game, path string, query url.Values) ([]T, error) {
	var all []T
	for page := 1; page <= c.maxPages; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page[size]", strconv.Itoa(PageSize))
		q.Set("page[number]", strconv.Itoa(page))

		body, err := c.get(ctx, game, path, q)
		if err != nil {
			return nil, fmt.Errorf("fetching %s page %d: %w", path, page, err)
		}

		items, err := decodeList[T](body)
		if err != nil {
			return nil, fmt.Errorf("decoding %s page %d: %w", path, page, err)
		}
		if len(items) == 0 {
			return all, nil
		}
		all = append(all, items...)
	}

	c.log.Warn("pagination ceiling reached, results truncated", logger.Fields{
		"game":      game,
		"path":      path,
		"max_pages": c.maxPages,
		"records":   len(all),
	})
	c.metrics.ObserveCeiling(game)
	return all, nil
}

// decodeList accepts a bare JSON array or a {"data": [...]} envelope.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Data, nil
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// get performs one logical request, retrying 5xx responses and timeouts.
func (c *Client) get(ctx context.Context, game, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + query.Encode()

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		data, err := c.do(ctx, game, endpoint)
		if err != nil {
			return err
		}
		body = data
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn("retrying upstream request", logger.Fields{
			"game":    game,
			"path":    path,
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), MaxRetries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

// do sends a single attempt. Errors that must not be retried are wrapped
// with backoff.Permanent.
func (c *Client) do(ctx context.Context, game, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, game, "sending request", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.transportError(ctx, game, "reading response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.metrics.ObserveRequest(game, metrics.OutcomeOK)
		return data, nil
	case resp.StatusCode >= 500:
		c.metrics.ObserveRequest(game, metrics.OutcomeServerError)
		return nil, &ServerError{Code: resp.StatusCode, Body: abbreviate(data)}
	default:
		c.metrics.ObserveRequest(game, metrics.OutcomeClientError)
		return nil, backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: abbreviate(data)})
	}
}

func (c *Client) transportError(ctx context.Context, game, op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if ctx.Err() == nil && isTimeout(err) {
		c.metrics.ObserveRequest(game, metrics.OutcomeTimeout)
		return wrapped
	}
	c.metrics.ObserveRequest(game, metrics.OutcomeError)
	return backoff.Permanent(wrapped)
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
