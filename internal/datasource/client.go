package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/godilite/urbanscore/internal/metrics"
	"github.com/godilite/urbanscore/internal/ranking"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultSortBy  = "global_score"

	maxBodyBytes = 4 << 20
)

var ErrInvalidID = errors.New("borough id must not be empty")

// Recorder receives one observation per outbound request.
type Recorder interface {
	ObserveRequest(endpoint, outcome string, d time.Duration)
}

type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
	Recorder          Recorder
}

type Option func(*Options)

func WithBaseURL(u string) Option {
	return func(o *Options) { o.BaseURL = u }
}

// WithHTTPClient replaces the instrumented default client. Timeout is ignored
// when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.HTTPClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithRateLimit caps outbound requests. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.RequestsPerSecond = rps
		o.Burst = burst
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(o *Options) { o.Recorder = r }
}

// Client talks to the ranking data source over HTTP. It performs exactly one
// request per call and never retries.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
	recorder Recorder
}

func New(opts ...Option) (*Client, error) {
	o := &Options{
		Timeout: DefaultTimeout,
		Burst:   1,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.BaseURL == "" {
		return nil, errors.New("datasource: base URL is required")
	}
	base, err := url.Parse(o.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("datasource: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("datasource: unsupported scheme %q", base.Scheme)
	}

	httpClient := o.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   o.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	limit := rate.Inf
	if o.RequestsPerSecond > 0 {
		limit = rate.Limit(o.RequestsPerSecond)
	}
	burst := o.Burst
	if burst < 1 {
		burst = 1
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	recorder := o.Recorder
	if recorder == nil {
		recorder = (*metrics.Metrics)(nil)
	}

	return &Client{
		baseURL:  base,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger.Named("datasource"),
		recorder: recorder,
	}, nil
}

// Rankings fetches the records ranked for p.Profile. Records without an id are
// given their position in the response as id.
func (c *Client) Rankings(ctx context.Context, p RankingsParams) ([]ranking.NeighborhoodRecord, error) {
	const op = "rankings"

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	q := url.Values{
		"sort_by": {sortBy},
		"order":   {p.Order.DataSourceValue()},
		"profile": {p.Profile.DataSourceValue()},
	}
	setInt(q, "limit", p.Limit)
	setInt(q, "offset", p.Offset)
	setInt(q, "min_population", p.MinPopulation)
	setInt(q, "max_population", p.MaxPopulation)
	setInt(q, "min_income", p.MinIncome)

	var wire []wireBorough
	if err := c.do(ctx, op, http.MethodGet, c.baseURL.JoinPath("rankings"), q, nil, boroughListSchema, &wire); err != nil {
		return nil, err
	}

	records := make([]ranking.NeighborhoodRecord, len(wire))
	for i, w := range wire {
		records[i] = w.toRecord(i)
	}
	return records, nil
}

func (c *Client) Boroughs(ctx context.Context) ([]Borough, error) {
	var wire []wireBorough
	if err := c.do(ctx, "boroughs", http.MethodGet, c.baseURL.JoinPath("boroughs"), nil, nil, boroughListSchema, &wire); err != nil {
		return nil, err
	}

	out := make([]Borough, len(wire))
	for i, w := range wire {
		out[i] = w.toBorough(i)
	}
	return out, nil
}

func (c *Client) Borough(ctx context.Context, id string) (Borough, error) {
	if id == "" {
		return Borough{}, ErrInvalidID
	}
	var wire wireBorough
	if err := c.do(ctx, "borough", http.MethodGet, c.boroughURL(id), nil, nil, boroughSchema, &wire); err != nil {
		return Borough{}, err
	}
	b := wire.toBorough(0)
	if wire.ID == nil && wire.MongoID == nil {
		b.ID = id
	}
	return b, nil
}

// CreateBorough stores a new borough and returns the id assigned by the data source.
func (c *Client) CreateBorough(ctx context.Context, in BoroughInput) (string, error) {
	var created wireCreated
	if err := c.do(ctx, "create_borough", http.MethodPost, c.baseURL.JoinPath("boroughs"), nil, in, createdSchema, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) UpdateBorough(ctx context.Context, id string, patch BoroughPatch) error {
	if id == "" {
		return ErrInvalidID
	}
	return c.do(ctx, "update_borough", http.MethodPut, c.boroughURL(id), nil, patch, nil, nil)
}

func (c *Client) DeleteBorough(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	return c.do(ctx, "delete_borough", http.MethodDelete, c.boroughURL(id), nil, nil, nil, nil)
}

func (c *Client) boroughURL(id string) *url.URL {
	return c.baseURL.JoinPath("boroughs", url.PathEscape(id))
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

// do performs one request. When schema is non-nil the response body is validated
// against it and decoded into out.
func (c *Client) do(ctx context.Context, op, method string, u *url.URL, q url.Values, payload any,
	schema *gojsonschema.Schema, out any) (err error) {
	start := time.Now()
	defer func() {
		c.recorder.ObserveRequest(op, outcome(err), time.Since(start))
		if err != nil {
			c.logger.Warn("data source request failed",
				zap.String("op", op),
				zap.String("method", method),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkFailure{Op: op, Err: err}
	}

	target := *u
	if q != nil {
		target.RawQuery = q.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkFailure{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &HTTPStatusFailure{Op: op, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkFailure{Op: op, Err: err}
	}

	if schema == nil {
		return nil
	}

	reason, err := validate(schema, raw)
	if err != nil {
		return &MalformedPayload{Op: op, Reason: err.Error()}
	}
	if reason != "" {
		return &MalformedPayload{Op: op, Reason: reason}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &MalformedPayload{Op: op, Reason: err.Error()}
	}

	c.logger.Debug("data source request completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func outcome(err error) string {
	var (
		network   *NetworkFailure
		status    *HTTPStatusFailure
		malformed *MalformedPayload
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &network):
		return metrics.OutcomeNetwork
	case errors.As(err, &status):
		return metrics.OutcomeStatus
	case errors.As(err, &malformed):
		return metrics.OutcomeMalformed
	}
	return "error"
}
