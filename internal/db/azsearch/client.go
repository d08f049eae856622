// Package azsearch is a REST driver for a managed search service speaking the
// Azure AI Search data-plane API.
package azsearch

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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/db"
	"github.com/kailas-cloud/searchbot/internal/metrics"
)

// Compile-time check: Client implements db.SearchService.
var _ db.SearchService = (*Client)(nil)

// DefaultAPIVersion is the stable REST API version with vector and semantic support.
const DefaultAPIVersion = "2023-11-01"

// Config holds connection parameters for the search service.
type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the search service over HTTPS with an admin or query key.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	http       *http.Client
	logger     *zap.Logger
}

// NewClient creates a search service client. Endpoint and APIKey are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", cfg.Endpoint, err)
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: apiVersion,
		http:       httpClient,
		logger:     logger,
	}, nil
}

// GetIndex fetches an index definition. A missing index yields db.ErrIndexNotFound.
func (c *Client) GetIndex(ctx context.Context, name string) (*db.IndexDefinition, error) {
	var out indexDTO
	if err := c.do(ctx, db.OpGetIndex, http.MethodGet, indexPath(name), nil, &out); err != nil {
		return nil, err
	}
	return indexFromDTO(&out), nil
}

// CreateOrUpdateIndex creates the index or updates it in place.
func (c *Client) CreateOrUpdateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	body := indexToDTO(def)
	return c.do(ctx, db.OpCreateIndex, http.MethodPut, indexPath(def.Name), body, nil)
}

// DeleteIndex removes an index and all of its documents.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	return c.do(ctx, db.OpDeleteIndex, http.MethodDelete, indexPath(name), nil, nil)
}

// IndexDocuments applies the action to every document in one batch.
// A partially failed batch returns the per-document results together with db.ErrPartialBatch.
func (c *Client) IndexDocuments(
	ctx context.Context, index string, action db.DocumentAction, docs []map[string]any,
) ([]db.IndexingResult, error) {
	value := make([]map[string]any, len(docs))
	for i, d := range docs {
		item := make(map[string]any, len(d)+1)
		for k, v := range d {
			item[k] = v
		}
		item[actionKey] = string(action)
		value[i] = item
	}

	var out indexBatchResponseDTO
	err := c.do(ctx, db.OpIndexDocuments, http.MethodPost, indexPath(index)+"/docs/index",
		map[string]any{"value": value}, &out)

	// 207 is decoded into out and reported as ErrPartialBatch.
	if err != nil && !errors.Is(err, db.ErrPartialBatch) {
		return nil, err
	}

	results := make([]db.IndexingResult, len(out.Value))
	var failed []string
	for i, r := range out.Value {
		results[i] = db.IndexingResult{Key: r.Key, Succeeded: r.Status, StatusCode: r.StatusCode}
		if r.ErrorMessage != nil {
			results[i].ErrorMessage = *r.ErrorMessage
		}
		if !r.Status {
			failed = append(failed, r.Key)
		}
	}
	if len(failed) > 0 {
		return results, &db.Error{
			Op:         db.OpIndexDocuments,
			StatusCode: http.StatusMultiStatus,
			Err:        fmt.Errorf("%w: keys %s", db.ErrPartialBatch, strings.Join(failed, ",")),
		}
	}
	return results, nil
}

// Search runs one query and returns hits in service order.
func (c *Client) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	body := searchRequestDTO{
		Search:       q.Text,
		SearchFields: strings.Join(q.SearchFields, ","),
		Select:       strings.Join(q.Select, ","),
		Top:          q.Top,
	}
	if q.QueryType == db.QuerySemantic {
		body.QueryType = string(db.QuerySemantic)
		body.SemanticConfiguration = q.SemanticConfig
	}
	if q.Vector != nil {
		body.VectorQueries = []vectorQueryDTO{{
			Kind:   "vector",
			Vector: q.Vector.Vector,
			K:      q.Vector.K,
			Fields: strings.Join(q.Vector.Fields, ","),
		}}
	}

	var out searchResponseDTO
	if err := c.do(ctx, db.OpSearch, http.MethodPost, indexPath(q.IndexName)+"/docs/search", body, &out); err != nil {
		return nil, err
	}

	entries := make([]db.SearchEntry, 0, len(out.Value))
	for _, raw := range out.Value {
		e := db.SearchEntry{Fields: make(map[string]any, len(raw))}
		for k, v := range raw {
			switch k {
			case scoreKey:
				e.Score = toFloat(v)
			case rerankerScoreKey:
				e.RerankerScore = toFloat(v)
			default:
				if strings.HasPrefix(k, "@search.") {
					continue
				}
				e.Fields[k] = v
			}
		}
		entries = append(entries, e)
	}
	return &db.SearchResult{Entries: entries}, nil
}

// Ping verifies that the service answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ListIndexes", http.MethodGet, "/indexes?$select=name", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &db.Error{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	reqURL := c.endpoint + path + sep + "api-version=" + url.QueryEscape(c.apiVersion)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SearchServiceRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		return &db.Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	metrics.SearchServiceRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.SearchServiceRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	c.logger.Debug("search service request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= 300 {
		return statusError(op, resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return &db.Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	if resp.StatusCode == http.StatusMultiStatus {
		return &db.Error{Op: op, StatusCode: resp.StatusCode, Err: db.ErrPartialBatch}
	}
	return nil
}

// statusError converts a non-2xx response into a db.Error, mapping well-known statuses to sentinels.
func statusError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	msg := strings.TrimSpace(string(data))
	var parsed errorResponseDTO
	if json.Unmarshal(data, &parsed) == nil && parsed.Error.Message != "" {
		msg = parsed.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var err error
	switch resp.StatusCode {
	case http.StatusNotFound:
		err = fmt.Errorf("%w: %s", db.ErrIndexNotFound, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		err = fmt.Errorf("%w: %s", db.ErrUnauthorized, msg)
	default:
		err = errors.New(msg)
	}
	return &db.Error{Op: op, StatusCode: resp.StatusCode, Err: err}
}

func indexPath(name string) string {
	return "/indexes/" + url.PathEscape(name)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
