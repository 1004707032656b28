// Package catalog implements the HTTP client for the CMIP6 QC gateway — the
// service that fronts the cloud data catalog, the preprocessing pipeline, and
// the staggered-grid builder. All methods are context-aware, respect the
// shared rate limiter, and retry on transient errors (429, 5xx).
//
// The pipeline and grid algebra themselves stay on the service side; this
// package only moves documents.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/oceandata/cmip6qc/internal/dataset"
)

const (
	defaultBaseURL = "https://qc.ocean-data.io/cmip6/"
	maxRetries     = 4
)

// ErrNoData reports that the catalog holds no dataset for a query. Callers
// map it to a skip outcome, never to a failure.
var ErrNoData = errors.New("no data in catalog")

// Client is the gateway HTTP client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	debug      bool
}

// NewClient creates a Client with the given bearer token (may be empty for
// anonymous access) and timeout.
func NewClient(token, baseURL string, timeout time.Duration, ratePerSec float64, debug bool) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		debug:   debug,
	}
}

// ─── Models ───────────────────────────────────────────────────────────────────

// Models returns every source_id known to the catalog.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var raw struct {
		Models []string `json:"models"`
	}
	if err := c.get(ctx, "models", url.Values{}, &raw); err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	return raw.Models, nil
}

// ─── Search ───────────────────────────────────────────────────────────────────

// Query identifies one dataset instance in the catalog.
type Query struct {
	SourceID     string
	VariableID   string
	ExperimentID string
	GridLabel    string
}

func (q Query) params() url.Values {
	params := url.Values{}
	params.Set("source_id", q.SourceID)
	params.Set("variable_id", q.VariableID)
	params.Set("experiment_id", q.ExperimentID)
	params.Set("grid_label", q.GridLabel)
	return params
}

// Search returns the catalog entries matching the query. An empty result is
// not an error: no data for a spec is an expected condition.
func (c *Client) Search(ctx context.Context, q Query) ([]Entry, error) {
	var raw struct {
		Entries []rawEntry `json:"entries"`
	}
	if err := c.get(ctx, "search", q.params(), &raw); err != nil {
		return nil, fmt.Errorf("search %s/%s: %w", q.SourceID, q.VariableID, err)
	}
	entries := make([]Entry, len(raw.Entries))
	for i, e := range raw.Entries {
		entries[i] = normalizeEntry(e)
	}
	return entries, nil
}

// ─── Datasets ─────────────────────────────────────────────────────────────────

// Dataset fetches the dataset for a query. With preprocess=true the gateway
// runs the combined preprocessing pipeline before returning the canonical
// document; with preprocess=false the raw document is returned as stored.
// A 404 maps to ErrNoData.
func (c *Client) Dataset(ctx context.Context, q Query, preprocess bool) (*dataset.Dataset, error) {
	params := q.params()
	params.Set("preprocess", strconv.FormatBool(preprocess))

	body, err := c.getRaw(ctx, "dataset", params)
	if err != nil {
		return nil, fmt.Errorf("dataset %s/%s: %w", q.SourceID, q.VariableID, err)
	}
	ds, err := dataset.DecodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("dataset %s/%s: %w", q.SourceID, q.VariableID, err)
	}
	return ds, nil
}

// ─── Staggered grid ───────────────────────────────────────────────────────────

// Grid is the handle for a staggered grid built by the gateway. Axes maps an
// axis name (X, Y, Z) to the grid positions it carries.
type Grid struct {
	ID   string              `json:"id"`
	Axes map[string][]string `json:"axes"`
}

// CombineGrid posts a canonical dataset to the gateway's grid builder and
// returns the grid handle plus the dataset augmented with metric coordinates.
func (c *Client) CombineGrid(ctx context.Context, ds *dataset.Dataset, recalculateMetrics bool) (*Grid, *dataset.Dataset, error) {
	doc, err := dataset.EncodeJSON(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("grid combine: %w", err)
	}
	req := struct {
		Dataset            json.RawMessage `json:"dataset"`
		RecalculateMetrics bool            `json:"recalculate_metrics"`
	}{Dataset: doc, RecalculateMetrics: recalculateMetrics}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("grid combine: %w", err)
	}

	var raw struct {
		Grid    *Grid           `json:"grid"`
		Dataset json.RawMessage `json:"dataset"`
	}
	if err := c.post(ctx, "grid/combine", payload, &raw); err != nil {
		return nil, nil, fmt.Errorf("grid combine: %w", err)
	}
	if raw.Grid == nil || len(raw.Dataset) == 0 {
		return nil, nil, fmt.Errorf("grid combine: gateway returned incomplete response")
	}
	combined, err := dataset.DecodeJSON(raw.Dataset)
	if err != nil {
		return nil, nil, fmt.Errorf("grid combine: %w", err)
	}
	return raw.Grid, combined, nil
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	body, err := c.getRaw(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// getRaw performs a GET request, handling rate limiting and retries, and
// returns the raw body.
func (c *Client) getRaw(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if enc := params.Encode(); enc != "" {
		reqURL += "?" + enc
	}
	return c.do(ctx, http.MethodGet, reqURL, nil)
}

// post performs a POST request with a JSON payload and decodes the response.
func (c *Client) post(ctx context.Context, endpoint string, payload []byte, out interface{}) error {
	body, err := c.do(ctx, http.MethodPost, c.baseURL+endpoint, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.debug {
		slog.Debug("gateway request", "method", method, "url", reqURL)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))*500) * time.Millisecond
			slog.Debug("retrying after backoff", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "cmip6qc/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}

		if c.debug {
			slog.Debug("gateway response", "status", resp.StatusCode, "bytes", len(body))
		}

		// Retry on server errors and rate limiting
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNoData
		}

		if resp.StatusCode != http.StatusOK {
			// Try to extract the gateway error message
			var apiErr struct {
				Error string `json:"error_message"`
			}
			_ = json.Unmarshal(body, &apiErr)
			if apiErr.Error != "" {
				return nil, fmt.Errorf("API error: %s", apiErr.Error)
			}
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		return body, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

// ─── Internal helpers ─────────────────────────────────────────────────────────

type rawEntry struct {
	ZStore        string `json:"zstore"`
	AssetURL      string `json:"asset_url"`
	MemberID      string `json:"member_id"`
	TableID       string `json:"table_id"`
	Version       string `json:"version"`
	ActivityID    string `json:"activity_id"`
	InstitutionID string `json:"institution_id"`
}

func normalizeEntry(r rawEntry) Entry {
	return Entry{
		ZStore:        r.ZStore,
		AssetURL:      r.AssetURL,
		MemberID:      r.MemberID,
		TableID:       r.TableID,
		Version:       r.Version,
		ActivityID:    r.ActivityID,
		InstitutionID: r.InstitutionID,
		FetchedAt:     time.Now(),
	}
}
