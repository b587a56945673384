// Package dynatrace is a read-only client for the Dynatrace environment API v2.
//
// Reads degrade instead of failing: a transport error, timeout, non-2xx status
// or undecodable body is logged and the call returns an empty list. Callers
// therefore cannot tell an unreachable tenant from an empty one. Only
// cancellation of the caller's context is reported as an error.
package dynatrace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiPrefix      = "/api/v2/"
	problemsTime   = "2006-01-02T15:04:05Z"
	hostFields     = "+properties.installerVersion,+properties.monitoringMode,+properties.state"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// ErrInvalidTenantURL is returned by NewClient for a tenant URL that cannot be
// used as a request base.
var ErrInvalidTenantURL = errors.New("dynatrace: invalid tenant URL")

// Client issues authenticated GET requests against one tenant.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient validates tenantURL and builds a client whose requests are bounded
// by timeout (30s when zero).
func NewClient(tenantURL, token string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(tenantURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTenantURL, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTenantURL, tenantURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    base,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}, nil
}

// BaseURL returns the normalised tenant URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Problems returns open problems that started within the last hours.
func (c *Client) Problems(ctx context.Context, hours int) (ProblemList, error) {
	if hours <= 0 {
		hours = 24
	}
	from := c.now().UTC().Add(-time.Duration(hours) * time.Hour)
	params := url.Values{}
	params.Set("from", from.Format(problemsTime))
	params.Set("problemSelector", `status("open")`)

	var out ProblemList
	if ok, err := c.get(ctx, "problems", params, &out); !ok {
		return ProblemList{}, err
	}
	return out, nil
}

// Hosts returns HOST entities with monitoring mode, installer version and state.
func (c *Client) Hosts(ctx context.Context) (EntityList, error) {
	params := url.Values{}
	params.Set("entitySelector", "type(HOST)")
	params.Set("fields", hostFields)

	var out EntityList
	if ok, err := c.get(ctx, "entities", params, &out); !ok {
		return EntityList{}, err
	}
	return out, nil
}

func (c *Client) ActiveGates(ctx context.Context) (ActiveGateList, error) {
	var out ActiveGateList
	if ok, err := c.get(ctx, "activeGates", nil, &out); !ok {
		return ActiveGateList{}, err
	}
	return out, nil
}

func (c *Client) SyntheticMonitors(ctx context.Context) (SyntheticMonitorList, error) {
	var out SyntheticMonitorList
	if ok, err := c.get(ctx, "synthetic/monitors", nil, &out); !ok {
		return SyntheticMonitorList{}, err
	}
	return out, nil
}

// Settings returns the settings objects of one schema, e.g. "builtin:alerting.profile".
func (c *Client) Settings(ctx context.Context, schemaID string) (SettingsObjectList, error) {
	params := url.Values{}
	params.Set("schemaIds", schemaID)

	var out SettingsObjectList
	if ok, err := c.get(ctx, "settings/objects", params, &out); !ok {
		return SettingsObjectList{}, err
	}
	return out, nil
}

// get decodes the JSON body of GET <base>/api/v2/<endpoint> into out and
// reports whether it succeeded. Failures are logged; only ctx cancellation is
// returned as an error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) (bool, error) {
	u := c.baseURL + apiPrefix + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Error("API request failed", "endpoint", endpoint, "err", err)
		return false, nil
	}
	req.Header.Set("Authorization", "Api-Token "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, fmt.Errorf("dynatrace: %s: %w", endpoint, ctxErr)
		}
		c.logger.Error("API request failed", "endpoint", endpoint, "err", err)
		return false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("API request failed",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(body)))
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("API response not decodable", "endpoint", endpoint, "err", err)
		return false, nil
	}
	c.logger.Debug("API request ok", "endpoint", endpoint, "duration", time.Since(start))
	return true, nil
}
