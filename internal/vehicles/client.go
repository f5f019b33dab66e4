package vehicles

import (
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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcouto/autosales-backend/pkg/enums"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
	"github.com/mcouto/autosales-backend/pkg/logger"
	"github.com/mcouto/autosales-backend/pkg/pagination"
)

const responseBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("vehicles service base url is required")

// Vehicle is the snapshot returned by the inventory service.
type Vehicle struct {
	ID        uuid.UUID           `json:"id"`
	Brand     string              `json:"brand"`
	Model     string              `json:"model"`
	Year      int                 `json:"year"`
	Color     string              `json:"color"`
	Price     decimal.Decimal     `json:"price"`
	Status    enums.VehicleStatus `json:"status"`
	CreatedAt *time.Time          `json:"created_at,omitempty"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty"`
}

// Client consumes the vehicle inventory service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger attaches a logger for degraded-path reporting.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds an inventory client for the given base URL and bearer token.
func NewClient(baseURL, authToken string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		authToken:  strings.TrimSpace(authToken),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// FindByID fetches a single vehicle snapshot.
func (c *Client) FindByID(ctx context.Context, vehicleID uuid.UUID) (*Vehicle, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vehicles client not configured")
	}

	endpoint := fmt.Sprintf("%s/vehicles/%s", c.baseURL, vehicleID)
	resp, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch vehicle")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readStatusError(resp), "fetch vehicle")
	}

	var vehicle Vehicle
	if err := json.NewDecoder(resp.Body).Decode(&vehicle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode vehicle response")
	}
	return &vehicle, nil
}

// MarkSold asks the inventory service to flag the vehicle as sold. It is
// best-effort: any transport or HTTP failure is reported as false, never as an
// error across this boundary.
func (c *Client) MarkSold(ctx context.Context, vehicleID uuid.UUID) bool {
	if c == nil {
		return false
	}

	endpoint := fmt.Sprintf("%s/vehicles/%s/sell", c.baseURL, vehicleID)
	resp, err := c.do(ctx, http.MethodPut, endpoint)
	if err != nil {
		c.warn(ctx, vehicleID, fmt.Sprintf("mark-sold request failed: %v", err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.warn(ctx, vehicleID, fmt.Sprintf("mark-sold rejected with status %d", resp.StatusCode))
		return false
	}
	return true
}

// ListByStatus pages through vehicles in the given status. Failures degrade to
// an empty page instead of propagating.
func (c *Client) ListByStatus(ctx context.Context, status enums.VehicleStatus, params pagination.Params) (*pagination.Page[Vehicle], error) {
	params = params.Normalize()
	if c == nil {
		return pagination.Empty[Vehicle](params), nil
	}

	query := url.Values{}
	query.Set("status", status.String())
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("size", strconv.Itoa(params.Size))
	query.Set("sort", "price,asc")
	endpoint := fmt.Sprintf("%s/vehicles?%s", c.baseURL, query.Encode())

	resp, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		c.warnList(ctx, status, fmt.Sprintf("list request failed: %v", err))
		return pagination.Empty[Vehicle](params), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.warnList(ctx, status, fmt.Sprintf("list rejected with status %d", resp.StatusCode))
		return pagination.Empty[Vehicle](params), nil
	}

	var page pagination.Page[Vehicle]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		c.warnList(ctx, status, fmt.Sprintf("decode list response: %v", err))
		return pagination.Empty[Vehicle](params), nil
	}
	if page.Content == nil {
		page.Content = []Vehicle{}
	}
	page.Page = params.Page
	page.Size = params.Size
	return &page, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return c.httpClient.Do(req)
}

func (c *Client) warn(ctx context.Context, vehicleID uuid.UUID, msg string) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithVehicleID(ctx, vehicleID.String())
	c.logg.Warn(ctx, msg)
}

func (c *Client) warnList(ctx context.Context, status enums.VehicleStatus, msg string) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithField(ctx, "vehicle_status", status.String())
	c.logg.Warn(ctx, msg)
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
