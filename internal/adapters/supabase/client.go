package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clientpulse/clientpulse-backend-go/internal/config"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
)

// Client reads usage metrics from the Supabase event store. Two query
// paths exist: the PostgREST table endpoint and a legacy RPC function.
// Which one is preferred is an explicit configuration choice, and the
// client falls back to the other path on failure instead of flipping any
// shared state.
type Client struct {
	baseURL    string
	apiKey     string
	preferRest bool
	http       *http.Client
	log        *logrus.Logger
}

// NewClient builds the usage source.
func NewClient(cfg config.SupabaseConfig, log *logrus.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase url and api key are required")
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		preferRest: cfg.PreferRest,
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}, nil
}

// Name identifies the source in logs and metrics.
func (c *Client) Name() string {
	return "supabase"
}

// usageRow mirrors the usage_metrics view.
type usageRow struct {
	AccountID             string             `json:"account_id"`
	ItemCount             int                `json:"item_count"`
	KanbanCount           int                `json:"kanban_count"`
	OrderCount            int                `json:"order_count"`
	ActiveUsers           int                `json:"active_users"`
	TotalUsers            int                `json:"total_users"`
	DaysSinceLastActivity int                `json:"days_since_last_activity"`
	TotalActivity         int                `json:"total_activity"`
	FeatureAdoption       map[string]float64 `json:"feature_adoption"`
	WeeklyActivity        []float64          `json:"weekly_activity"`
}

// FetchUsage queries the preferred path first and falls back to the other
// on failure.
func (c *Client) FetchUsage(ctx context.Context, accountID string) (*account.UsageMetrics, error) {
	primary, secondary := c.fetchViaRest, c.fetchViaRPC
	if !c.preferRest {
		primary, secondary = c.fetchViaRPC, c.fetchViaRest
	}

	row, err := primary(ctx, accountID)
	if err != nil {
		c.log.WithError(err).WithField("account_id", accountID).Warn("Primary usage query failed, trying fallback")
		row, err = secondary(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("supabase: both usage query paths failed for %s: %w", accountID, err)
		}
	}

	return &account.UsageMetrics{
		ItemCount:             row.ItemCount,
		KanbanCount:           row.KanbanCount,
		OrderCount:            row.OrderCount,
		ActiveUsers:           row.ActiveUsers,
		TotalUsers:            row.TotalUsers,
		DaysSinceLastActivity: row.DaysSinceLastActivity,
		TotalActivity:         row.TotalActivity,
		FeatureAdoption:       row.FeatureAdoption,
		WeeklyActivity:        row.WeeklyActivity,
	}, nil
}

func (c *Client) fetchViaRest(ctx context.Context, accountID string) (*usageRow, error) {
	url := fmt.Sprintf("%s/rest/v1/usage_metrics?account_id=eq.%s&limit=1", c.baseURL, accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var rows []usageRow
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no usage row for account %s", accountID)
	}
	return &rows[0], nil
}

func (c *Client) fetchViaRPC(ctx context.Context, accountID string) (*usageRow, error) {
	url := c.baseURL + "/rest/v1/rpc/get_account_usage"
	payload, err := json.Marshal(map[string]string{"p_account_id": accountID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	var row usageRow
	if err := c.do(req, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
