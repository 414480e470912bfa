package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/clientpulse/clientpulse-backend-go/internal/config"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/datafetch"
)

// Client reads company and contact data from the HubSpot CRM API using an
// OAuth refresh-token grant.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds the CRM source. The oauth2 client caches and refreshes
// the access token transparently.
func NewClient(cfg config.HubSpotConfig) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("hubspot oauth credentials are required")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := oauth2.NewClient(context.Background(), oauthCfg.TokenSource(context.Background(), token))
	httpClient.Timeout = 15 * time.Second

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}, nil
}

// Name identifies the source in logs and metrics.
func (c *Client) Name() string {
	return "hubspot"
}

type companyResponse struct {
	ID         string `json:"id"`
	Properties struct {
		Name             string `json:"name"`
		LifecycleStage   string `json:"lifecyclestage"`
		OnboardingStatus string `json:"onboarding_status"`
		CreatedAt        string `json:"createdate"`
		OpenTickets      string `json:"open_ticket_count"`
		CriticalTickets  string `json:"critical_ticket_count"`
		EscalatedTickets string `json:"escalated_ticket_count"`
		TicketsLast30d   string `json:"tickets_last_30_days"`
	} `json:"properties"`
}

type contactsResponse struct {
	Results []struct {
		Properties struct {
			FirstName string `json:"firstname"`
			LastName  string `json:"lastname"`
			JobTitle  string `json:"jobtitle"`
			Influence string `json:"account_influence"`
			Departed  string `json:"has_departed"`
		} `json:"properties"`
	} `json:"results"`
}

// FetchProfile reads one company and its associated contacts.
func (c *Client) FetchProfile(ctx context.Context, accountID string) (*datafetch.Profile, error) {
	var company companyResponse
	companyURL := fmt.Sprintf(
		"%s/crm/v3/objects/companies/%s?properties=name,lifecyclestage,onboarding_status,createdate,open_ticket_count,critical_ticket_count,escalated_ticket_count,tickets_last_30_days",
		c.baseURL, accountID)
	if err := c.getJSON(ctx, companyURL, &company); err != nil {
		return nil, fmt.Errorf("hubspot: failed to fetch company %s: %w", accountID, err)
	}

	profile := &datafetch.Profile{
		Name:       company.Properties.Name,
		Stage:      parseStage(company.Properties.LifecycleStage),
		Onboarding: parseOnboarding(company.Properties.OnboardingStatus),
		Support: account.SupportMetrics{
			OpenTickets:      atoi(company.Properties.OpenTickets),
			CriticalTickets:  atoi(company.Properties.CriticalTickets),
			EscalatedTickets: atoi(company.Properties.EscalatedTickets),
			TicketsLast30d:   atoi(company.Properties.TicketsLast30d),
		},
	}
	if t, err := time.Parse(time.RFC3339, company.Properties.CreatedAt); err == nil {
		profile.CreatedAt = t
	}

	var contacts contactsResponse
	contactsURL := fmt.Sprintf(
		"%s/crm/v3/objects/companies/%s/associations/contacts?properties=firstname,lastname,jobtitle,account_influence,has_departed",
		c.baseURL, accountID)
	if err := c.getJSON(ctx, contactsURL, &contacts); err != nil {
		// Contacts are enrichment; a company without them still yields a
		// usable profile.
		return profile, nil
	}

	for _, result := range contacts.Results {
		p := result.Properties
		profile.Stakeholders = append(profile.Stakeholders, account.Stakeholder{
			Name:      strings.TrimSpace(p.FirstName + " " + p.LastName),
			Role:      p.JobTitle,
			Influence: p.Influence,
			Departed:  p.Departed == "true",
		})
	}
	return profile, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
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

func parseStage(raw string) account.LifecycleStage {
	switch account.LifecycleStage(raw) {
	case account.StageOnboarding, account.StageAdoption, account.StageGrowth,
		account.StageMature, account.StageRenewal:
		return account.LifecycleStage(raw)
	default:
		return account.StageUnknown
	}
}

func parseOnboarding(raw string) account.OnboardingStatus {
	switch account.OnboardingStatus(raw) {
	case account.OnboardingSigned, account.OnboardingKickoff,
		account.OnboardingInProgress, account.OnboardingLive:
		return account.OnboardingStatus(raw)
	default:
		return account.OnboardingSigned
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
