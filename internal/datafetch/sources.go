package datafetch

import (
	"context"
	"time"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
)

// UsageSource supplies product-usage metrics from the event store.
type UsageSource interface {
	Name() string
	FetchUsage(ctx context.Context, accountID string) (*account.UsageMetrics, error)
}

// BillingSource supplies commercial metrics from the billing provider.
type BillingSource interface {
	Name() string
	FetchCommercial(ctx context.Context, accountID string) (*account.CommercialMetrics, error)
}

// Profile is the CRM's view of an account.
type Profile struct {
	Name         string
	Stage        account.LifecycleStage
	Onboarding   account.OnboardingStatus
	Stakeholders []account.Stakeholder
	Support      account.SupportMetrics
	CreatedAt    time.Time
}

// CRMSource supplies the relationship profile of an account.
type CRMSource interface {
	Name() string
	FetchProfile(ctx context.Context, accountID string) (*Profile, error)
}
