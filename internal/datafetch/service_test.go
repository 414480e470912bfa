package datafetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
)

type fakeUsage struct {
	metrics *account.UsageMetrics
	err     error
}

func (f *fakeUsage) Name() string { return "fake-usage" }
func (f *fakeUsage) FetchUsage(ctx context.Context, accountID string) (*account.UsageMetrics, error) {
	return f.metrics, f.err
}

type fakeBilling struct {
	metrics *account.CommercialMetrics
	err     error
}

func (f *fakeBilling) Name() string { return "fake-billing" }
func (f *fakeBilling) FetchCommercial(ctx context.Context, accountID string) (*account.CommercialMetrics, error) {
	return f.metrics, f.err
}

type fakeCRM struct {
	profile *Profile
	err     error
}

func (f *fakeCRM) Name() string { return "fake-crm" }
func (f *fakeCRM) FetchProfile(ctx context.Context, accountID string) (*Profile, error) {
	return f.profile, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestSnapshot_AssemblesAllSections(t *testing.T) {
	created := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	svc := NewService(
		&fakeUsage{metrics: &account.UsageMetrics{ItemCount: 42, ActiveUsers: 9, TotalUsers: 12}},
		&fakeBilling{metrics: &account.CommercialMetrics{ARR: 48000, MRR: 4000, PaymentStatus: account.PaymentCurrent}},
		&fakeCRM{profile: &Profile{
			Name:       "Acme Industries",
			Stage:      account.StageMature,
			Onboarding: account.OnboardingLive,
			CreatedAt:  created,
			Stakeholders: []account.Stakeholder{
				{Name: "Dana", Role: "ops lead", Influence: "champion"},
			},
		}},
		nil, nil, quietLogger(),
	)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	snap, err := svc.Snapshot(context.Background(), "acct-1", CacheDefault)
	require.NoError(t, err)

	assert.Equal(t, "acct-1", snap.ID)
	assert.Equal(t, "Acme Industries", snap.Name)
	assert.Equal(t, 42, snap.Usage.ItemCount)
	assert.Equal(t, 48000.0, snap.Commercial.ARR)
	assert.True(t, snap.HasChampion())
	assert.Equal(t, created, snap.CreatedAt)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), snap.AsOf)
}

func TestSnapshot_DegradesOnSourceFailure(t *testing.T) {
	svc := NewService(
		&fakeUsage{err: errors.New("event store unreachable")},
		&fakeBilling{err: errors.New("billing api 500")},
		&fakeCRM{profile: &Profile{Name: "Degraded Co", Stage: account.StageMature}},
		nil, nil, quietLogger(),
	)

	snap, err := svc.Snapshot(context.Background(), "acct-2", CacheDefault)
	require.NoError(t, err)

	assert.Equal(t, "Degraded Co", snap.Name)
	assert.Zero(t, snap.Usage.ItemCount)
	assert.Zero(t, snap.Commercial.ARR)
	assert.Equal(t, account.PaymentStatus(""), snap.Commercial.PaymentStatus)
}

func TestSnapshot_CRMFailureIsFatal(t *testing.T) {
	svc := NewService(
		&fakeUsage{metrics: &account.UsageMetrics{}},
		&fakeBilling{metrics: &account.CommercialMetrics{}},
		&fakeCRM{err: errors.New("company not found")},
		nil, nil, quietLogger(),
	)

	snap, err := svc.Snapshot(context.Background(), "acct-3", CacheDefault)
	require.Error(t, err)
	assert.Nil(t, snap)
}
