package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientpulse/clientpulse-backend-go/internal/config"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestClient(t *testing.T, url string, preferRest bool) *Client {
	t.Helper()
	c, err := NewClient(config.SupabaseConfig{
		Enabled:    true,
		URL:        url,
		APIKey:     "test-key",
		PreferRest: preferRest,
	}, quietLogger())
	require.NoError(t, err)
	return c
}

func TestFetchUsage_RestPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/rest/v1/usage_metrics", r.URL.Path)
		assert.Equal(t, "eq.acct-1", r.URL.Query().Get("account_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"account_id":"acct-1","item_count":42,"active_users":7,"total_users":10,"days_since_last_activity":2,"weekly_activity":[10,12,14,16]}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true)
	got, err := c.FetchUsage(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.ItemCount)
	assert.Equal(t, 7, got.ActiveUsers)
	assert.Len(t, got.WeeklyActivity, 4)
}

func TestFetchUsage_FallsBackToRPC(t *testing.T) {
	rpcCalled := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/usage_metrics":
			http.Error(w, "view not found", http.StatusNotFound)
		case "/rest/v1/rpc/get_account_usage":
			rpcCalled = true
			assert.Equal(t, http.MethodPost, r.Method)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"account_id":"acct-1","item_count":5}`))
		default:
			http.Error(w, "unexpected path", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true)
	got, err := c.FetchUsage(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.True(t, rpcCalled)
	assert.Equal(t, 5, got.ItemCount)
}

func TestFetchUsage_RPCPreferred(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/rest/v1/rpc/get_account_usage" {
			w.Write([]byte(`{"account_id":"acct-1","item_count":9}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, false)
	got, err := c.FetchUsage(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.ItemCount)
	require.NotEmpty(t, paths)
	assert.Equal(t, "/rest/v1/rpc/get_account_usage", paths[0])
}

func TestFetchUsage_BothPathsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, true)
	_, err := c.FetchUsage(context.Background(), "acct-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both usage query paths failed")
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(config.SupabaseConfig{Enabled: true}, quietLogger())
	assert.Error(t, err)
}
