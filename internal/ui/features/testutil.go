// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chartdash/internal/dashboard"
	"github.com/leapstack-labs/chartdash/internal/table"
	"github.com/leapstack-labs/chartdash/internal/testutil"
	"github.com/leapstack-labs/chartdash/internal/ui/notifier"
)

// SampleCSV is a small table with one text and one numeric column.
const SampleCSV = "city,pop\nA,10\nB,20\nC,30\n"

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Registry     *dashboard.Registry
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Logger       *slog.Logger
	SeedPath     string
}

// SetupTestFixture creates a registry wired to a fresh notifier. When seed
// is non-empty it is written to a temp CSV file and every new workspace
// starts with it.
func SetupTestFixture(t *testing.T, seed string) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	notify := notifier.New()

	var seedPath string
	if seed != "" {
		seedPath = filepath.Join(t.TempDir(), "seed.csv")
		require.NoError(t, os.WriteFile(seedPath, []byte(seed), 0600))
	}

	registry, err := dashboard.NewRegistry(dashboard.RegistryConfig{
		Logger:   logger,
		Notifier: notify,
		SeedPath: seedPath,
	})
	require.NoError(t, err)

	return &TestFixture{
		Registry:     registry,
		Notifier:     notify,
		SessionStore: NewTestSessionStore(),
		Logger:       logger,
		SeedPath:     seedPath,
	}
}

// CSVPayload encodes raw CSV text as an upload data URL.
func CSVPayload(csv string) string {
	return table.EncodePayload(table.MIMECSV, []byte(csv))
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout. The context is
// cancelled when the test ends.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
