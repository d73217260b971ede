package app_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/app"
	"github.com/jrsteele09/go-bizadmin-client/customers"
	"github.com/jrsteele09/go-bizadmin-client/internal/config"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/jrsteele09/go-bizadmin-client/routeguard"
	"github.com/jrsteele09/go-bizadmin-client/sessions"
	"github.com/jrsteele09/go-bizadmin-client/token"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type harness struct {
	fake      *fakeapi.Server
	cfg       config.Config
	tokenFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake, err := fakeapi.New(config.New(), fakeapi.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	tokenFile := filepath.Join(t.TempDir(), "tokens.json")
	t.Setenv("BIZADMIN_API_BASEURL", server.URL)
	t.Setenv("BIZADMIN_STORAGE_TOKENFILE", tokenFile)
	return &harness{fake: fake, cfg: config.New(), tokenFile: tokenFile}
}

func (h *harness) app(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(h.cfg, app.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return a
}

func login(t *testing.T, a *app.App) {
	t.Helper()
	_, err := a.Session.Login(context.Background(), sessions.Credentials{
		Email:    a.Config.GetAdminEmail(),
		Password: a.Config.GetAdminPassword(),
	})
	require.NoError(t, err)
}

func TestApp_LoginPersistsAndRestores(t *testing.T) {
	h := newHarness(t)
	a := h.app(t)

	require.Equal(t, routeguard.RedirectToLogin, a.Navigate("/customer").Action)
	login(t, a)
	require.Equal(t, routeguard.Proceed, a.Navigate("/customer").Action)
	require.Equal(t, routeguard.RedirectToLanding, a.Navigate("/").Action)

	pair, err := token.Load(a.Tokens)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	info, err := os.Stat(h.tokenFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := h.app(t)
	require.True(t, restored.Session.IsAuthenticated())
	require.Equal(t, a.Config.GetAdminEmail(), restored.Session.CurrentUser().Email)
}

func TestApp_RefreshOnceForConcurrentRequests(t *testing.T) {
	h := newHarness(t)
	a := h.app(t)
	login(t, a)
	h.fake.Seed(fakeapi.CollectionCustomers, map[string]any{"name": "Acme"})

	h.fake.ExpireAccessTokens()
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Client.Get(ctx, customers.BasePath, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, h.fake.RefreshCalls())
	require.True(t, a.Session.IsAuthenticated())

	count, err := testutil.GatherAndCount(a.Registry, "bizadmin_client_auth_token_refresh_total")
	require.NoError(t, err)
	require.Positive(t, count)
}

func TestApp_ExpiredSessionRedirects(t *testing.T) {
	h := newHarness(t)
	a := h.app(t)
	login(t, a)

	var notified atomic.Int32
	a.OnExpired(func() { notified.Add(1) })

	h.fake.ExpireAccessTokens()
	h.fake.FailRefresh(true)

	err := a.Customers.FetchList(context.Background(), resource.Query{})
	require.ErrorIs(t, err, apierror.ErrAuthExpired)
	require.Equal(t, "Authentication failed. Please login again.", a.Customers.Err())
	require.EqualValues(t, 1, notified.Load())
	require.False(t, a.Session.IsAuthenticated())
	require.Equal(t, routeguard.RedirectToLogin, a.Navigate("/inventory").Action)

	_, err = os.Stat(h.tokenFile)
	require.True(t, os.IsNotExist(err))
}

func TestApp_Collections(t *testing.T) {
	h := newHarness(t)
	a := h.app(t)
	login(t, a)
	ids := h.fake.Seed(fakeapi.CollectionBanks, map[string]any{"bankName": "State Bank"}, map[string]any{"bankName": "City Bank"})

	banks, ok := a.Collections()["banks"]
	require.True(t, ok)
	_, total, err := banks.List(context.Background(), resource.Query{})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	detail, err := banks.Detail(context.Background(), ids[0])
	require.NoError(t, err)
	require.NotNil(t, detail)

	require.NoError(t, banks.Remove(context.Background(), ids[0]))
	require.Equal(t, 1, h.fake.Count(fakeapi.CollectionBanks))
	require.Len(t, a.CollectionNames(), 8)
}

func TestApp_RouteTableFromFile(t *testing.T) {
	newHarness(t)
	file := filepath.Join(t.TempDir(), "routes.yaml")
	data, err := routeguard.DefaultTable().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o600))
	t.Setenv("BIZADMIN_STORAGE_ROUTETABLE", file)

	a, err := app.New(config.New(), app.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.Equal(t, routeguard.DefaultTable(), a.Guard.Table())

	t.Setenv("BIZADMIN_STORAGE_ROUTETABLE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = app.New(config.New(), app.WithLogger(zerolog.Nop()))
	require.Error(t, err)
}
