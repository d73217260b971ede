package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/token"
	"github.com/jrsteele09/go-bizadmin-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"

	refreshKey     = "refresh"
	defaultTimeout = 5 * time.Second
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager owns the session and is the only writer of token state.
// At most one refresh call is in flight; concurrent callers share its outcome.
type Manager struct {
	store      token.Store
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger

	mu         sync.RWMutex
	session    Session
	onExpired  []func()
	refreshing singleflight.Group
}

type ManagerOption func(*Manager)

// WithHTTPClient sets the client used for the login and refresh endpoints.
// These calls bypass the 401 interceptor.
func WithHTTPClient(hc *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = hc
	}
}

func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager rehydrates the session from store. A JWT access token seeds the user identity.
func NewManager(store token.Store, baseURL string, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "session").Logger()

	pair, err := token.Load(store)
	if err != nil {
		m.logger.Warn().Err(err).Msg("could not read stored tokens, starting logged out")
		return m
	}
	if pair.AccessToken == "" {
		return m
	}
	m.session = Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         userFromToken(pair.AccessToken),
	}
	return m
}

// Login authenticates and stores the returned tokens. On failure the session is untouched.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*users.User, error) {
	body, err := m.post(ctx, LoginPath, creds)
	if err != nil {
		var httpErr *apierror.HTTPError
		if errors.As(err, &httpErr) && (httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusBadRequest) {
			return nil, fmt.Errorf("login: %w: %w", apierror.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	accessToken := gjson.GetBytes(body, "token").String()
	if accessToken == "" {
		return nil, fmt.Errorf("login: %w: token missing", apierror.ErrInvalidResponse)
	}
	refreshToken := gjson.GetBytes(body, "refreshToken").String()

	var user *users.User
	if raw := gjson.GetBytes(body, "user"); raw.IsObject() {
		var u users.User
		if err := json.Unmarshal([]byte(raw.Raw), &u); err != nil {
			return nil, fmt.Errorf("login: %w: user: %v", apierror.ErrInvalidResponse, err)
		}
		user = &u
	} else {
		user = userFromToken(accessToken)
	}

	m.mu.Lock()
	m.session = Session{AccessToken: accessToken, RefreshToken: refreshToken, User: user}
	m.mu.Unlock()

	if err := token.Save(m.store, token.Pair{AccessToken: accessToken, RefreshToken: refreshToken}); err != nil {
		m.logger.Error().Err(err).Msg("persist tokens after login")
	}
	m.logger.Info().Str("email", creds.Email).Msg("logged in")
	return copyUser(user), nil
}

// Refresh exchanges the refresh token for a new access token. Concurrent calls
// share one network call. Any failure clears the session, purges storage, notifies
// OnExpired listeners and returns apierror.ErrAuthExpired.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, shared := m.refreshing.Do(refreshKey, func() (any, error) {
		// detached so one caller giving up does not fail the others
		return m.refresh(context.WithoutCancel(ctx))
	})
	if shared {
		m.logger.Debug().Msg("joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	refreshToken := m.session.RefreshToken
	m.mu.RUnlock()

	if refreshToken == "" {
		m.expire()
		return "", fmt.Errorf("refresh: %w: no refresh token", apierror.ErrAuthExpired)
	}

	body, err := m.post(ctx, RefreshPath, map[string]string{"refreshToken": refreshToken})
	if err == nil && gjson.GetBytes(body, "token").String() == "" {
		err = fmt.Errorf("%w: token missing", apierror.ErrInvalidResponse)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("token refresh failed, ending session")
		m.expire()
		return "", fmt.Errorf("refresh: %w: %w", apierror.ErrAuthExpired, err)
	}

	accessToken := gjson.GetBytes(body, "token").String()
	rotated := gjson.GetBytes(body, "refreshToken").String()

	m.mu.Lock()
	if m.session.RefreshToken != refreshToken {
		// logged out or logged in again while the call was in flight
		m.mu.Unlock()
		return "", fmt.Errorf("refresh: %w: session changed during refresh", apierror.ErrAuthExpired)
	}
	m.session.AccessToken = accessToken
	if rotated != "" {
		m.session.RefreshToken = rotated
	}
	if m.session.User == nil {
		m.session.User = userFromToken(accessToken)
	}
	m.mu.Unlock()

	if err := token.Save(m.store, token.Pair{AccessToken: accessToken, RefreshToken: rotated}); err != nil {
		m.logger.Error().Err(err).Msg("persist refreshed token")
	}
	m.logger.Debug().Bool("rotated", rotated != "").Msg("access token refreshed")
	return accessToken, nil
}

// Logout clears the session and storage. It always succeeds and is idempotent.
func (m *Manager) Logout() {
	m.clear()
}

// expire ends the session after a terminal refresh failure and notifies listeners.
func (m *Manager) expire() {
	m.clear()

	m.mu.RLock()
	listeners := make([]func(), len(m.onExpired))
	copy(listeners, m.onExpired)
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()

	if err := token.Purge(m.store); err != nil {
		m.logger.Error().Err(err).Msg("purge stored tokens")
	}
}

// OnExpired registers fn to run whenever a refresh fails terminally,
// typically a redirect to the login view.
func (m *Manager) OnExpired(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = append(m.onExpired, fn)
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.AccessToken != ""
}

func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.AccessToken
}

func (m *Manager) CurrentUser() *users.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.session.User)
}

// Snapshot returns a copy of the session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	s.User = copyUser(s.User)
	return s
}

var _ oauth2.TokenSource = (*Manager)(nil)

// Token implements oauth2.TokenSource. An access token whose exp has passed is refreshed first.
func (m *Manager) Token() (*oauth2.Token, error) {
	accessToken := m.AccessToken()
	if accessToken == "" {
		return nil, fmt.Errorf("token: %w", apierror.ErrAuthExpired)
	}
	claims, err := token.ParseClaims(accessToken)
	if err == nil && claims.Expired(NowTimeFunc()) {
		if accessToken, err = m.Refresh(context.Background()); err != nil {
			return nil, err
		}
		claims, err = token.ParseClaims(accessToken)
	}

	t := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	if err == nil {
		t.Expiry = claims.ExpiresAt
	}
	return t, nil
}

func (m *Manager) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", apierror.ErrNetwork, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", apierror.ErrNetwork, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierror.NewHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

func userFromToken(accessToken string) *users.User {
	claims, err := token.ParseClaims(accessToken)
	if err != nil {
		return nil
	}
	return users.FromClaims(claims)
}
