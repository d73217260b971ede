// Package fakeapi is an in-memory implementation of the business-administration
// backend. It backs the integration tests and cmd/fakeapi for local development.
package fakeapi

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	logger    zerolog.Logger
	secret    []byte
	accessTTL time.Duration
	rotate    bool

	lock          sync.RWMutex
	collections   map[string]*collection
	refreshTokens map[string]string // refresh token -> user id
	pods          map[string]storedPOD
	emails        []SentEmail
	generation    int64

	loginCalls   atomic.Int64
	refreshCalls atomic.Int64
	failRefresh  atomic.Bool
	refreshDelay atomic.Int64
}

type ServerOption func(*Server)

func WithLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithEnv sets the environment name; DEV enables route and request logging.
func WithEnv(env string) ServerOption {
	return func(s *Server) {
		s.env = strings.ToUpper(env)
	}
}

// New builds the fake backend and seeds the administrator account from cfg.
func New(cfg config.FakeAPIConfig, opts ...ServerOption) (*Server, error) {
	if cfg.GetJWTSecret() == "" {
		return nil, fmt.Errorf("[fakeapi New] a JWT secret is required")
	}
	s := &Server{
		mux:           http.NewServeMux(),
		logger:        log.Logger,
		secret:        []byte(cfg.GetJWTSecret()),
		accessTTL:     cfg.GetAccessTokenTTL(),
		rotate:        cfg.GetRotateRefreshTokens(),
		collections:   newCollections(),
		refreshTokens: make(map[string]string),
		pods:          make(map[string]storedPOD),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 15 * time.Minute
	}

	if _, err := s.AddUser(cfg.GetAdminEmail(), cfg.GetAdminPassword(), "Administrator", "admin"); err != nil {
		return nil, fmt.Errorf("[fakeapi New] failed to seed the administrator: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Info().Msgf("[%-16s] %s", colourMethod(method), path)
	}
}
