// Package fakeapitest starts the fake backend for tests and returns a client
// signed in as the seeded administrator.
package fakeapitest

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/apiclient"
	"github.com/jrsteele09/go-bizadmin-client/internal/config"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi"
	"github.com/jrsteele09/go-bizadmin-client/sessions"
	"github.com/jrsteele09/go-bizadmin-client/token/storefake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type Env struct {
	Fake    *fakeapi.Server
	Server  *httptest.Server
	Session *sessions.Manager
	Client  *apiclient.Client
	Config  config.Config
}

// Start runs a fake backend for the life of the test. When login is true the
// session is signed in as the administrator before Start returns.
func Start(t *testing.T, login bool) *Env {
	t.Helper()
	cfg := config.New()
	fake, err := fakeapi.New(cfg, fakeapi.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	session := sessions.NewManager(storefake.NewFakeTokenStore(), server.URL, sessions.WithLogger(zerolog.Nop()))
	client := apiclient.New(server.URL, session, apiclient.WithLogger(zerolog.Nop()))
	env := &Env{Fake: fake, Server: server, Session: session, Client: client, Config: cfg}
	if login {
		env.Login(t)
	}
	return env
}

func (e *Env) Login(t *testing.T) {
	t.Helper()
	_, err := e.Session.Login(context.Background(), sessions.Credentials{
		Email:    e.Config.GetAdminEmail(),
		Password: e.Config.GetAdminPassword(),
	})
	require.NoError(t, err)
}
