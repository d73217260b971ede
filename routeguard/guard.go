package routeguard

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Authenticator reports whether a session holds an access token.
// *sessions.Manager satisfies it.
type Authenticator interface {
	IsAuthenticated() bool
}

type Action int

const (
	Proceed Action = iota
	RedirectToLogin
	RedirectToLanding
)

func (a Action) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case RedirectToLogin:
		return "redirect-login"
	case RedirectToLanding:
		return "redirect-landing"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Decision is the outcome of one navigation check. Route is the matched
// route (zero when nothing matched); Target is where to go instead when
// Action is a redirect.
type Decision struct {
	Action Action
	Route  Route
	Params map[string]string
	Target Route
}

// Guard gates navigation on the presence of a session token. It never touches the network.
type Guard struct {
	table  Table
	auth   Authenticator
	logger zerolog.Logger
}

type GuardOption func(*Guard)

func WithLogger(l zerolog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = l
	}
}

func New(table Table, auth Authenticator, opts ...GuardOption) (*Guard, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	g := &Guard{table: table, auth: auth, logger: log.Logger}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Guard) Table() Table {
	return g.table
}

// Check decides a navigation to path. Protected routes need a session; the login
// route sends an authenticated user to the landing route; everything else proceeds.
func (g *Guard) Check(path string) Decision {
	route, params, _ := g.table.Match(path)
	d := Decision{Action: Proceed, Route: route, Params: params}

	switch {
	case route.RequiresAuth && !g.auth.IsAuthenticated():
		d.Action = RedirectToLogin
		d.Target, _ = g.table.Lookup(g.table.Login)
		g.logger.Warn().Str("path", path).Msg("access denied: no token, redirecting to login")
	case route.Name == g.table.Login && g.auth.IsAuthenticated():
		d.Action = RedirectToLanding
		d.Target, _ = g.table.Lookup(g.table.Landing)
		g.logger.Debug().Str("path", path).Msg("already logged in, redirecting to landing")
	}
	return d
}

// Allowed reports whether path can be entered without a redirect.
func (g *Guard) Allowed(path string) bool {
	return g.Check(path).Action == Proceed
}
