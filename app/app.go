// Package app wires configuration, the token store, the session, the API client
// and every domain store into one value used by the commands.
package app

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-bizadmin-client/analytics"
	"github.com/jrsteele09/go-bizadmin-client/apiclient"
	"github.com/jrsteele09/go-bizadmin-client/banks"
	"github.com/jrsteele09/go-bizadmin-client/customers"
	"github.com/jrsteele09/go-bizadmin-client/internal/config"
	"github.com/jrsteele09/go-bizadmin-client/internal/metrics"
	"github.com/jrsteele09/go-bizadmin-client/inventory"
	"github.com/jrsteele09/go-bizadmin-client/invoices"
	"github.com/jrsteele09/go-bizadmin-client/products"
	"github.com/jrsteele09/go-bizadmin-client/purchaseorders"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/jrsteele09/go-bizadmin-client/routeguard"
	"github.com/jrsteele09/go-bizadmin-client/sessions"
	"github.com/jrsteele09/go-bizadmin-client/token"
	"github.com/jrsteele09/go-bizadmin-client/transactions"
	"github.com/jrsteele09/go-bizadmin-client/transporters"
	"github.com/jrsteele09/go-bizadmin-client/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config   config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Tokens   token.Store
	Session  *sessions.Manager
	Client   *apiclient.Client
	Guard    *routeguard.Guard

	Users          *users.Store
	Customers      *customers.Store
	Products       *products.Store
	Banks          *banks.Store
	Transactions   *transactions.Store
	Inventory      *inventory.Store
	Invoices       *invoices.Store
	Transporters   *transporters.Store
	PurchaseOrders *purchaseorders.Sender
	Analytics      *analytics.Service

	mu        sync.Mutex
	onExpired []func()
}

type Option func(*options)

type options struct {
	logger zerolog.Logger
	tokens token.Store
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTokenStore replaces the file-backed token store named by the configuration.
func WithTokenStore(s token.Store) Option {
	return func(o *options) {
		o.tokens = s
	}
}

// New builds the application from cfg. A stored session is restored from the token store.
func New(cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	if o.tokens == nil {
		fileStore, err := token.NewFileStore(cfg.GetTokenFile())
		if err != nil {
			return nil, fmt.Errorf("[app New] token store: %w", err)
		}
		o.tokens = fileStore
	}

	table := routeguard.DefaultTable()
	if file := cfg.GetRouteTableFile(); file != "" {
		loaded, err := routeguard.LoadTable(file)
		if err != nil {
			return nil, fmt.Errorf("[app New] route table: %w", err)
		}
		table = loaded
	}

	a := &App{
		Config:   cfg,
		Logger:   o.logger,
		Registry: prometheus.NewRegistry(),
		Tokens:   o.tokens,
	}

	a.Session = sessions.NewManager(o.tokens, cfg.GetBaseURL(),
		sessions.WithTimeout(cfg.GetRequestTimeout()),
		sessions.WithLogger(o.logger),
	)
	a.Session.OnExpired(a.expired)

	a.Client = apiclient.New(cfg.GetBaseURL(), a.Session,
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
		apiclient.WithRateLimit(cfg.GetRateLimit(), cfg.GetRateBurst()),
		apiclient.WithMetrics(metrics.New(a.Registry)),
		apiclient.WithLogger(o.logger),
	)

	guard, err := routeguard.New(table, a.Session, routeguard.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("[app New] route guard: %w", err)
	}
	a.Guard = guard

	storeOpts := []resource.Option{
		resource.WithLogger(o.logger),
		resource.WithDefaultPageSize(cfg.GetDefaultPageSize()),
	}
	a.Users = users.NewStore(a.Client, storeOpts...)
	a.Customers = customers.NewStore(a.Client, storeOpts...)
	a.Products = products.NewStore(a.Client, storeOpts...)
	a.Banks = banks.NewStore(a.Client, storeOpts...)
	a.Transactions = transactions.NewStore(a.Client, storeOpts...)
	a.Inventory = inventory.NewStore(a.Client, storeOpts...)
	a.Invoices = invoices.NewStore(a.Client, cfg.GetUploadTimeout(), storeOpts...)
	a.Transporters = transporters.NewStore(a.Client, storeOpts...)
	a.PurchaseOrders = purchaseorders.NewSender(a.Client, purchaseorders.WithLogger(o.logger))
	a.Analytics = analytics.NewService(a.Client)

	return a, nil
}

// OnExpired registers fn to run after the session expires and the user must sign in again.
func (a *App) OnExpired(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onExpired = append(a.onExpired, fn)
}

func (a *App) expired() {
	a.Logger.Warn().Str("redirect", a.Guard.Table().Login).Msg("session expired, sign in again")
	a.mu.Lock()
	listeners := append([]func(){}, a.onExpired...)
	a.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Navigate applies the route guard to path.
func (a *App) Navigate(path string) routeguard.Decision {
	return a.Guard.Check(path)
}

// Collections returns the generic collection stores keyed by name, for commands
// that work on any collection.
func (a *App) Collections() map[string]Collection {
	return map[string]Collection{
		"users":        collectionOf[users.User](a.Users),
		"customers":    collectionOf[customers.Customer](a.Customers),
		"products":     collectionOf[products.Product](a.Products),
		"banks":        collectionOf[banks.Bank](a.Banks),
		"transactions": collectionOf[transactions.Transaction](a.Transactions),
		"inventory":    collectionOf[inventory.Item](a.Inventory),
		"invoices":     collectionOf[invoices.Invoice](a.Invoices),
		"transporters": collectionOf[transporters.Transporter](a.Transporters),
	}
}
