package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/go-bizadmin-client/apiclient"
	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Entity is a record with a stable identifier.
type Entity interface {
	EntityID() string
}

// Identity carries a record identifier. Backends use either "_id" or "id".
type Identity struct {
	ObjectID string `json:"_id,omitempty"`
	ID       string `json:"id,omitempty"`
}

func (i Identity) EntityID() string {
	if i.ObjectID != "" {
		return i.ObjectID
	}
	return i.ID
}

// Doer sends one backend request. *apiclient.Client is the production implementation.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

// Op names an operation for loading bookkeeping.
type Op string

const (
	OpFetchList   Op = "fetchList"
	OpFetchDetail Op = "fetchDetail"
	OpCreate      Op = "create"
	OpUpdate      Op = "update"
	OpRemove      Op = "remove"
	OpCustom      Op = "custom"
)

// Config binds a Store to one REST collection.
type Config struct {
	Name             string
	BasePath         string // detail, update and delete live under BasePath/{id}
	ListPath         string // defaults to BasePath
	CreatePath       string // defaults to BasePath
	UpdateMethod     string // defaults to PUT
	DefaultPageSize  int
	DefaultSort      string
	DefaultDirection Direction
}

type options struct {
	logger   zerolog.Logger
	pageSize int
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDefaultPageSize overrides Config.DefaultPageSize when n is positive.
func WithDefaultPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// Store holds the collection, detail record and query state of one entity type.
// Create, Update and Remove splice the in-memory collection without refetching;
// the server is only reconciled on the next FetchList or Refresh.
type Store[T Entity] struct {
	cfg    Config
	client Doer
	logger zerolog.Logger

	mu          sync.RWMutex
	items       []T
	detail      *T
	total       int
	pagination  *Pagination
	query       Query
	lastApplied *Query
	loading     map[Op]int
	errMsg      string
}

func New[T Entity](client Doer, cfg Config, opts ...Option) *Store[T] {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize > 0 {
		cfg.DefaultPageSize = o.pageSize
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.DefaultSort == "" {
		cfg.DefaultSort = "createdAt"
	}
	if cfg.DefaultDirection == "" {
		cfg.DefaultDirection = Descending
	}
	if cfg.ListPath == "" {
		cfg.ListPath = cfg.BasePath
	}
	if cfg.CreatePath == "" {
		cfg.CreatePath = cfg.BasePath
	}
	if cfg.UpdateMethod == "" {
		cfg.UpdateMethod = http.MethodPut
	}
	if cfg.Name == "" {
		cfg.Name = strings.Trim(cfg.BasePath, "/")
	}

	s := &Store[T]{
		cfg:     cfg,
		client:  client,
		logger:  o.logger.With().Str("store", cfg.Name).Logger(),
		items:   []T{},
		loading: make(map[Op]int),
	}
	s.query = s.normalize(Query{})
	return s
}

func (s *Store[T]) Config() Config {
	return s.cfg
}

// FetchList loads one page from the list endpoint, see FetchListAt.
func (s *Store[T]) FetchList(ctx context.Context, q Query) error {
	return s.FetchListAt(ctx, s.cfg.ListPath, q)
}

// FetchListAt loads one page from path. A filter that differs from the last applied
// query (or the current one before anything has loaded) resets the page to 1. On success the collection, total and pagination are replaced
// and the query is snapshotted for Refresh; on failure the collection and total are cleared.
// Overlapping calls are not serialized: the last response to arrive wins.
func (s *Store[T]) FetchListAt(ctx context.Context, path string, q Query) error {
	return s.run(OpFetchList, func() error {
		q = s.normalize(q)

		s.mu.Lock()
		applied := s.query.Filters
		if s.lastApplied != nil {
			applied = s.lastApplied.Filters
		}
		if !FiltersEqual(applied, q.Filters) {
			q.Page = 1
		}
		s.query = q.Clone()
		s.mu.Unlock()

		resp, err := s.client.Do(ctx, apiclient.Request{
			Method: http.MethodGet,
			Path:   path,
			Query:  q.Values(),
		})
		var env Envelope[[]T]
		if err == nil {
			env, err = DecodeList[T](resp.Body)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.items = []T{}
			s.total = 0
			s.pagination = nil
			return fmt.Errorf("%s list: %w", s.cfg.Name, err)
		}
		s.items = env.Data
		s.total = env.Count(len(env.Data))
		s.pagination = env.Pagination
		snapshot := q.Clone()
		s.lastApplied = &snapshot
		return nil
	})
}

// Refresh re-issues FetchList with the last applied query merged with extra.
func (s *Store[T]) Refresh(ctx context.Context, extra map[string]any) error {
	return s.FetchList(ctx, s.RefreshQuery(extra))
}

// RefreshQuery is the query Refresh would send: the last applied query (or the
// current one when nothing has loaded yet) overlaid with extra, see MergeQuery.
func (s *Store[T]) RefreshQuery(extra map[string]any) Query {
	s.mu.RLock()
	base := s.query
	if s.lastApplied != nil {
		base = *s.lastApplied
	}
	s.mu.RUnlock()
	return MergeQuery(base, extra)
}

// FetchDetail loads one record into the detail slot.
func (s *Store[T]) FetchDetail(ctx context.Context, id string) (T, error) {
	var item T
	err := s.run(OpFetchDetail, func() error {
		resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: s.ItemPath(id)})
		if err != nil {
			if apierror.Status(err) == http.StatusNotFound {
				return fmt.Errorf("%s %s: %w", s.cfg.Name, id, apierror.ErrNotFound)
			}
			return fmt.Errorf("%s detail: %w", s.cfg.Name, err)
		}
		env, err := DecodeItem[T](resp.Body)
		if err != nil {
			return fmt.Errorf("%s %s: %w: %w", s.cfg.Name, id, apierror.ErrNotFound, err)
		}
		item = env.Data

		s.mu.Lock()
		s.detail = &item
		s.mu.Unlock()
		return nil
	})
	return item, err
}

// Create posts payload and appends the created record. A record whose id is
// already present replaces the existing entry instead.
func (s *Store[T]) Create(ctx context.Context, payload any) (T, error) {
	var item T
	err := s.run(OpCreate, func() error {
		env, err := s.mutate(ctx, http.MethodPost, s.cfg.CreatePath, payload)
		if err != nil {
			return mutationError(s.cfg.Name, "create", apierror.ErrCreateFailed, err)
		}
		item = env.Data

		s.mu.Lock()
		defer s.mu.Unlock()
		if i := s.indexOf(item.EntityID()); i >= 0 {
			s.items[i] = item
			return nil
		}
		s.items = append(s.items, item)
		s.total++
		return nil
	})
	return item, err
}

// Update sends payload for id and replaces the matching record in place.
// The detail slot is replaced too when it holds id.
func (s *Store[T]) Update(ctx context.Context, id string, payload any) (T, error) {
	var item T
	err := s.run(OpUpdate, func() error {
		env, err := s.mutate(ctx, s.cfg.UpdateMethod, s.ItemPath(id), payload)
		if err != nil {
			return mutationError(s.cfg.Name, "update", apierror.ErrUpdateFailed, err)
		}
		item = env.Data

		s.mu.Lock()
		defer s.mu.Unlock()
		if i := s.indexOf(id); i >= 0 {
			s.items[i] = item
		}
		if s.detail != nil && (*s.detail).EntityID() == id {
			updated := item
			s.detail = &updated
		}
		return nil
	})
	return item, err
}

// Remove deletes id, drops it from the collection and the detail slot,
// and decrements the total without going below zero.
func (s *Store[T]) Remove(ctx context.Context, id string) error {
	return s.run(OpRemove, func() error {
		resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: s.ItemPath(id)})
		if err != nil {
			return mutationError(s.cfg.Name, "delete", apierror.ErrDeleteFailed, err)
		}
		if len(resp.Body) > 0 {
			if err := CheckSuccess(resp.Body); err != nil {
				return mutationError(s.cfg.Name, "delete", apierror.ErrDeleteFailed, err)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if i := s.indexOf(id); i >= 0 {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
		}
		s.total = max(0, s.total-1)
		if s.detail != nil && (*s.detail).EntityID() == id {
			s.detail = nil
		}
		return nil
	})
}

// Do runs fn as a custom operation with the same loading and error bookkeeping as the built-in ones.
func (s *Store[T]) Do(op Op, fn func() error) error {
	return s.run(op, fn)
}

func (s *Store[T]) mutate(ctx context.Context, method, path string, payload any) (Envelope[T], error) {
	req, err := JSONRequest(method, path, payload)
	if err != nil {
		return Envelope[T]{}, err
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return Envelope[T]{}, err
	}
	return DecodeItem[T](resp.Body)
}

// run clears the error, marks op loading and always clears the mark.
func (s *Store[T]) run(op Op, fn func() error) error {
	s.mu.Lock()
	s.loading[op]++
	s.errMsg = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading[op]--
		s.mu.Unlock()
	}()

	err := fn()
	if err != nil {
		s.mu.Lock()
		s.errMsg = apierror.Message(err)
		s.mu.Unlock()
		s.logger.Debug().Err(err).Str("op", string(op)).Msg("operation failed")
	}
	return err
}

func (s *Store[T]) normalize(q Query) Query {
	q = q.Clone()
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = s.cfg.DefaultPageSize
	}
	if q.SortField == "" {
		q.SortField = s.cfg.DefaultSort
	}
	if q.SortDirection == "" {
		q.SortDirection = s.cfg.DefaultDirection
	}
	if q.Filters == nil {
		q.Filters = map[string]any{}
	}
	return q
}

// indexOf must be called with s.mu held.
func (s *Store[T]) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range s.items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

// ItemPath is BasePath/{id} with id escaped.
func (s *Store[T]) ItemPath(id string, sub ...string) string {
	return JoinPath(s.cfg.BasePath, append([]string{id}, sub...)...)
}

// JoinPath appends escaped segments to base.
func JoinPath(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

// JSONRequest builds a request carrying payload as JSON.
func JSONRequest(method, path string, payload any) (apiclient.Request, error) {
	req := apiclient.Request{Method: method, Path: path}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	req.Body = data
	req.ContentType = "application/json"
	return req, nil
}

// mutationError keeps a server-provided message as a ValidationError and otherwise
// wraps cause with the generic failure sentinel.
func mutationError(name, verb string, sentinel, cause error) error {
	var validationErr *apierror.ValidationError
	if errors.As(cause, &validationErr) {
		return fmt.Errorf("%s %s: %w", name, verb, cause)
	}
	if errors.Is(cause, apierror.ErrAuthExpired) || errors.Is(cause, apierror.ErrNetwork) {
		return fmt.Errorf("%s %s: %w: %w", name, verb, sentinel, cause)
	}
	var httpErr *apierror.HTTPError
	if errors.As(cause, &httpErr) && httpErr.Message != "" {
		return &apierror.ValidationError{Message: httpErr.Message, Cause: fmt.Errorf("%w: %w", sentinel, cause)}
	}
	var rejected *RejectedError
	if errors.As(cause, &rejected) && rejected.Message != "" {
		return &apierror.ValidationError{Message: rejected.Message, Cause: fmt.Errorf("%w: %w", sentinel, cause)}
	}
	return fmt.Errorf("%s %s: %w: %w", name, verb, sentinel, cause)
}
