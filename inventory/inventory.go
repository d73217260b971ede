package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/apiclient"
	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/resource"
)

const (
	BasePath       = "/inventory"
	SoldPath       = "/inventory/sold"
	BulkStatusPath = "/inventory/bulk-update-status"

	// AvailablePageSize is large enough to offer every free roll when building an invoice.
	AvailablePageSize = 1000
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
	StatusDamaged   Status = "damaged"
)

// Item is one fabric roll.
type Item struct {
	resource.Identity
	RollID        string     `json:"rollId"`
	ProductID     string     `json:"productId,omitempty"`
	Type          string     `json:"type,omitempty"`
	Weight        float64    `json:"weight,omitempty"`
	Width         float64    `json:"width,omitempty"`
	Status        Status     `json:"status,omitempty"`
	InvoiceNumber string     `json:"invoiceNumber,omitempty"`
	SoldAt        *time.Time `json:"soldAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt,omitzero"`
	UpdatedAt     time.Time  `json:"updatedAt,omitzero"`
}

// BulkStatus moves a set of rolls to one status, optionally recording the invoice that sold them.
type BulkStatus struct {
	RollIDs       []string `json:"rollIds"`
	Status        Status   `json:"status"`
	InvoiceNumber string   `json:"invoiceNumber,omitempty"`
}

func (b BulkStatus) Validate() error {
	if len(b.RollIDs) == 0 {
		return fmt.Errorf("roll IDs are required")
	}
	if b.Status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

type BulkResult struct {
	UpdatedCount int    `json:"updatedCount"`
	Message      string `json:"message"`
}

// Store is the inventory collection. Listing through FetchForProduct scopes later
// refreshes to that product until ClearProductFilter or a plain FetchList.
type Store struct {
	*resource.Store[Item]
	client resource.Doer

	mu        sync.RWMutex
	productID string
	available []Item
	sold      []Item
	soldTotal int
}

func NewStore(client resource.Doer, opts ...resource.Option) *Store {
	return &Store{
		Store:     resource.New[Item](client, resource.Config{Name: "inventory", BasePath: BasePath}, opts...),
		client:    client,
		available: []Item{},
		sold:      []Item{},
	}
}

// FetchList lists the whole inventory. A productId filter becomes the product context.
func (s *Store) FetchList(ctx context.Context, q resource.Query) error {
	productID, _ := q.Filters["productId"].(string)
	s.setProduct(productID)
	return s.Store.FetchList(ctx, q)
}

// FetchForProduct lists the rolls of one product and remembers it for Refresh.
func (s *Store) FetchForProduct(ctx context.Context, productID string, q resource.Query) error {
	if productID == "" {
		return &apierror.ValidationError{Message: "product ID is required"}
	}
	if s.ProductID() != productID {
		q.Page = 1
	}
	s.setProduct(productID)
	return s.FetchListAt(ctx, productPath(productID), q)
}

// ClearProductFilter drops the product context and lists the first page with defaults.
func (s *Store) ClearProductFilter(ctx context.Context) error {
	return s.FetchList(ctx, resource.Query{Page: 1})
}

// Refresh re-runs the last listing, scoped to the current product if there is one.
func (s *Store) Refresh(ctx context.Context, extra map[string]any) error {
	q := s.RefreshQuery(extra)
	if productID := s.ProductID(); productID != "" {
		return s.FetchListAt(ctx, productPath(productID), q)
	}
	return s.Store.FetchList(ctx, q)
}

func (s *Store) ProductID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productID
}

// FetchAvailableForProduct loads every available roll of a product, ordered by roll id.
// The main collection is left untouched.
func (s *Store) FetchAvailableForProduct(ctx context.Context, productID string) ([]Item, error) {
	if productID == "" {
		return nil, &apierror.ValidationError{Message: "product ID is required"}
	}
	q := resource.Query{Page: 1, PageSize: AvailablePageSize, SortField: "rollId", SortDirection: resource.Ascending}
	var items []Item
	err := s.Do(resource.OpCustom, func() error {
		env, err := s.list(ctx, productPath(productID)+"/available", q.Values())
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.available = []Item{}
			return fmt.Errorf("available inventory for product %s: %w", productID, err)
		}
		s.available = env.Data
		items = append([]Item(nil), env.Data...)
		return nil
	})
	return items, err
}

// FetchByStatus lists the rolls in status. Sold rolls go to the sold list,
// anything else replaces the main collection.
func (s *Store) FetchByStatus(ctx context.Context, status Status) ([]Item, error) {
	if status == "" {
		return nil, &apierror.ValidationError{Message: "status is required"}
	}
	var items []Item
	err := s.Do(resource.OpCustom, func() error {
		env, err := s.list(ctx, resource.JoinPath(BasePath, "status", string(status)), nil)
		if err != nil {
			if status == StatusSold {
				s.mu.Lock()
				s.sold, s.soldTotal = []Item{}, 0
				s.mu.Unlock()
			} else {
				s.ReplaceItems(nil, 0)
			}
			return fmt.Errorf("inventory with status %s: %w", status, err)
		}
		items = env.Data
		if status == StatusSold {
			s.mu.Lock()
			s.sold = append([]Item(nil), env.Data...)
			s.soldTotal = len(env.Data)
			s.mu.Unlock()
			return nil
		}
		s.ReplaceItems(append([]Item(nil), env.Data...), len(env.Data))
		return nil
	})
	return items, err
}

// FetchSold loads one page of sold rolls and returns the total number sold.
func (s *Store) FetchSold(ctx context.Context, page, limit int) ([]Item, int, error) {
	q := resource.Query{Page: max(1, page), PageSize: limit}
	if q.PageSize < 1 {
		q.PageSize = s.Config().DefaultPageSize
	}
	values := q.Values()
	values.Del(resource.ParamSortBy)
	values.Del(resource.ParamSortOrder)

	var (
		items []Item
		total int
	)
	err := s.Do(resource.OpCustom, func() error {
		env, err := s.list(ctx, SoldPath, values)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.sold = []Item{}
			s.soldTotal = 0
			return fmt.Errorf("sold inventory: %w", err)
		}
		s.sold = env.Data
		s.soldTotal = env.Count(len(env.Data))
		items = append([]Item(nil), env.Data...)
		total = s.soldTotal
		return nil
	})
	return items, total, err
}

// FetchByInvoice returns the rolls billed on an invoice without touching any list.
func (s *Store) FetchByInvoice(ctx context.Context, invoiceNumber string) ([]Item, error) {
	if invoiceNumber == "" {
		return nil, &apierror.ValidationError{Message: "invoice number is required"}
	}
	var items []Item
	err := s.Do(resource.OpCustom, func() error {
		env, err := s.list(ctx, resource.JoinPath(BasePath, "invoice", invoiceNumber), nil)
		if err != nil {
			return fmt.Errorf("inventory for invoice %s: %w", invoiceNumber, err)
		}
		items = env.Data
		return nil
	})
	return items, err
}

// BulkUpdateStatus changes the status of many rolls at once, then patches the loaded
// rolls to match: sold rolls get a sale time and invoice, available rolls lose both.
func (s *Store) BulkUpdateStatus(ctx context.Context, update BulkStatus) (BulkResult, error) {
	if err := update.Validate(); err != nil {
		return BulkResult{}, &apierror.ValidationError{Message: err.Error(), Cause: err}
	}
	var result BulkResult
	err := s.Do(resource.OpCustom, func() error {
		req, err := resource.JSONRequest(http.MethodPut, BulkStatusPath, update)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(ctx, req)
		if err == nil {
			err = resource.CheckSuccess(resp.Body)
		}
		if err != nil {
			return fmt.Errorf("bulk status update: %w", err)
		}
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			return fmt.Errorf("bulk status update: %w: %v", apierror.ErrInvalidResponse, err)
		}
		s.PatchItems(statusPatch(update))
		return nil
	})
	return result, err
}

func statusPatch(update BulkStatus) func(*Item) bool {
	ids := make(map[string]struct{}, len(update.RollIDs))
	for _, id := range update.RollIDs {
		ids[id] = struct{}{}
	}
	now := NowTimeFunc()
	return func(item *Item) bool {
		if _, ok := ids[item.RollID]; !ok {
			return false
		}
		item.Status = update.Status
		switch update.Status {
		case StatusSold:
			soldAt := now
			item.SoldAt = &soldAt
			if update.InvoiceNumber != "" {
				item.InvoiceNumber = update.InvoiceNumber
			}
		case StatusAvailable:
			item.SoldAt = nil
			item.InvoiceNumber = ""
		}
		return true
	}
}

func (s *Store) Available() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.available...)
}

func (s *Store) Sold() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.sold...)
}

func (s *Store) SoldTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.soldTotal
}

func (s *Store) setProduct(productID string) {
	s.mu.Lock()
	s.productID = productID
	s.mu.Unlock()
}

func (s *Store) list(ctx context.Context, path string, query url.Values) (resource.Envelope[[]Item], error) {
	resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return resource.Envelope[[]Item]{}, err
	}
	return resource.DecodeList[Item](resp.Body)
}

func productPath(productID string) string {
	return resource.JoinPath(BasePath, "product", productID)
}
