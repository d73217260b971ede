package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-bizadmin-client/apiclient"
	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/tidwall/gjson"
)

const (
	BasePath           = "/analytics"
	DashboardStatsPath = "/dashboard/stats"
)

// Kind names one report under /analytics.
type Kind string

const (
	QuantityByWidth   Kind = "quantity-by-width"
	ProductSales      Kind = "product-sales"
	AverageSaleCost   Kind = "average-sale-cost"
	MonthlyDashboard  Kind = "monthly-dashboard"
	TopProducts       Kind = "top-products"
	CustomerPatterns  Kind = "customer-patterns"
	WidthDistribution Kind = "width-distribution"
	SalesTrends       Kind = "sales-trends"
	Dashboard         Kind = "dashboard"
)

// Kinds lists every report in display order.
var Kinds = []Kind{
	QuantityByWidth, ProductSales, AverageSaleCost, MonthlyDashboard, TopProducts,
	CustomerPatterns, WidthDistribution, SalesTrends, Dashboard,
}

// Report is a report response kept as raw JSON; its shape differs per kind.
type Report struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// Get reads a gjson path from the report data.
func (r Report) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Data, path)
}

// Decode unmarshals the report data into v.
func (r Report) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("%w: report has no data", apierror.ErrInvalidResponse)
	}
	return json.Unmarshal(r.Data, v)
}

// Service fetches reports and keeps the latest of each kind.
type Service struct {
	client resource.Doer

	mu      sync.RWMutex
	reports map[Kind]Report
	stats   map[string]any
}

func NewService(client resource.Doer) *Service {
	return &Service{client: client, reports: make(map[Kind]Report)}
}

// Fetch loads one report. Empty filter values are left out of the query.
func (s *Service) Fetch(ctx context.Context, kind Kind, filters map[string]any) (Report, error) {
	body, err := s.get(ctx, BasePath+"/"+string(kind), filters)
	if err != nil {
		return Report{}, fmt.Errorf("analytics %s: %w", kind, err)
	}
	var r Report
	if err := json.Unmarshal(body, &r); err != nil {
		return Report{}, fmt.Errorf("analytics %s: %w: %v", kind, apierror.ErrInvalidResponse, err)
	}
	s.mu.Lock()
	s.reports[kind] = r
	s.mu.Unlock()
	return r, nil
}

func (s *Service) QuantityByWidth(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, QuantityByWidth, filters)
}

func (s *Service) ProductSales(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, ProductSales, filters)
}

func (s *Service) AverageSaleCost(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, AverageSaleCost, filters)
}

func (s *Service) MonthlyDashboard(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, MonthlyDashboard, filters)
}

func (s *Service) TopProducts(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, TopProducts, filters)
}

func (s *Service) CustomerPatterns(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, CustomerPatterns, filters)
}

func (s *Service) WidthDistribution(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, WidthDistribution, filters)
}

func (s *Service) SalesTrends(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, SalesTrends, filters)
}

func (s *Service) Dashboard(ctx context.Context, filters map[string]any) (Report, error) {
	return s.Fetch(ctx, Dashboard, filters)
}

// Last is the most recent report of kind.
func (s *Service) Last(kind Kind) (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[kind]
	return r, ok
}

// DashboardStats loads the landing page counters. The body is kept whole.
func (s *Service) DashboardStats(ctx context.Context) (map[string]any, error) {
	body, err := s.get(ctx, DashboardStatsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	stats := make(map[string]any)
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w: %v", apierror.ErrInvalidResponse, err)
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	return stats, nil
}

func (s *Service) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out
}

func (s *Service) get(ctx context.Context, path string, filters map[string]any) ([]byte, error) {
	resp, err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  resource.EncodeFilters(filters),
	})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("%w: body is not JSON", apierror.ErrInvalidResponse)
	}
	if gjson.GetBytes(resp.Body, "success").Type == gjson.False {
		return nil, &resource.RejectedError{Message: gjson.GetBytes(resp.Body, "message").String()}
	}
	return resp.Body, nil
}
