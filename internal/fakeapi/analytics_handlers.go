package fakeapi

import (
	"net/http"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// recordTime is the business date of a record: its sale, invoice or creation time.
func recordTime(rec record) time.Time {
	for _, field := range []string{"soldAt", "invoiceDate", "date", "createdAt"} {
		raw := str(rec[field])
		if raw == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, dateLayout} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// filterByDate keeps the records dated within the startDate/endDate query, both inclusive.
func filterByDate(items []record, r *http.Request) []record {
	q := r.URL.Query()
	start, errStart := time.Parse(dateLayout, q.Get("startDate"))
	end, errEnd := time.Parse(dateLayout, q.Get("endDate"))
	out := make([]record, 0, len(items))
	for _, rec := range items {
		t := recordTime(rec)
		if errStart == nil && t.Before(start) {
			continue
		}
		if errEnd == nil && !t.Before(end.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

type bucket struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Weight float64 `json:"totalWeight"`
	Amount float64 `json:"totalAmount"`
}

func groupBy(items []record, key func(record) string) []bucket {
	index := map[string]*bucket{}
	for _, rec := range items {
		k := key(rec)
		b, ok := index[k]
		if !ok {
			b = &bucket{Key: k}
			index[k] = b
		}
		b.Count++
		b.Weight += num(rec["weight"])
		b.Amount += num(rec["totalAmount"])
	}
	out := make([]bucket, 0, len(index))
	for _, b := range index {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func byField(field string) func(record) string {
	return func(rec record) string { return str(rec[field]) }
}

func byMonth(rec record) string {
	return recordTime(rec).Format("2006-01")
}

// AnalyticsHandler computes the named report over sold rolls and invoices in the requested date range.
func (s *Server) AnalyticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.RLock()
		sold := filterByDate(soldRolls(s.collections[CollectionInventory].items), r)
		invoices := filterByDate(s.collections[CollectionInvoices].items, r)
		s.lock.RUnlock()

		var data any
		switch r.PathValue("kind") {
		case "quantity-by-width", "width-distribution":
			data = groupBy(sold, byField("width"))
		case "product-sales":
			data = groupBy(sold, byField("productId"))
		case "average-sale-cost":
			total, count := 0.0, len(invoices)
			for _, inv := range invoices {
				total += num(inv["totalAmount"])
			}
			average := 0.0
			if count > 0 {
				average = total / float64(count)
			}
			data = map[string]any{"averageSaleCost": average, "totalAmount": total, "invoiceCount": count}
		case "monthly-dashboard", "sales-trends":
			data = groupBy(invoices, byMonth)
		case "top-products":
			buckets := groupBy(sold, byField("productId"))
			sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Weight > buckets[j].Weight })
			data = buckets[:min(len(buckets), 10)]
		case "customer-patterns":
			data = groupBy(invoices, func(rec record) string {
				if customer, ok := rec["customer"].(map[string]any); ok {
					return str(customer["name"])
				}
				return ""
			})
		case "dashboard":
			data = s.dashboard()
		default:
			writeError(w, http.StatusNotFound, "Unknown report")
			return
		}
		writeData(w, http.StatusOK, data)
	}
}

func (s *Server) DashboardStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, s.dashboard())
	}
}

func (s *Server) dashboard() map[string]any {
	s.lock.RLock()
	defer s.lock.RUnlock()
	counts := map[string]int{}
	for _, rec := range s.collections[CollectionInventory].items {
		counts[str(rec["status"])]++
	}
	revenue := 0.0
	for _, inv := range s.collections[CollectionInvoices].items {
		revenue += num(inv["totalAmount"])
	}
	return map[string]any{
		"totalCustomers":    len(s.collections[CollectionCustomers].items),
		"totalProducts":     len(s.collections[CollectionProducts].items),
		"totalInvoices":     len(s.collections[CollectionInvoices].items),
		"totalRevenue":      revenue,
		"availableRolls":    counts["available"],
		"soldRolls":         counts["sold"],
		"totalTransporters": len(s.collections[CollectionTransporters].items),
	}
}

func soldRolls(items []record) []record {
	var out []record
	for _, rec := range items {
		if str(rec["status"]) == "sold" {
			out = append(out, rec)
		}
	}
	return out
}
