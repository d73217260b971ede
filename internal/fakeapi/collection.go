package fakeapi

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type record = map[string]any

// collection is one in-memory table. Records keep insertion order.
type collection struct {
	name     string
	label    string
	idField  string
	required []string
	unique   string
	items    []record
}

func newCollections() map[string]*collection {
	specs := []*collection{
		{name: CollectionUsers, label: "User", idField: "_id", required: []string{"name", "email"}, unique: "email"},
		{name: CollectionCustomers, label: "Customer", idField: "_id", required: []string{"name"}},
		{name: CollectionProducts, label: "Product", idField: "_id", required: []string{"name"}},
		{name: CollectionBanks, label: "Bank", idField: "_id", required: []string{"bankName"}},
		{name: CollectionTransactions, label: "Transaction", idField: "_id", required: []string{"type"}},
		{name: CollectionInventory, label: "Inventory", idField: "id", required: []string{"rollId"}, unique: "rollId"},
		{name: CollectionInvoices, label: "Invoice", idField: "_id", unique: "invoiceNumber"},
		{name: CollectionTransporters, label: "Transporter", idField: "_id", required: []string{"name"}},
	}
	out := make(map[string]*collection, len(specs))
	for _, c := range specs {
		out[c.name] = c
	}
	return out
}

func (c *collection) indexOf(id string) int {
	for i, rec := range c.items {
		if str(rec[c.idField]) == id {
			return i
		}
	}
	return -1
}

// validate checks required and unique fields; skip is the id being updated.
func (c *collection) validate(rec record, skip string) error {
	for _, field := range c.required {
		if strings.TrimSpace(str(rec[field])) == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	if c.unique == "" || str(rec[c.unique]) == "" {
		return nil
	}
	for _, other := range c.items {
		if str(other[c.idField]) != skip && strings.EqualFold(str(other[c.unique]), str(rec[c.unique])) {
			return fmt.Errorf("%s with this %s already exists", c.label, c.unique)
		}
	}
	return nil
}

func (c *collection) insert(rec record) record {
	now := NowTimeFunc().UTC().Format(time.RFC3339Nano)
	if str(rec[c.idField]) == "" {
		rec[c.idField] = uuid.NewString()
	}
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = now
	}
	rec["updatedAt"] = now
	c.items = append(c.items, rec)
	return rec
}

func (c *collection) update(i int, patch record) record {
	rec := c.items[i]
	for k, v := range patch {
		if k == c.idField || k == "_id" || k == "id" || k == "createdAt" {
			continue
		}
		rec[k] = v
	}
	rec["updatedAt"] = NowTimeFunc().UTC().Format(time.RFC3339Nano)
	return rec
}

func (c *collection) remove(i int) {
	c.items = append(c.items[:i:i], c.items[i+1:]...)
}

type pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

var reservedParams = map[string]bool{"page": true, "limit": true, "sortBy": true, "sortOrder": true, "search": true}

// query filters, sorts and pages records. Unknown params are equality filters,
// minX/maxX bound the numeric field x, search matches any string field.
func query(items []record, q url.Values) ([]record, pagination) {
	matched := make([]record, 0, len(items))
	for _, rec := range items {
		if matches(rec, q) {
			matched = append(matched, rec)
		}
	}

	if field := q.Get("sortBy"); field != "" {
		desc := strings.EqualFold(q.Get("sortOrder"), "desc")
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i][field], matched[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 10)
	total := len(matched)
	p := pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	p.HasNextPage = page < p.TotalPages
	p.HasPrevPage = page > 1

	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return matched[start:end], p
}

func matches(rec record, q url.Values) bool {
	for key, values := range q {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		want := values[0]
		switch {
		case strings.HasPrefix(key, "min") && len(key) > 3:
			if num(rec[lowerFirst(key[3:])]) < num(want) {
				return false
			}
		case strings.HasPrefix(key, "max") && len(key) > 3:
			if num(rec[lowerFirst(key[3:])]) > num(want) {
				return false
			}
		case key == "startDate" || key == "endDate":
			// date ranges only apply to reports
		default:
			if !strings.EqualFold(str(rec[key]), want) {
				return false
			}
		}
	}
	if search := strings.ToLower(strings.TrimSpace(q.Get("search"))); search != "" {
		for _, v := range rec {
			if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), search) {
				return true
			}
		}
		return false
	}
	return true
}

func compare(a, b any) int {
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(str(a)), strings.ToLower(str(b)))
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func num(v any) float64 {
	if f, ok := number(v); ok {
		return f
	}
	if s, ok := v.(string); ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	return 0
}

// number reports v as a float64 when it holds a decoded or seeded number.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func lowerFirst(s string) string {
	return strings.ToLower(s[:1]) + s[1:]
}

// public strips secrets from a record before it leaves the server.
func public(rec record) record {
	out := make(record, len(rec))
	for k, v := range rec {
		if k == "passwordHash" || k == "password" {
			continue
		}
		out[k] = v
	}
	return out
}

func publicAll(recs []record) []record {
	out := make([]record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, public(rec))
	}
	return out
}
