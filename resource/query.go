package resource

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Query parameter names understood by the backend list endpoints
const (
	ParamPage      = "page"
	ParamLimit     = "limit"
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Query is the pagination, sort and filter state of a list view.
type Query struct {
	Page          int
	PageSize      int
	SortField     string
	SortDirection Direction
	Filters       map[string]any
}

// Clone returns a copy whose Filters map can be modified independently.
func (q Query) Clone() Query {
	c := q
	if q.Filters != nil {
		c.Filters = make(map[string]any, len(q.Filters))
		for k, v := range q.Filters {
			c.Filters[k] = v
		}
	}
	return c
}

// Values encodes q with its filters. Empty filters are dropped, see EncodeFilters.
func (q Query) Values() url.Values {
	values := EncodeFilters(q.Filters)
	values.Set(ParamPage, strconv.Itoa(q.Page))
	values.Set(ParamLimit, strconv.Itoa(q.PageSize))
	if q.SortField != "" {
		values.Set(ParamSortBy, q.SortField)
	}
	if q.SortDirection != "" {
		values.Set(ParamSortOrder, string(q.SortDirection))
	}
	return values
}

// FiltersEqual reports whether two filter maps encode to the same query.
// A key holding an empty value is the same as an absent key.
func FiltersEqual(a, b map[string]any) bool {
	return reflect.DeepEqual(EncodeFilters(a), EncodeFilters(b))
}

// EncodeFilters turns a filter map into query values.
// nil, nil pointers and blank strings are dropped; 0 and false are kept.
func EncodeFilters(filters map[string]any) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, s := range filterStrings(filters[k]) {
			values.Add(k, s)
		}
	}
	return values
}

func filterStrings(v any) []string {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		return filterStrings(rv.Elem().Interface())
	}

	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return []string{t.Format(time.RFC3339)}
	case fmt.Stringer:
		return filterStrings(t.String())
	case bool:
		return []string{strconv.FormatBool(t)}
	case int:
		return []string{strconv.Itoa(t)}
	case int64:
		return []string{strconv.FormatInt(t, 10)}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, filterStrings(rv.Index(i).Interface())...)
		}
		return out
	case reflect.String:
		return filterStrings(rv.String())
	}
	return []string{fmt.Sprint(v)}
}

// MergeQuery overlays extra onto base. The keys page, limit, sortBy and sortOrder
// set the matching Query fields; every other key is merged into Filters.
func MergeQuery(base Query, extra map[string]any) Query {
	q := base.Clone()
	if q.Filters == nil {
		q.Filters = make(map[string]any)
	}
	for k, v := range extra {
		switch k {
		case ParamPage:
			if n, ok := toInt(v); ok {
				q.Page = n
			}
		case ParamLimit:
			if n, ok := toInt(v); ok {
				q.PageSize = n
			}
		case ParamSortBy:
			if s, ok := v.(string); ok {
				q.SortField = s
			}
		case ParamSortOrder:
			switch d := v.(type) {
			case Direction:
				q.SortDirection = d
			case string:
				q.SortDirection = Direction(strings.ToLower(d))
			}
		default:
			q.Filters[k] = v
		}
	}
	return q
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}
