package resource_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/internal/utils"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/stretchr/testify/require"
)

func TestEncodeFilters_ZeroKeptEmptyDropped(t *testing.T) {
	values := resource.EncodeFilters(map[string]any{
		"status":    "",
		"type":      "cotton",
		"minWeight": 0,
	})

	require.Equal(t, "cotton", values.Get("type"))
	require.Equal(t, "0", values.Get("minWeight"))
	_, hasStatus := values["status"]
	require.False(t, hasStatus)
	require.Equal(t, "minWeight=0&type=cotton", values.Encode())
}

func TestEncodeFilters_Kinds(t *testing.T) {
	var nilString *string
	values := resource.EncodeFilters(map[string]any{
		"nilValue":  nil,
		"nilPtr":    nilString,
		"blank":     "   ",
		"trimmed":   "  roll-7 ",
		"active":    false,
		"width":     utils.Ptr(60),
		"ratio":     1.5,
		"rollIds":   []string{"R1", "", "R2"},
		"direction": resource.Ascending,
	})

	require.Equal(t, url.Values{
		"trimmed":   {"roll-7"},
		"active":    {"false"},
		"width":     {"60"},
		"ratio":     {"1.5"},
		"rollIds":   {"R1", "R2"},
		"direction": {"asc"},
	}, values)
}

func TestFiltersEqual(t *testing.T) {
	require.True(t, resource.FiltersEqual(nil, map[string]any{"status": ""}))
	require.True(t, resource.FiltersEqual(map[string]any{"minWeight": 0}, map[string]any{"minWeight": "0"}))
	require.False(t, resource.FiltersEqual(map[string]any{"minWeight": 0}, nil))
	require.False(t, resource.FiltersEqual(map[string]any{"type": "cotton"}, map[string]any{"type": "silk"}))
}

func TestQueryValues(t *testing.T) {
	q := resource.Query{
		Page:          2,
		PageSize:      25,
		SortField:     "rollId",
		SortDirection: resource.Ascending,
		Filters:       map[string]any{"search": "cotton", "status": nil},
	}
	require.Equal(t, "limit=25&page=2&search=cotton&sortBy=rollId&sortOrder=asc", q.Values().Encode())
}

func TestMergeQuery(t *testing.T) {
	base := resource.Query{Page: 3, PageSize: 10, SortField: "createdAt", SortDirection: resource.Descending,
		Filters: map[string]any{"search": "cotton"}}

	merged := resource.MergeQuery(base, map[string]any{
		"page":      "1",
		"limit":     50,
		"sortOrder": "ASC",
		"status":    "available",
	})

	require.Equal(t, 1, merged.Page)
	require.Equal(t, 50, merged.PageSize)
	require.Equal(t, resource.Ascending, merged.SortDirection)
	require.Equal(t, "cotton", merged.Filters["search"])
	require.Equal(t, "available", merged.Filters["status"])
	require.NotContains(t, base.Filters, "status", "base is not modified")
}
