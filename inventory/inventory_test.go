package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi/fakeapitest"
	"github.com/jrsteele09/go-bizadmin-client/inventory"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func seedRolls(env *fakeapitest.Env) {
	env.Fake.Seed(fakeapi.CollectionInventory,
		map[string]any{"rollId": "R-003", "productId": "p1", "status": "available", "weight": 21.5, "width": 60},
		map[string]any{"rollId": "R-001", "productId": "p1", "status": "available", "weight": 20, "width": 60},
		map[string]any{"rollId": "R-002", "productId": "p1", "status": "damaged", "weight": 18, "width": 44},
		map[string]any{"rollId": "R-101", "productId": "p2", "status": "available", "weight": 30, "width": 58},
		map[string]any{"rollId": "R-102", "productId": "p2", "status": "sold", "weight": 31, "width": 58, "invoiceNumber": "INV-7", "soldAt": "2024-04-02T09:00:00Z"},
	)
}

func newStore(t *testing.T) (*inventory.Store, *fakeapitest.Env) {
	t.Helper()
	env := fakeapitest.Start(t, true)
	seedRolls(env)
	return inventory.NewStore(env.Client, resource.WithLogger(zerolog.Nop())), env
}

func rollIDs(items []inventory.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.RollID)
	}
	return out
}

func TestFetchForProduct(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.FetchForProduct(ctx, "p1", resource.Query{SortField: "rollId", SortDirection: resource.Ascending}))
	require.Equal(t, "p1", store.ProductID())
	require.Equal(t, []string{"R-001", "R-002", "R-003"}, rollIDs(store.Items()))
	require.Equal(t, 3, store.Total())
	require.NotEmpty(t, store.Items()[0].ID)

	// Refresh stays scoped to the product
	require.NoError(t, store.Refresh(ctx, nil))
	require.Equal(t, 3, store.Total())

	require.NoError(t, store.FetchForProduct(ctx, "p2", resource.Query{Page: 4}))
	require.Equal(t, 1, store.Query().Page)
	require.Equal(t, 2, store.Total())

	require.NoError(t, store.ClearProductFilter(ctx))
	require.Empty(t, store.ProductID())
	require.Equal(t, 5, store.Total())

	err := store.FetchForProduct(ctx, "", resource.Query{})
	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestFetchAvailableForProduct(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.FetchList(ctx, resource.Query{}))

	items, err := store.FetchAvailableForProduct(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"R-001", "R-003"}, rollIDs(items))
	require.Equal(t, items, store.Available())
	require.Equal(t, 5, store.Len(), "main collection is untouched")
}

func TestFetchByStatus(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	sold, err := store.FetchByStatus(ctx, inventory.StatusSold)
	require.NoError(t, err)
	require.Equal(t, []string{"R-102"}, rollIDs(sold))
	require.Equal(t, 1, store.SoldTotal())
	require.Equal(t, 0, store.Len())

	damaged, err := store.FetchByStatus(ctx, inventory.StatusDamaged)
	require.NoError(t, err)
	require.Equal(t, []string{"R-002"}, rollIDs(damaged))
	require.Equal(t, []string{"R-002"}, rollIDs(store.Items()))
}

func TestFetchByStatus_FailureClearsCollection(t *testing.T) {
	store, env := newStore(t)
	ctx := context.Background()

	_, err := store.FetchByStatus(ctx, inventory.StatusAvailable)
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())
	_, err = store.FetchByStatus(ctx, inventory.StatusSold)
	require.NoError(t, err)
	require.Equal(t, 1, store.SoldTotal())

	env.Fake.ExpireAccessTokens()
	env.Fake.FailRefresh(true)

	_, err = store.FetchByStatus(ctx, inventory.StatusDamaged)
	require.ErrorIs(t, err, apierror.ErrAuthExpired)
	require.Empty(t, store.Items())
	require.Equal(t, 0, store.Total())
	require.NotEmpty(t, store.Err())

	_, err = store.FetchByStatus(ctx, inventory.StatusSold)
	require.Error(t, err)
	require.Empty(t, store.Sold())
	require.Equal(t, 0, store.SoldTotal())
}

func TestFetchSold(t *testing.T) {
	store, _ := newStore(t)

	items, total, err := store.FetchSold(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, "INV-7", items[0].InvoiceNumber)
	require.NotNil(t, items[0].SoldAt)
}

func TestBulkUpdateStatus(t *testing.T) {
	store, env := newStore(t)
	ctx := context.Background()

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	defer func() { inventory.NowTimeFunc = time.Now }()
	inventory.NowTimeFunc = func() time.Time { return fixed }

	require.NoError(t, store.FetchForProduct(ctx, "p1", resource.Query{}))

	result, err := store.BulkUpdateStatus(ctx, inventory.BulkStatus{
		RollIDs:       []string{"R-001", "R-003"},
		Status:        inventory.StatusSold,
		InvoiceNumber: "INV-12",
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.UpdatedCount)

	for _, item := range store.Items() {
		switch item.RollID {
		case "R-001", "R-003":
			require.Equal(t, inventory.StatusSold, item.Status)
			require.Equal(t, "INV-12", item.InvoiceNumber)
			require.Equal(t, fixed, *item.SoldAt)
		default:
			require.Equal(t, inventory.StatusDamaged, item.Status)
		}
	}

	billed, err := store.FetchByInvoice(ctx, "INV-12")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"R-001", "R-003"}, rollIDs(billed))

	_, err = store.BulkUpdateStatus(ctx, inventory.BulkStatus{RollIDs: []string{"R-001"}, Status: inventory.StatusAvailable})
	require.NoError(t, err)
	item, ok := findRoll(store.Items(), "R-001")
	require.True(t, ok)
	require.Nil(t, item.SoldAt)
	require.Empty(t, item.InvoiceNumber)

	_, err = store.BulkUpdateStatus(ctx, inventory.BulkStatus{Status: inventory.StatusSold})
	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, 5, env.Fake.Count(fakeapi.CollectionInventory))
}

func findRoll(items []inventory.Item, rollID string) (inventory.Item, bool) {
	for _, item := range items {
		if item.RollID == rollID {
			return item, true
		}
	}
	return inventory.Item{}, false
}
