package customers_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/customers"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi/fakeapitest"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStore_Lifecycle(t *testing.T) {
	env := fakeapitest.Start(t, true)
	store := customers.NewStore(env.Client, resource.WithLogger(zerolog.Nop()))
	ctx := context.Background()

	created, err := store.Create(ctx, customers.Customer{Name: "Acme Textiles", Email: "acme@example.com", GSTNumber: "29ABCDE1234F1Z5"})
	require.NoError(t, err)
	require.NotEmpty(t, created.EntityID())
	require.False(t, created.CreatedAt.IsZero())

	_, err = store.Create(ctx, customers.Customer{Email: "nobody@example.com"})
	require.ErrorIs(t, err, apierror.ErrCreateFailed)
	require.Equal(t, "name is required", apierror.Message(err))
	require.Equal(t, "name is required", store.Err())

	detail, err := store.FetchDetail(ctx, created.EntityID())
	require.NoError(t, err)
	require.Equal(t, "Acme Textiles", detail.Name)

	updated, err := store.Update(ctx, created.EntityID(), map[string]any{"phone": "080-5550100"})
	require.NoError(t, err)
	require.Equal(t, "080-5550100", updated.Phone)
	current, ok := store.Detail()
	require.True(t, ok)
	require.Equal(t, "080-5550100", current.Phone)

	require.NoError(t, store.FetchList(ctx, resource.Query{Filters: map[string]any{"search": "acme"}}))
	require.Equal(t, 1, store.Total())

	require.NoError(t, store.Remove(ctx, created.EntityID()))
	require.Equal(t, 0, store.Len())
	_, ok = store.Detail()
	require.False(t, ok)

	_, err = store.FetchDetail(ctx, created.EntityID())
	require.ErrorIs(t, err, apierror.ErrNotFound)
}
