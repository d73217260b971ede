package transactions_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi/fakeapitest"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/jrsteele09/go-bizadmin-client/transactions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBalance(t *testing.T) {
	env := fakeapitest.Start(t, true)
	env.Fake.Seed(fakeapi.CollectionTransactions,
		map[string]any{"type": "credit", "amount": 500, "bankId": "b1"},
		map[string]any{"type": "debit", "amount": 120.5, "bankId": "b1"},
		map[string]any{"type": "credit", "amount": 80, "bankId": "b2"},
	)
	store := transactions.NewStore(env.Client, resource.WithLogger(zerolog.Nop()))

	require.NoError(t, store.FetchList(context.Background(), resource.Query{}))
	require.InDelta(t, 459.5, store.Balance(), 0.001)

	require.NoError(t, store.FetchList(context.Background(), resource.Query{Filters: map[string]any{"bankId": "b1"}}))
	require.Equal(t, 2, store.Total())
	require.InDelta(t, 379.5, store.Balance(), 0.001)
}
