package transporters_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi/fakeapitest"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/jrsteele09/go-bizadmin-client/transporters"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestListAndToggle(t *testing.T) {
	env := fakeapitest.Start(t, true)
	ids := env.Fake.Seed(fakeapi.CollectionTransporters,
		map[string]any{"name": "Swift Movers", "vehicleNumber": "KA-01-1234", "isActive": true},
		map[string]any{"name": "Apex Logistics", "vehicleNumber": "MH-12-9876", "isActive": false},
		map[string]any{"name": "Blue Dart Freight"},
	)
	store := transporters.NewStore(env.Client, resource.WithLogger(zerolog.Nop()))
	ctx := context.Background()

	require.NoError(t, store.FetchList(ctx, resource.Query{}))
	names := []string{}
	for _, tr := range store.Items() {
		names = append(names, tr.Name)
	}
	require.Equal(t, []string{"Apex Logistics", "Blue Dart Freight", "Swift Movers"}, names)
	require.Len(t, store.Active(), 1)

	require.NoError(t, store.FetchList(ctx, resource.Query{Filters: map[string]any{"search": "ka-01"}}))
	require.Equal(t, 1, store.Total())
	require.Equal(t, "Swift Movers", store.Items()[0].Name)

	require.NoError(t, store.FetchList(ctx, resource.Query{}))
	updated, err := store.ToggleStatus(ctx, ids[1], true)
	require.NoError(t, err)
	require.True(t, updated.Active())
	require.Len(t, store.Active(), 2)

	rec, ok := env.Fake.Record(fakeapi.CollectionTransporters, ids[1])
	require.True(t, ok)
	require.Equal(t, true, rec["isActive"])

	_, err = store.ToggleStatus(ctx, "missing", false)
	require.ErrorIs(t, err, apierror.ErrUpdateFailed)
	require.Equal(t, 404, apierror.Status(err))
}

func TestStatusMessage(t *testing.T) {
	require.Equal(t, "Transporter activated successfully", transporters.StatusMessage(true))
	require.Equal(t, "Transporter deactivated successfully", transporters.StatusMessage(false))
}

func TestTransporter_ActiveDefaultsToFalse(t *testing.T) {
	require.False(t, transporters.Transporter{}.Active())
}
