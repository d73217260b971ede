package users_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/internal/fakeapi/fakeapitest"
	"github.com/jrsteele09/go-bizadmin-client/internal/utils"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/jrsteele09/go-bizadmin-client/token"
	"github.com/jrsteele09/go-bizadmin-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Short1", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoNumbersHere", false},
		{"Valid123", true},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestUser_Active(t *testing.T) {
	require.True(t, (&users.User{}).Active())
	require.False(t, (&users.User{IsActive: utils.Ptr(false)}).Active())
	var nilUser *users.User
	require.False(t, nilUser.Active())
	require.False(t, nilUser.IsAdmin())
}

func TestFromClaims(t *testing.T) {
	require.Nil(t, users.FromClaims(token.Claims{}))

	u := users.FromClaims(token.Claims{Subject: "u-9", Email: "jo@example.com", Name: "Jo", Role: "admin"})
	require.Equal(t, "u-9", u.EntityID())
	require.True(t, u.IsAdmin())
}

func TestStore_Register(t *testing.T) {
	env := fakeapitest.Start(t, true)
	store := users.NewStore(env.Client, resource.WithLogger(zerolog.Nop()))
	ctx := context.Background()

	_, err := store.Register(ctx, users.Registration{Name: "Clerk", Email: "clerk@example.com", Password: "weak"})
	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)

	created, err := store.Register(ctx, users.Registration{Name: "Clerk", Email: "clerk@example.com", Password: "Clerk1234"})
	require.NoError(t, err)
	require.Equal(t, users.RoleUser, created.Role)
	require.NotEmpty(t, created.EntityID())

	_, err = store.Register(ctx, users.Registration{Name: "Clerk", Email: "clerk@example.com", Password: "Clerk1234"})
	require.ErrorIs(t, err, apierror.ErrCreateFailed)
	require.Equal(t, "User with this email already exists", apierror.Message(err))

	require.NoError(t, store.FetchList(ctx, resource.Query{SortField: "email", SortDirection: resource.Ascending}))
	require.Equal(t, 2, store.Total())
	require.Equal(t, "admin@example.com", store.Items()[0].Email)

	updated, err := store.Update(ctx, created.EntityID(), map[string]any{"role": "manager"})
	require.NoError(t, err)
	require.Equal(t, users.RoleManager, updated.Role)

	require.NoError(t, store.Remove(ctx, created.EntityID()))
	require.Equal(t, 1, store.Total())
}
