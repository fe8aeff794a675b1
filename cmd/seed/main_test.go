package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vansales-service/internal/models"
	"vansales-service/internal/testutil"
)

func TestSeedIsRepeatable(t *testing.T) {
	st := testutil.NewMemoryStore()
	ctx := context.Background()

	users, products, err := seed(ctx, st, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, 3, users)
	assert.Equal(t, 3, products)

	users, products, err = seed(ctx, st, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Zero(t, users)
	assert.Zero(t, products)

	admin, err := st.GetUserByUsername(ctx, "admin@vansales.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(demoPassword)))

	disabled, err := st.GetUserByUsername(ctx, "agent2@vansales.com")
	require.NoError(t, err)
	assert.False(t, disabled.IsEnabled)

	pinned, err := st.ListPinnedProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, pinned, 2)
}
