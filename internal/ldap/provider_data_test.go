package ldap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderData(t *testing.T) {
	ctx := context.Background()

	var missing *ProviderData
	assert.Error(t, missing.ValidateConnection(ctx))
	assert.NoError(t, missing.Close())
	assert.Error(t, NewProviderData(nil).ValidateConnection(ctx))

	unopened := NewProviderData(NewClient(nil))
	assert.ErrorIs(t, unopened.ValidateConnection(ctx), ErrInvalidOperation)

	dir := &fakeDirectory{}
	pd := NewProviderData(openClient(dir))
	require.NoError(t, pd.ValidateConnection(ctx))

	require.NoError(t, pd.Close())
	assert.Equal(t, 1, dir.closed)
	assert.ErrorIs(t, pd.ValidateConnection(ctx), ErrInvalidOperation)
}
