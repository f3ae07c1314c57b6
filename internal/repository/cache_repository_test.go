package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/edupanel/agenda-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)

	var dest map[string]string
	err := repo.Get(context.Background(), "events:list", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(context.Background(), "events:list", dest, 0))
	require.NoError(t, repo.DeleteByPattern(context.Background(), "events:*"))
	require.NoError(t, repo.Close())
}
