package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rota/internal/store"
)

func TestParseFilter(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"active", "paused", "all"} {
		f, err := store.ParseFilter(name)
		require.NoError(t, err)
		require.Equal(t, store.ActiveFilter(name), f)
	}

	for _, bad := range []string{"", "bogus", "Active"} {
		_, err := store.ParseFilter(bad)
		require.Error(t, err)
	}
}
