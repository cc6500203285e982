package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrInit(t *testing.T) {
	registry := NewRegistry()

	adapter, err := registry.GetOrInit(SourceZagreb)
	require.NoError(t, err)
	assert.Equal(t, "zagreb", adapter.Slug())
	assert.Equal(t, "Zagreb Open Data", adapter.Name())

	// Second lookup returns the cached instance
	again, err := registry.GetOrInit(SourceZagreb)
	require.NoError(t, err)
	assert.Same(t, adapter, again)
}

func TestRegistryGetOrInitUnknownSource(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.GetOrInit(SourceID("atlantis"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no adapter implementation")
}

func TestRegistryRegisterAndList(t *testing.T) {
	registry := NewRegistry()
	assert.Empty(t, registry.List())
	assert.False(t, registry.IsRegistered(SourceVienna))

	adapter, err := NewViennaAdapter()
	require.NoError(t, err)
	registry.Register(SourceVienna, adapter)

	assert.True(t, registry.IsRegistered(SourceVienna))
	got, ok := registry.Get(SourceVienna)
	require.True(t, ok)
	assert.Equal(t, "vienna", got.Slug())
	assert.Equal(t, []SourceID{SourceVienna}, registry.List())
}

func TestInitializeDefaultAdapters(t *testing.T) {
	require.NoError(t, InitializeDefaultAdapters())

	for _, id := range SourceIDs {
		adapter, err := GetAdapter(id)
		require.NoError(t, err)
		assert.Equal(t, string(id), adapter.Slug())
		assert.NotEmpty(t, adapter.SupportedTypes())
	}
}

func TestIsValidSource(t *testing.T) {
	assert.True(t, IsValidSource("zagreb"))
	assert.True(t, IsValidSource("ljubljana"))
	assert.True(t, IsValidSource("vienna"))
	assert.False(t, IsValidSource("Zagreb"))
	assert.False(t, IsValidSource(""))
	assert.False(t, IsValidSource("atlantis"))
}

func TestValidSources(t *testing.T) {
	assert.Equal(t, []string{"zagreb", "ljubljana", "vienna"}, ValidSources())
}
