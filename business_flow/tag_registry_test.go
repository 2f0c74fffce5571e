package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/photo-moderation/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTagNames(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"Nil", nil, []string{}},
		{"BlanksDropped", []string{" ", "", "\t"}, []string{}},
		{"Trimmed", []string{"  beach  "}, []string{"beach"}},
		{"FirstSpellingWins", []string{"Sunset", "SUNSET", "sunset "}, []string{"Sunset"}},
		{"OrderKept", []string{"b", "a", "B", "c"}, []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTagNames(tt.input))
		})
	}
}

func TestResolveOrCreateTags(t *testing.T) {
	store := newMemStore()
	beach := store.addTag("Beach")
	registry := NewTagRegistry(&fakeTagRepo{s: store})

	resolved, err := registry.ResolveOrCreateTags(context.Background(), []string{"sunset", "BEACH", " Sunset", "city"})
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	assert.True(t, resolved[0].IsNew)
	assert.Equal(t, "sunset", resolved[0].Tag.Name)
	assert.Zero(t, resolved[0].Tag.ID)

	assert.False(t, resolved[1].IsNew)
	assert.Equal(t, beach.ID, resolved[1].Tag.ID)
	assert.Equal(t, "Beach", resolved[1].Tag.Name)

	assert.True(t, resolved[2].IsNew)
	assert.Equal(t, "city", resolved[2].Tag.Name)

	// resolving never writes
	assert.Len(t, store.tags, 1)

	empty, err := registry.ResolveOrCreateTags(context.Background(), []string{" "})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestResolveOrCreateTagsFoldsLikeTheStore(t *testing.T) {
	store := newMemStore()
	istanbul := store.addTag("İstanbul")
	registry := NewTagRegistry(&fakeTagRepo{s: store})

	resolved, err := registry.ResolveOrCreateTags(context.Background(), []string{"İSTANBUL", "istanbul"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	assert.False(t, resolved[0].IsNew)
	assert.Equal(t, istanbul.ID, resolved[0].Tag.ID)
	// a dotted capital I folds to i plus a combining dot, so plain istanbul is another tag
	assert.True(t, resolved[1].IsNew)
	assert.Equal(t, models.TagKey("istanbul"), resolved[1].Tag.Key())
}
