package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/repository"
)

// ResolvedTag is a tag matched against the store. New tags are not yet saved.
type ResolvedTag struct {
	Tag   *models.Tag
	IsNew bool
}

// TagRegistry resolves tag names against the tag store
type TagRegistry struct {
	tagRepo repository.TagRepository
}

func NewTagRegistry(tagRepo repository.TagRepository) *TagRegistry {
	return &TagRegistry{tagRepo: tagRepo}
}

// NormalizeTagNames trims names, drops blanks and removes case-insensitive
// duplicates. The first spelling seen wins and input order is kept.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := models.TagKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ResolveOrCreateTags returns one entry per distinct normalized name in input
// order. Existing tags are matched case-insensitively; the rest are built as
// unsaved tags for the caller to add to its unit of work.
func (r *TagRegistry) ResolveOrCreateTags(ctx context.Context, names []string) ([]ResolvedTag, error) {
	names = NormalizeTagNames(names)
	if len(names) == 0 {
		return []ResolvedTag{}, nil
	}

	existing, err := r.tagRepo.ListByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*models.Tag, len(existing))
	for _, t := range existing {
		byKey[t.Key()] = t
	}

	resolved := make([]ResolvedTag, 0, len(names))
	for _, name := range names {
		if t, ok := byKey[models.TagKey(name)]; ok {
			resolved = append(resolved, ResolvedTag{Tag: t})
			continue
		}
		resolved = append(resolved, ResolvedTag{Tag: &models.Tag{Name: name}, IsNew: true})
	}
	return resolved, nil
}
