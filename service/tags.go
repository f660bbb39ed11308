package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"blog-api/apperror"
	"blog-api/models"
)

type TagResolver struct {
	tags TagRepository
}

func NewTagResolver(tags TagRepository) *TagResolver {
	return &TagResolver{tags: tags}
}

// NormalizeTagNames drops blank names, trims and upper-cases the rest and
// removes duplicates, keeping first-seen order.
func NormalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Resolve finds or creates one tag per normalized name.
func (r *TagResolver) Resolve(ctx context.Context, names []string) ([]models.Tag, error) {
	normalized := NormalizeTagNames(names)
	out := make([]models.Tag, 0, len(normalized))
	for _, name := range normalized {
		t, err := r.tags.FindByName(ctx, name)
		if err != nil {
			return nil, apperror.Wrap("find tag", err)
		}
		if t == nil {
			t = &models.Tag{ID: uuid.New(), Name: name}
			if err := r.tags.Create(ctx, t); err != nil {
				return nil, apperror.Wrap("create tag", err)
			}
		}
		out = append(out, *t)
	}
	return out, nil
}
