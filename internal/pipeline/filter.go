// Package pipeline turns a raw dataset snapshot, the saved-ID set and the
// user's criteria into the ordered list a view renders. Every function here
// is pure: the same inputs always give the same output, and inputs are never
// modified.
package pipeline

import (
	"strings"

	"github.com/wastebuster/wastebuster/internal/domain"
)

const (
	// CategoryAll matches every category.
	CategoryAll = "All"
	// CategorySaved matches no category, so only saved items pass.
	CategorySaved = "Saved"
)

// Criteria selects items by category and free text. Zero values mean "no
// filter".
type Criteria struct {
	Category   string
	SearchText string
}

// containsFold reports whether sub occurs in s, ignoring case. An empty sub
// always matches.
func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func categoryMatches(itemCategory, want string) bool {
	want = strings.TrimSpace(want)
	switch {
	case want == "", strings.EqualFold(want, CategoryAll):
		return true
	case strings.EqualFold(want, CategorySaved):
		return false
	default:
		return strings.EqualFold(strings.TrimSpace(itemCategory), want)
	}
}

func textMatches(item domain.Item, query string) bool {
	query = strings.TrimSpace(query)
	return containsFold(item.ItemName(), query) || containsFold(item.ItemDescription(), query)
}

// Filter keeps items where (category matches OR item is saved) AND the text
// matches name or description. Saved items stay visible under any category
// but still obey the text query. Input order is preserved.
func Filter[T domain.Item](items []T, saved domain.IDSet, c Criteria) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		pinned := saved.Has(item.ItemID())
		if (categoryMatches(item.ItemCategory(), c.Category) || pinned) && textMatches(item, c.SearchText) {
			out = append(out, item)
		}
	}
	return out
}

// FilterIdeas is Filter for the ideas screen.
func FilterIdeas(ideas []domain.Idea, saved domain.IDSet, c Criteria) []domain.Idea {
	return Filter(ideas, saved, c)
}

// IdeaCategories are the selector tabs of the ideas screen.
func IdeaCategories() []string {
	return []string{CategorySaved, CategoryAll, "Videos", "Articles"}
}

// SearchCategories keeps categories whose name or any associated keyword
// contains query, ignoring case.
func SearchCategories(categories []domain.Category, query string) []domain.Category {
	query = strings.TrimSpace(query)
	out := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if categoryHit(c, query) {
			out = append(out, c)
		}
	}
	return out
}

func categoryHit(c domain.Category, query string) bool {
	if containsFold(c.Name, query) {
		return true
	}
	for _, a := range c.Associated {
		if containsFold(a, query) {
			return true
		}
	}
	return false
}
