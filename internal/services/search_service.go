package services

import (
	"context"
	"strings"

	"garage/internal/models"
	"garage/internal/repositories"
)

// SearchScope restricts which kinds of records a search returns.
type SearchScope string

const (
	SearchAll   SearchScope = "all"
	SearchBoxes SearchScope = "boxes"
	SearchItems SearchScope = "items"
)

// ParseSearchScope maps a query parameter to a scope, defaulting to SearchAll.
func ParseSearchScope(raw string) SearchScope {
	switch SearchScope(strings.ToLower(raw)) {
	case SearchBoxes:
		return SearchBoxes
	case SearchItems:
		return SearchItems
	default:
		return SearchAll
	}
}

// SearchResult holds the matches of a search.
type SearchResult struct {
	Boxes []models.Box
	Items []models.Item
}

// SearchService searches within one user's inventory.
type SearchService struct {
	boxes repositories.BoxRepository
	items repositories.ItemRepository
}

// NewSearchService creates a new SearchService.
func NewSearchService(boxes repositories.BoxRepository, items repositories.ItemRepository) *SearchService {
	return &SearchService{boxes: boxes, items: items}
}

// Search matches query against the user's boxes and items. category narrows
// items only. An empty query with no category returns nothing; a category
// alone lists every item in it.
func (s *SearchService) Search(ctx context.Context, userID uint, query string, scope SearchScope, category string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	result := SearchResult{Boxes: []models.Box{}, Items: []models.Item{}}
	if query == "" && category == "" {
		return result, nil
	}

	if scope != SearchItems && query != "" {
		boxes, err := s.boxes.Search(ctx, userID, query)
		if err != nil {
			return SearchResult{}, err
		}
		result.Boxes = append(result.Boxes, boxes...)
	}
	if scope != SearchBoxes {
		items, err := s.items.Search(ctx, userID, query, category)
		if err != nil {
			return SearchResult{}, err
		}
		result.Items = append(result.Items, items...)
	}
	return result, nil
}

// Categories lists the distinct categories of the user's items.
func (s *SearchService) Categories(ctx context.Context, userID uint) ([]string, error) {
	return s.items.Categories(ctx, userID)
}
