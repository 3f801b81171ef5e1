package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dalemusser/sudhub/internal/domain/models"
)

// Search finds documents by name. A blank name is refused locally.
func (s *Session) Search(ctx context.Context, name string) ([]models.SearchItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("search: %w", ErrEmptyQuery)
	}
	var out struct {
		Items []models.SearchItem `json:"items"`
	}
	if err := s.getJSON(ctx, "search", "/search", url.Values{"name": {name}}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
