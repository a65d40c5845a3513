package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
)

// A CatalogView is one page of the product listing.
type CatalogView struct {
	catalog.Page
	Filter domain.FilterState
	Facets catalog.Facets
	Window []int
}

// Catalog applies f to the current products and returns the requested
// page. The filter state is remembered for the session.
func (s *Storefront) Catalog(
	ctx context.Context, sessionID string, f domain.FilterState, page int,
) (CatalogView, error) {
	const op = "Storefront.Catalog"

	snap, err := s.Snapshot()
	if err != nil {
		return CatalogView{}, fmt.Errorf("%s: %w", op, err)
	}

	listing := catalog.Apply(snap.Products, f)
	p := catalog.Paginate(listing, page, s.pageSize)

	if sessionID != "" {
		if err := s.saveJSON(ctx, sessionID, KeyFilters, f); err != nil {
			slog.Warn("failed to save filters",
				"op", op, "session", sessionID, "err", err,
			)
		}
	}

	return CatalogView{
		Page:   p,
		Filter: f,
		Facets: catalog.BuildFacets(snap.Products, f),
		Window: catalog.PageWindow(p.Number, p.TotalPages),
	}, nil
}

// LastFilters returns the filter state of the session's last catalog view.
func (s *Storefront) LastFilters(
	ctx context.Context, sessionID string,
) (domain.FilterState, bool, error) {
	const op = "Storefront.LastFilters"

	f := domain.NewFilterState()
	ok, err := s.loadJSON(ctx, sessionID, KeyFilters, &f)
	if err != nil {
		return domain.NewFilterState(), false, fmt.Errorf("%s: %w", op, err)
	}
	return f, ok, nil
}

// Product returns the variations of a group matching f.
func (s *Storefront) Product(
	groupKey string, f domain.FilterState,
) (domain.ProductGroup, error) {
	const op = "Storefront.Product"

	snap, err := s.Snapshot()
	if err != nil {
		return domain.ProductGroup{}, fmt.Errorf("%s: %w", op, err)
	}
	g, err := snap.Groups.Variants(groupKey, f)
	if err != nil {
		return domain.ProductGroup{}, fmt.Errorf("%s: %w", op, err)
	}
	return g, nil
}

// Featured returns up to n featured groups for the home page.
func (s *Storefront) Featured(n int) ([]domain.Product, error) {
	const op = "Storefront.Featured"

	snap, err := s.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f := domain.NewFilterState()
	f.IsFeatured = true
	ps := catalog.Apply(snap.Products, f)
	if len(ps) > n {
		ps = ps[:n]
	}
	return ps, nil
}
