package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/niksmo/kiksniks/internal/core/cart"
	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
)

func (s *Storefront) loadCart(
	ctx context.Context, sessionID string,
) (*cart.Cart, error) {
	var items []domain.CartItem
	if _, err := s.loadJSON(ctx, sessionID, KeyCart, &items); err != nil {
		return nil, err
	}
	return cart.New(items), nil
}

// mutateCart runs fn on the session cart and persists the result.
// Mutations of one session never interleave.
func (s *Storefront) mutateCart(
	ctx context.Context, sessionID string, fn func(*cart.Cart) error,
) (*cart.Cart, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.saveJSON(ctx, sessionID, KeyCart, c.Lines()); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Storefront) Cart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	const op = "Storefront.Cart"

	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// AddToCart adds one unit of variant productID in size. Products offering
// sizes require one of them.
func (s *Storefront) AddToCart(
	ctx context.Context, sessionID, productID, size string,
) (domain.CartItem, error) {
	const op = "Storefront.AddToCart"

	snap, err := s.Snapshot()
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	p, ok := snap.Product(productID)
	if !ok {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, catalog.ErrProductNotFound)
	}
	if len(p.Sizes) == 0 {
		size = ""
	} else if !p.HasSize(size) {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, ErrSizeRequired)
	}

	var item domain.CartItem
	_, err = s.mutateCart(ctx, sessionID, func(c *cart.Cart) error {
		item = c.Add(p, size)
		return nil
	})
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// AddSelected adds every listed variant in its first size and reports how
// many were added. Unknown ids are skipped.
func (s *Storefront) AddSelected(
	ctx context.Context, sessionID string, productIDs []string,
) (int, error) {
	const op = "Storefront.AddSelected"

	if len(productIDs) == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoSelection)
	}
	snap, err := s.Snapshot()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var products []domain.Product
	for i, id := range productIDs {
		if slices.Contains(productIDs[:i], id) {
			continue
		}
		if p, ok := snap.Product(id); ok {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoSelection)
	}

	_, err = s.mutateCart(ctx, sessionID, func(c *cart.Cart) error {
		for _, p := range products {
			var size string
			if len(p.Sizes) != 0 {
				size = p.Sizes[0]
			}
			c.Add(p, size)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(products), nil
}

func (s *Storefront) UpdateQuantity(
	ctx context.Context, sessionID, itemID string, quantity int,
) (*cart.Cart, error) {
	const op = "Storefront.UpdateQuantity"

	c, err := s.mutateCart(ctx, sessionID, func(c *cart.Cart) error {
		c.UpdateQuantity(itemID, quantity)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Storefront) RemoveFromCart(
	ctx context.Context, sessionID, itemID string,
) (*cart.Cart, error) {
	const op = "Storefront.RemoveFromCart"

	c, err := s.mutateCart(ctx, sessionID, func(c *cart.Cart) error {
		c.Remove(itemID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Storefront) ClearCart(ctx context.Context, sessionID string) error {
	const op = "Storefront.ClearCart"

	_, err := s.mutateCart(ctx, sessionID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
