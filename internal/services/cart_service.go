package services

import (
	"context"
	"errors"

	"soukly/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

// Add puts a product (or one of its variants) in the session cart at
// the current final price.
func (s *CartService) Add(ctx context.Context, sessionID, productID, variantID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return err
	}

	price := p.FinalPrice
	var variant *string
	if variantID != "" {
		found := false
		for i := range p.Variants {
			if p.Variants[i].ID == variantID {
				price = p.Variants[i].FinalPrice
				variant = &variantID
				found = true
				break
			}
		}
		if !found {
			return errors.New("unknown variant")
		}
	}
	return s.Carts.UpsertItem(cartID, productID, variant, qty, price)
}

type CartView struct {
	Items []repos.CartItemRow `json:"items"`
	Total float64             `json:"total"`
}

func (s *CartService) View(sessionID string) (CartView, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return CartView{}, err
	}
	items, total, err := s.Carts.View(cartID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Items: items, Total: total}, nil
}
