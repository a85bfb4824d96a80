package service

import (
	"context"
	"fmt"

	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

// Add puts an active product on the client's wishlist. It reports false when it was already there.
func (s *WishlistService) Add(ctx context.Context, p model.Principal, productID int64) (bool, error) {
	if err := requireClient(p); err != nil {
		return false, err
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return false, ErrProductNotFound
	}

	created, err := s.wishlistRepo.Add(ctx, p.ID, productID)
	if err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}
	return created, nil
}

// Remove is idempotent: removing an absent product is not an error.
func (s *WishlistService) Remove(ctx context.Context, p model.Principal, productID int64) error {
	if err := requireClient(p); err != nil {
		return err
	}
	if err := s.wishlistRepo.Remove(ctx, p.ID, productID); err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}

// List returns the wishlist, most recently added first.
func (s *WishlistService) List(ctx context.Context, p model.Principal) ([]model.WishlistItem, error) {
	if err := requireClient(p); err != nil {
		return nil, err
	}
	items, err := s.wishlistRepo.ListByClient(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return items, nil
}
