package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	log         *slog.Logger
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, log *slog.Logger) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, log: log}
}

// AddItem adds qty (at least 1) of a seller's product. A cart holding another seller's
// products is discarded first. The stored quantity never exceeds live stock.
func (s *CartService) AddItem(ctx context.Context, p model.Principal, sellerID, productID int64, qty int) (*model.CartView, error) {
	if err := requireClient(p); err != nil {
		return nil, err
	}
	if qty < 1 {
		qty = 1
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.IsActive || product.SellerID != sellerID {
		return nil, ErrProductNotFound
	}
	if product.Quantity < 1 {
		return nil, fmt.Errorf("product %d: %w", productID, ErrOutOfStock)
	}

	session := cartSession(p)
	cart, err := s.cartRepo.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.SellerID != sellerID {
		cart = &model.Cart{SellerID: sellerID, Items: map[int64]int{}}
	}

	cart.Items[productID] = min(cart.Items[productID]+qty, product.Quantity)
	if err := s.cartRepo.Save(ctx, session, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.reconcile(ctx, session)
}

// RemoveItem drops a line. Removing the last line clears the cart.
func (s *CartService) RemoveItem(ctx context.Context, p model.Principal, productID int64) (*model.CartView, error) {
	if err := requireClient(p); err != nil {
		return nil, err
	}
	session := cartSession(p)
	cart, err := s.cartRepo.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if _, ok := cart.Items[productID]; ok {
		delete(cart.Items, productID)
		if err := s.cartRepo.Save(ctx, session, cart); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
	}
	return s.reconcile(ctx, session)
}

// View returns the reconciled cart.
func (s *CartService) View(ctx context.Context, p model.Principal) (*model.CartView, error) {
	if err := requireClient(p); err != nil {
		return nil, err
	}
	return s.reconcile(ctx, cartSession(p))
}

// Count returns how many units the cart holds for sellerID, 0 when the cart belongs to another seller.
func (s *CartService) Count(ctx context.Context, p model.Principal, sellerID int64) (int, error) {
	if !p.IsClient() {
		return 0, nil
	}
	cart, err := s.cartRepo.Get(ctx, cartSession(p))
	if err != nil {
		return 0, fmt.Errorf("get cart: %w", err)
	}
	if cart.SellerID != sellerID {
		return 0, nil
	}
	return cart.Count(), nil
}

// reconcile re-reads the cart's products, clamps each line to live stock, drops lines that no
// longer qualify and writes the result back when it changed.
func (s *CartService) reconcile(ctx context.Context, session string) (*model.CartView, error) {
	cart, err := s.cartRepo.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.Empty() {
		if cart.SellerID != 0 || len(cart.Items) > 0 {
			if err := s.cartRepo.Clear(ctx, session); err != nil {
				return nil, fmt.Errorf("clear cart: %w", err)
			}
		}
		return &model.CartView{Total: decimal.Zero}, nil
	}

	products, err := s.productRepo.ListForCart(ctx, cart.SellerID, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	view, pruned := buildCartView(cart, products)
	if pruned.Count() != cart.Count() || len(pruned.Items) != len(cart.Items) {
		s.log.Debug("cart reconciled", "session", session, "before", cart.Count(), "after", pruned.Count())
		if err := s.cartRepo.Save(ctx, session, pruned); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
	}
	if view.Empty() {
		return &model.CartView{Total: decimal.Zero}, nil
	}
	return view, nil
}

// buildCartView clamps cart lines against products and returns the priced view with the pruned cart.
func buildCartView(cart *model.Cart, products map[int64]model.Product) (*model.CartView, *model.Cart) {
	view := &model.CartView{SellerID: cart.SellerID, Total: decimal.Zero}
	pruned := &model.Cart{SellerID: cart.SellerID, Items: make(map[int64]int, len(cart.Items))}

	for _, id := range cart.ProductIDs() {
		p, ok := products[id]
		if !ok || !p.Available() {
			continue
		}
		qty := min(cart.Items[id], p.Quantity)
		if qty <= 0 {
			continue
		}
		pruned.Items[id] = qty
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		view.Lines = append(view.Lines, model.CartLine{Product: p, Quantity: qty, Subtotal: subtotal})
		view.Total = view.Total.Add(subtotal)
	}
	return view, pruned
}
