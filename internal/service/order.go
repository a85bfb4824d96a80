package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

type OrderService struct {
	orderRepo        repository.OrderRepository
	notificationRepo repository.NotificationRepository
}

func NewOrderService(orderRepo repository.OrderRepository, notificationRepo repository.NotificationRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo, notificationRepo: notificationRepo}
}

func (s *OrderService) ListForClient(ctx context.Context, p model.Principal) ([]model.Order, error) {
	if err := requireClient(p); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByClient(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns an order visible to p: its client, its seller, or the superadmin.
// Orders of anyone else read as missing.
func (s *OrderService) Get(ctx context.Context, p model.Principal, id int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || !canView(p, order) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func canView(p model.Principal, o *model.Order) bool {
	switch {
	case p.IsSuperAdmin():
		return true
	case p.IsClient():
		return o.ClientID == p.ID
	case p.IsSeller():
		return o.SellerID == p.ID
	}
	return false
}

type SellerDashboard struct {
	Stats               model.SellerStats
	UnreadNotifications int
}

func (s *OrderService) SellerDashboard(ctx context.Context, p model.Principal) (*SellerDashboard, error) {
	if err := requireSeller(p); err != nil {
		return nil, err
	}

	var (
		stats  *model.SellerStats
		unread int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.orderRepo.SellerStats(gctx, p.ID)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = s.notificationRepo.CountUnread(gctx, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("seller dashboard: %w", err)
	}
	return &SellerDashboard{Stats: *stats, UnreadNotifications: unread}, nil
}
