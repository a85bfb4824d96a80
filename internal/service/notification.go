package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flicky/go-marketplace/internal/logger"
	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

type NotificationService struct {
	store            repository.Store
	notificationRepo repository.NotificationRepository
	log              *slog.Logger
}

func NewNotificationService(store repository.Store, notificationRepo repository.NotificationRepository, log *slog.Logger) *NotificationService {
	return &NotificationService{store: store, notificationRepo: notificationRepo, log: log}
}

// List returns the seller's notifications, newest first, and how many are unread.
func (s *NotificationService) List(ctx context.Context, p model.Principal) ([]model.Notification, int, error) {
	if err := requireSeller(p); err != nil {
		return nil, 0, err
	}
	items, err := s.notificationRepo.ListBySeller(ctx, p.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	return items, unread, nil
}

// MarkRead fulfills the notification's order if still pending and flags it read.
// Repeating the call is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, p model.Principal, id int64) error {
	if err := requireSeller(p); err != nil {
		return err
	}
	return s.markRead(ctx, p.ID, id)
}

// MarkAllRead applies MarkRead to every unread notification of the seller. Each notification
// commits on its own; the batch is not all-or-nothing. Returns how many were processed.
func (s *NotificationService) MarkAllRead(ctx context.Context, p model.Principal) (int, error) {
	if err := requireSeller(p); err != nil {
		return 0, err
	}
	ids, err := s.notificationRepo.UnreadIDs(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("list unread notifications: %w", err)
	}

	done := 0
	for _, id := range ids {
		if err := s.markRead(ctx, p.ID, id); err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				continue
			}
			return done, err
		}
		done++
	}
	return done, nil
}

func (s *NotificationService) markRead(ctx context.Context, sellerID, id int64) error {
	var completedOrder int64
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		n, err := tx.LockNotification(ctx, id, sellerID)
		if err != nil {
			return err
		}
		if n == nil {
			return ErrNotificationNotFound
		}

		if n.OrderStatus.CanTransition(model.OrderStatusCompleted) {
			moved, err := tx.TransitionOrder(ctx, n.OrderID, n.OrderStatus, model.OrderStatusCompleted)
			if err != nil {
				return err
			}
			if moved {
				completedOrder = n.OrderID
			}
		}
		if n.IsRead {
			return nil
		}
		return tx.MarkNotificationRead(ctx, n.ID)
	})
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return err
		}
		return fmt.Errorf("mark notification read: %w", err)
	}

	if completedOrder != 0 {
		logger.FromContext(ctx, s.log).Info("order completed", "order_id", completedOrder, "seller_id", sellerID, "notification_id", id)
	}
	return nil
}
