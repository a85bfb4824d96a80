package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/logger"
	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

// OrderEventPublisher announces committed orders to asynchronous consumers.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event model.OrderPlacedEvent) error
}

type CheckoutService struct {
	store     repository.Store
	cart      *CartService
	cartRepo  repository.CartRepository
	publisher OrderEventPublisher
	currency  string
	log       *slog.Logger
}

func NewCheckoutService(
	store repository.Store,
	cart *CartService,
	cartRepo repository.CartRepository,
	publisher OrderEventPublisher,
	currency string,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{store: store, cart: cart, cartRepo: cartRepo, publisher: publisher, currency: currency, log: log}
}

// Checkout turns the client's cart into a pending order. Order, items, stock decrements and the
// seller notification commit together. Lines are clamped to the stock seen under row lock; if
// nothing is left the call fails with ErrStockExhausted and the cart is kept.
func (s *CheckoutService) Checkout(ctx context.Context, p model.Principal, payment dto.PaymentRequest) (*model.Order, error) {
	if err := requireClient(p); err != nil {
		return nil, err
	}
	if err := ValidatePayment(&payment); err != nil {
		return nil, err
	}

	session := cartSession(p)
	view, err := s.cart.reconcile(ctx, session)
	if err != nil {
		return nil, err
	}
	if view.Empty() {
		return nil, ErrEmptyCart
	}

	order := &model.Order{
		ClientID:       p.ID,
		ClientUsername: p.Username,
		SellerID:       view.SellerID,
		Status:         model.OrderStatusPending,
	}
	notification := &model.Notification{SellerID: view.SellerID}

	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		ids := make([]int64, len(view.Lines))
		for i, l := range view.Lines {
			ids[i] = l.Product.ID
		}
		locked, err := tx.LockProducts(ctx, view.SellerID, ids)
		if err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(view.Lines))
		for _, l := range view.Lines {
			live, ok := locked[l.Product.ID]
			if !ok || !live.Available() {
				continue
			}
			qty := min(l.Quantity, live.Quantity)
			items = append(items, model.OrderItem{
				ProductID:    live.ID,
				ProductName:  live.Name,
				Quantity:     qty,
				PriceAtOrder: live.Price,
			})
		}
		if len(items) == 0 {
			return ErrStockExhausted
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.CreateOrderItems(ctx, order.ID, items); err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return ErrStockExhausted
				}
				return err
			}
		}
		order.Items = items

		notification.OrderID = order.ID
		notification.Message = orderMessage(order, p.Username, s.currency)
		return tx.CreateNotification(ctx, notification)
	})
	if err != nil {
		if errors.Is(err, ErrStockExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("place order: %w", err)
	}
	notification.OrderStatus = order.Status

	log := logger.FromContext(ctx, s.log).With("order_id", order.ID, "seller_id", order.SellerID, "client_id", order.ClientID)
	log.Info("order placed", "items", len(order.Items), "total", order.Total().StringFixed(2))

	if err := s.cartRepo.Clear(ctx, session); err != nil {
		log.Error("clear cart after checkout", "error", err)
	}
	s.publish(ctx, log, order, notification)
	return order, nil
}

func (s *CheckoutService) publish(ctx context.Context, log *slog.Logger, order *model.Order, n *model.Notification) {
	if s.publisher == nil {
		return
	}
	productIDs := make([]int64, len(order.Items))
	for i, it := range order.Items {
		productIDs[i] = it.ProductID
	}
	event := model.OrderPlacedEvent{
		EventID:        uuid.NewString(),
		OrderID:        order.ID,
		SellerID:       order.SellerID,
		ClientID:       order.ClientID,
		NotificationID: n.ID,
		ProductIDs:     productIDs,
		Total:          order.Total(),
		Message:        n.Message,
		RequestID:      logger.RequestID(ctx),
		Timestamp:      time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		log.Error("publish order placed", "error", err)
	}
}

func orderMessage(order *model.Order, client, currency string) string {
	return fmt.Sprintf("New order #%d from %s: %s %s", order.ID, client, order.Total().StringFixed(2), currency)
}

// ValidatePayment normalizes and checks the payment form. Nothing is charged.
func ValidatePayment(req *dto.PaymentRequest) error {
	req.Method = strings.TrimSpace(req.Method)
	req.Cardholder = strings.TrimSpace(req.Cardholder)
	req.CardNumber = strings.ReplaceAll(strings.TrimSpace(req.CardNumber), " ", "")
	req.CVV = strings.TrimSpace(req.CVV)
	return validateStruct(req)
}
