package service

import (
	"context"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
	"golang.org/x/sync/errgroup"

	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

type AdminService struct {
	userRepo     repository.UserRepository
	orderRepo    repository.OrderRepository
	feedbackRepo repository.FeedbackRepository
}

func NewAdminService(userRepo repository.UserRepository, orderRepo repository.OrderRepository, feedbackRepo repository.FeedbackRepository) *AdminService {
	return &AdminService{userRepo: userRepo, orderRepo: orderRepo, feedbackRepo: feedbackRepo}
}

type Overview struct {
	Clients           int
	Sellers           int
	Feedback          int
	ProductsPerSeller []model.SellerProductCount
}

// Overview counts clients (accounts without a seller profile), sellers, feedback entries and products per seller.
func (s *AdminService) Overview(ctx context.Context, p model.Principal) (*Overview, error) {
	if err := requireSuperAdmin(p); err != nil {
		return nil, err
	}

	out := &Overview{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.userRepo.CountClients(gctx)
		out.Clients = n
		return err
	})
	g.Go(func() error {
		n, err := s.userRepo.CountSellers(gctx)
		out.Sellers = n
		return err
	})
	g.Go(func() error {
		n, err := s.feedbackRepo.Count(gctx)
		out.Feedback = n
		return err
	})
	g.Go(func() error {
		counts, err := s.userRepo.SellerProductCounts(gctx)
		out.ProductsPerSeller = counts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin overview: %w", err)
	}
	return out, nil
}

// Transactions returns every order with its items, newest first.
func (s *AdminService) Transactions(ctx context.Context, p model.Principal) ([]model.Order, error) {
	if err := requireSuperAdmin(p); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return orders, nil
}

var transactionHeaders = []string{
	"Order ID", "Created At", "Status", "Client", "Seller",
	"Product ID", "Product", "Quantity", "Unit Price", "Subtotal", "Order Total",
}

// ExportTransactions writes the transaction archive as an xlsx workbook, one row per order line.
func (s *AdminService) ExportTransactions(ctx context.Context, p model.Principal, w io.Writer) error {
	orders, err := s.Transactions(ctx, p)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transactions")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range transactionHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		total := o.Total().StringFixed(2)
		for _, it := range o.Items {
			row := sheet.AddRow()
			row.AddCell().SetValue(o.ID)
			row.AddCell().SetValue(o.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(o.ClientUsername)
			row.AddCell().SetValue(o.SellerName)
			row.AddCell().SetValue(it.ProductID)
			row.AddCell().SetValue(it.ProductName)
			row.AddCell().SetValue(it.Quantity)
			row.AddCell().SetValue(it.PriceAtOrder.StringFixed(2))
			row.AddCell().SetValue(it.Subtotal().StringFixed(2))
			row.AddCell().SetValue(total)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
