package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

type FeedbackService struct {
	feedbackRepo repository.FeedbackRepository
	log          *slog.Logger
}

func NewFeedbackService(feedbackRepo repository.FeedbackRepository, log *slog.Logger) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo, log: log}
}

// Create posts feedback on behalf of a client or a seller.
func (s *FeedbackService) Create(ctx context.Context, p model.Principal, req dto.FeedbackRequest) (*model.Feedback, error) {
	if err := requireClientOrSeller(p); err != nil {
		return nil, err
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	f := &model.Feedback{Message: req.Message}
	if p.IsSeller() {
		f.SellerID = p.ID
	} else {
		f.ClientID = p.ID
	}
	if err := s.feedbackRepo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return f, nil
}

// List returns every entry, newest first. Clients, sellers and the superadmin may read it.
func (s *FeedbackService) List(ctx context.Context, p model.Principal) ([]model.Feedback, error) {
	if !p.IsSuperAdmin() {
		if err := requireClientOrSeller(p); err != nil {
			return nil, err
		}
	}
	entries, err := s.feedbackRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return entries, nil
}

// Delete removes the caller's own entry. Someone else's entry reads as not found.
func (s *FeedbackService) Delete(ctx context.Context, p model.Principal, id int64) error {
	if err := requireClientOrSeller(p); err != nil {
		return err
	}
	deleted, err := s.feedbackRepo.DeleteByAuthor(ctx, id, p)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if !deleted {
		return ErrFeedbackNotFound
	}
	return nil
}

// Moderate lets the superadmin remove any entry.
func (s *FeedbackService) Moderate(ctx context.Context, p model.Principal, id int64) error {
	if err := requireSuperAdmin(p); err != nil {
		return err
	}
	deleted, err := s.feedbackRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if !deleted {
		return ErrFeedbackNotFound
	}
	s.log.Info("feedback removed by superadmin", "feedback_id", id, "admin", p.Username)
	return nil
}
