package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modchat/modchat/internal/domain"
)

// FeedbackService validates and stores survey submissions.
type FeedbackService struct {
	repo domain.FeedbackRepository
}

// NewFeedbackService creates a feedback service. The repository may be nil
// when no database is configured; submissions then fail.
func NewFeedbackService(repo domain.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

// Submit validates and persists one submission. A rating count other than
// ten is a client error.
func (s *FeedbackService) Submit(ctx context.Context, feedback *domain.Feedback) error {
	if err := feedback.Validate(); err != nil {
		return domain.Fatal(domain.ErrInvalidRatings, http.StatusBadRequest,
			"Submitted invalid ratings").WithDetail(err.Error())
	}
	if s.repo == nil {
		return errors.New("feedback storage is not configured")
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}
	return nil
}
