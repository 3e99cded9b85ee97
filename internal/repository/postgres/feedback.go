package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/modchat/modchat/internal/domain"
)

// FeedbackRepository implements domain.FeedbackRepository
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create stores one survey submission. The ratings land in the ten
// question columns in submission order.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	query := `
		INSERT INTO feedback (timestamp, q1, q2, q3, q4, q5, q6, q7, q8, q9, q10, comments)
		VALUES (NOW(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, timestamp
	`

	args := make([]any, 0, domain.RatingCount+1)
	for _, rating := range feedback.Ratings {
		args = append(args, rating)
	}
	args = append(args, feedback.Comments)

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&feedback.ID, &feedback.CreatedAt); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	return nil
}
