package domain

import (
	"context"
	"fmt"
	"time"
)

// RatingCount is the number of answers a feedback submission must carry.
const RatingCount = 10

// Feedback is one survey submission: exactly ten ratings and an optional
// free-text comment.
type Feedback struct {
	ID        int64     `json:"id"`
	Ratings   []int     `json:"ratings"`
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate rejects submissions without exactly RatingCount ratings.
func (f *Feedback) Validate() error {
	if len(f.Ratings) != RatingCount {
		return fmt.Errorf("expected %d ratings, got %d", RatingCount, len(f.Ratings))
	}
	return nil
}

// FeedbackRepository persists survey submissions.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *Feedback) error
}
