package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/modchat/modchat/internal/a2a"
	"github.com/modchat/modchat/internal/domain"
)

// MockFeedbackRepository mocks the FeedbackRepository interface
type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

// MockEventRepository mocks the EventRepository interface
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockAgentClient mocks the AgentClient interface
type MockAgentClient struct {
	mock.Mock
}

func (m *MockAgentClient) SendTask(ctx context.Context, text, userToken, conversationID string) (*a2a.Task, error) {
	args := m.Called(ctx, text, userToken, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*a2a.Task), args.Error(1)
}

// MockFileExtractor mocks the FileExtractor interface
type MockFileExtractor struct {
	mock.Mock
}

func (m *MockFileExtractor) Extract(ctx context.Context, filenames []string) (string, error) {
	args := m.Called(ctx, filenames)
	return args.String(0), args.Error(1)
}
