package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"DevMatch/internal/db"
	"DevMatch/internal/model"
	"DevMatch/internal/service"
)

// MockMessageRepository uses testify/mock to allow flexible expectation
// setting in tests.
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) SaveMessage(ctx context.Context, msg *model.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) LoadHistory(ctx context.Context, roomID string) ([]model.Message, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageRepository) FilterMessages(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error) {
	args := m.Called(ctx, roomID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.PaginatedResult[model.Message]), args.Error(1)
}

func (m *MockMessageRepository) LastMessage(ctx context.Context, roomID string) (*model.Message, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateReadBy(ctx context.Context, roomID, messageID string, readBy []string) error {
	args := m.Called(ctx, roomID, messageID, readBy)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdateReactions(ctx context.Context, roomID, messageID string, reactions map[string][]string) error {
	args := m.Called(ctx, roomID, messageID, reactions)
	return args.Error(0)
}

type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) IsMatched(ctx context.Context, userID, targetUserID string) (bool, error) {
	args := m.Called(ctx, userID, targetUserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) ListMatches(ctx context.Context, userID string) ([]model.MatchConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MatchConnection), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func TestListChatsBuildsSummariesPerMatch(t *testing.T) {
	messages := new(MockMessageRepository)
	matches := new(MockMatchRepository)
	users := new(MockUserRepository)

	matchedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	matches.On("ListMatches", mock.Anything, "u1").Return([]model.MatchConnection{
		{RequesterID: "u1", TargetID: "u2", Status: model.MatchStatusAccepted, CreatedAt: matchedAt},
		{RequesterID: "u3", TargetID: "u1", Status: model.MatchStatusAccepted, CreatedAt: matchedAt},
	}, nil)

	users.On("GetUser", mock.Anything, "u2").Return(&model.User{UserID: "u2", Name: "Linus", Avatar: "a2.png"}, nil)
	users.On("GetUser", mock.Anything, "u3").Return(&model.User{UserID: "u3", Name: "Grace"}, nil)

	last := &model.Message{ID: "m9", RoomID: "u1_u2", Text: "see you"}
	messages.On("LastMessage", mock.Anything, "u1_u2").Return(last, nil)
	messages.On("LastMessage", mock.Anything, "u1_u3").Return(nil, assert.AnError)

	svc := service.NewChatService(messages, matches, users, zap.NewNop())
	summaries, err := svc.ListChats(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "u1_u2", summaries[0].RoomID)
	assert.Equal(t, "u2", summaries[0].PeerID)
	assert.Equal(t, "Linus", summaries[0].PeerName)
	assert.Equal(t, "a2.png", summaries[0].PeerAvatar)
	assert.Equal(t, last, summaries[0].LastMessage)

	// a failing preview lookup degrades to an empty field
	assert.Equal(t, "u1_u3", summaries[1].RoomID)
	assert.Equal(t, "u3", summaries[1].PeerID)
	assert.Nil(t, summaries[1].LastMessage)

	matches.AssertExpectations(t)
	users.AssertExpectations(t)
	messages.AssertExpectations(t)
}

func TestListChatsPropagatesMatchListError(t *testing.T) {
	messages := new(MockMessageRepository)
	matches := new(MockMatchRepository)
	users := new(MockUserRepository)

	matches.On("ListMatches", mock.Anything, "u1").Return(nil, assert.AnError)

	svc := service.NewChatService(messages, matches, users, zap.NewNop())
	_, err := svc.ListChats(context.Background(), "u1")

	assert.ErrorIs(t, err, assert.AnError)
}

func TestListChatsSkipsUnusablePeer(t *testing.T) {
	messages := new(MockMessageRepository)
	matches := new(MockMatchRepository)
	users := new(MockUserRepository)

	// a self-match is corrupt data and must not produce a summary
	matches.On("ListMatches", mock.Anything, "u1").Return([]model.MatchConnection{
		{RequesterID: "u1", TargetID: "u1", Status: model.MatchStatusAccepted},
	}, nil)

	svc := service.NewChatService(messages, matches, users, zap.NewNop())
	summaries, err := svc.ListChats(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestGetRoomMessagesDelegates(t *testing.T) {
	messages := new(MockMessageRepository)
	matches := new(MockMatchRepository)
	users := new(MockUserRepository)

	page := &db.PaginatedResult[model.Message]{
		Data:  []model.Message{{ID: "m1"}},
		Page:  2,
		Total: 51,
	}
	messages.On("FilterMessages", mock.Anything, "u1_u2", int64(2)).Return(page, nil)

	svc := service.NewChatService(messages, matches, users, zap.NewNop())
	got, err := svc.GetRoomMessages(context.Background(), "u1_u2", 2)

	require.NoError(t, err)
	assert.Equal(t, page, got)
	messages.AssertExpectations(t)
}
