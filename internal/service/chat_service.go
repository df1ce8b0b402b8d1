package service

import (
	"context"

	"go.uber.org/zap"

	"DevMatch/internal/db"
	"DevMatch/internal/hub"
	"DevMatch/internal/model"
	"DevMatch/internal/repo"
)

// ChatService backs the REST chat surface: the conversation list for
// the messages screen and paginated room history.
type ChatService interface {
	ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error)
	GetRoomMessages(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error)
}

type chatService struct {
	messages repo.MessageRepository
	matches  repo.MatchRepository
	users    repo.UserRepository
	logger   *zap.Logger
}

func NewChatService(messages repo.MessageRepository, matches repo.MatchRepository, users repo.UserRepository, logger *zap.Logger) ChatService {
	return &chatService{
		messages: messages,
		matches:  matches,
		users:    users,
		logger:   logger,
	}
}

// ListChats returns one summary per accepted match: the peer's display
// data and the latest message in the pair's room. Profile or preview
// lookups that fail degrade to an empty field rather than failing the
// whole list.
func (s *chatService) ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error) {
	matches, err := s.matches.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ChatSummary, 0, len(matches))
	for _, match := range matches {
		peerID := match.RequesterID
		if peerID == userID {
			peerID = match.TargetID
		}

		roomKey, err := hub.ResolveRoom(userID, peerID)
		if err != nil {
			s.logger.Warn("skipping match with unusable peer",
				zap.String("user_id", userID),
				zap.String("peer_id", peerID),
				zap.Error(err),
			)
			continue
		}

		summary := model.ChatSummary{
			RoomID:    roomKey,
			PeerID:    peerID,
			MatchedAt: match.CreatedAt,
		}

		if peer, err := s.users.GetUser(ctx, peerID); err == nil {
			summary.PeerName = peer.Name
			summary.PeerAvatar = peer.Avatar
		}

		if last, err := s.messages.LastMessage(ctx, roomKey); err == nil {
			summary.LastMessage = last
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (s *chatService) GetRoomMessages(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error) {
	return s.messages.FilterMessages(ctx, roomID, page)
}
