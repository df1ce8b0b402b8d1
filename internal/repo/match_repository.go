package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"DevMatch/internal/db"
	"DevMatch/internal/model"
)

// MatchRepository is the connections directory: the record of who
// swiped on whom and whether it became mutual. The chat layer only
// reads it; the swipe flow writes it. Satisfies hub.MatchDirectory.
type MatchRepository interface {
	IsMatched(ctx context.Context, userID, targetUserID string) (bool, error)
	ListMatches(ctx context.Context, userID string) ([]model.MatchConnection, error)
}

type matchRepository struct {
	mongoRepo *db.Repository[model.MatchConnection]
	logger    *zap.Logger
}

func NewMatchRepository(repo *db.Repository[model.MatchConnection], logger *zap.Logger) MatchRepository {
	return &matchRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// IsMatched reports whether an accepted connection exists between the
// two users, in either direction.
func (r *matchRepository) IsMatched(ctx context.Context, userID, targetUserID string) (bool, error) {
	if userID == "" || targetUserID == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("status", model.MatchStatusAccepted).
		Or(
			bson.M{"requester_id": userID, "target_id": targetUserID},
			bson.M{"requester_id": targetUserID, "target_id": userID},
		).
		Build()

	matched, err := r.mongoRepo.Exists(ctx, filter)
	if err != nil {
		r.logger.Error("match lookup failed",
			zap.String("user_id", userID),
			zap.String("target_user_id", targetUserID),
			zap.Error(err),
		)
		return false, fmt.Errorf("match lookup failed: %w", err)
	}

	return matched, nil
}

// ListMatches returns the user's accepted connections, for the
// conversation list.
func (r *matchRepository) ListMatches(ctx context.Context, userID string) ([]model.MatchConnection, error) {
	if userID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("status", model.MatchStatusAccepted).
		Or(
			bson.M{"requester_id": userID},
			bson.M{"target_id": userID},
		).
		Build()

	matches, err := r.mongoRepo.FindAll(ctx, filter, "created_at")
	if err != nil {
		r.logger.Error("match list failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("match list failed: %w", err)
	}

	return matches, nil
}
