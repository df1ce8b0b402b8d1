package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"DevMatch/internal/db"
	"DevMatch/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository resolves user ids to profile projections. The profile
// service owns the documents; the chat layer only reads display data.
// Satisfies hub.UserDirectory.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("user_id", userID).Build()

	user, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		r.logger.Error("user lookup failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	return user, nil
}
