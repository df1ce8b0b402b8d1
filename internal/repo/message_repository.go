package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"DevMatch/internal/db"
	"DevMatch/internal/model"
)

var (
	ErrInvalidMessage   = errors.New("invalid message: message cannot be nil")
	ErrInvalidRoomID    = errors.New("invalid room ID: cannot be empty")
	ErrOperationTimeout = errors.New("operation timeout exceeded")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	historyPageSize = 50
)

// MessageRepository is the message store boundary: the hub writes
// messages and receipt/reaction updates through it and replays history
// from it on room join. It satisfies hub.MessageStore.
type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *model.Message) error
	LoadHistory(ctx context.Context, roomID string) ([]model.Message, error)
	FilterMessages(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error)
	LastMessage(ctx context.Context, roomID string) (*model.Message, error)
	UpdateReadBy(ctx context.Context, roomID, messageID string, readBy []string) error
	UpdateReactions(ctx context.Context, roomID, messageID string, reactions map[string][]string) error
}

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// SaveMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) SaveMessage(ctx context.Context, msg *model.Message) error {
	if err := m.validateMessage(msg); err != nil {
		return err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return err
			}
		}

		// message_id is unique within a room; re-sends upsert rather
		// than duplicate
		filter := db.NewFilter().
			Eq("room_id", msg.RoomID).
			Eq("message_id", msg.ID).
			Build()

		exists, err := m.mongoRepo.Exists(ctx, filter)
		if err == nil && exists {
			m.logger.Debug("message already stored",
				zap.String("message_id", msg.ID),
				zap.String("room_id", msg.RoomID),
			)
			return nil
		}

		if err == nil {
			_, err = m.mongoRepo.Create(ctx, *msg)
		}
		if err == nil {
			m.logger.Info("message stored",
				zap.String("message_id", msg.ID),
				zap.String("room_id", msg.RoomID),
				zap.Int("attempt", attempt+1),
			)
			return nil
		}

		lastErr = err
		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("message store attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to store message after all retries",
		zap.Error(lastErr),
		zap.String("room_id", msg.RoomID),
	)
	return fmt.Errorf("save message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// LoadHistory - full replay for a joining connection, oldest first
// -----------------------------------------------------------------------------

func (m *messageRepository) LoadHistory(ctx context.Context, roomID string) ([]model.Message, error) {
	if err := m.validateRoomID(roomID); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("room_id", roomID).Build()

	messages, err := m.mongoRepo.FindAll(ctx, filter, "timestamp")
	if err != nil {
		return nil, m.handleReadError(err, roomID)
	}

	m.logger.Debug("history loaded",
		zap.String("room_id", roomID),
		zap.Int("count", len(messages)),
	)
	return messages, nil
}

// -----------------------------------------------------------------------------
// FilterMessages - paginated history for the REST surface
// -----------------------------------------------------------------------------

func (m *messageRepository) FilterMessages(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if err := m.validateRoomID(roomID); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("room_id", roomID).Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("retrying message filter",
				zap.String("room_id", roomID),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: historyPageSize,
			SortBy:   "timestamp",
			SortDesc: false,
		})
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !m.isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr, roomID)
}

// -----------------------------------------------------------------------------
// LastMessage - preview for the conversation list
// -----------------------------------------------------------------------------

func (m *messageRepository) LastMessage(ctx context.Context, roomID string) (*model.Message, error) {
	if err := m.validateRoomID(roomID); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("room_id", roomID).Build()

	result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
		Page:     1,
		PageSize: 1,
		SortBy:   "timestamp",
		SortDesc: true,
	})
	if err != nil {
		return nil, m.handleReadError(err, roomID)
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return &result.Data[0], nil
}

// -----------------------------------------------------------------------------
// Receipt and reaction updates
// -----------------------------------------------------------------------------

func (m *messageRepository) UpdateReadBy(ctx context.Context, roomID, messageID string, readBy []string) error {
	return m.updateMessageField(ctx, roomID, messageID, "read_by", readBy)
}

func (m *messageRepository) UpdateReactions(ctx context.Context, roomID, messageID string, reactions map[string][]string) error {
	return m.updateMessageField(ctx, roomID, messageID, "reactions", reactions)
}

func (m *messageRepository) updateMessageField(ctx context.Context, roomID, messageID, field string, value any) error {
	if err := m.validateRoomID(roomID); err != nil {
		return err
	}
	if messageID == "" {
		return ErrInvalidMessage
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("room_id", roomID).
		Eq("message_id", messageID).
		Build()

	result, err := m.mongoRepo.Update(ctx, filter, bson.M{field: value})
	if err != nil {
		m.logger.Error("message update failed",
			zap.String("field", field),
			zap.String("message_id", messageID),
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		return fmt.Errorf("update %s failed: %w", field, err)
	}

	if result.MatchedCount == 0 {
		// Receipts can arrive for messages the store never saw (e.g. a
		// write that failed earlier). Not an error for the caller.
		m.logger.Debug("message update matched nothing",
			zap.String("field", field),
			zap.String("message_id", messageID),
			zap.String("room_id", roomID),
		)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) validateMessage(msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.RoomID == "" {
		return ErrInvalidRoomID
	}
	return nil
}

func (m *messageRepository) validateRoomID(roomID string) error {
	if roomID == "" {
		return ErrInvalidRoomID
	}
	return nil
}

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error, roomID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("room_id", roomID))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("room_id", roomID))
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil // empty history, not an error
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("room_id", roomID))
	return fmt.Errorf("read messages failed: %w", err)
}
