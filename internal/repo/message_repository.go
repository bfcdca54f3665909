package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/db"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
)

var (
	ErrInvalidMessage   = errors.New("invalid message: message cannot be nil")
	ErrInvalidObjectID  = errors.New("invalid object id")
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

// MessageRepository is the durable message log: source of truth for history
// and read/unread state. The consistency unit is a single message row; the
// only multi-row operation is the unordered bulk mark-as-read.
type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (primitive.ObjectID, error)
	Between(ctx context.Context, a, b primitive.ObjectID, page int64) (*db.PaginatedResult[model.Message], error)
	MarkConversationRead(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error)
	UnreadCounts(ctx context.Context, receiverID primitive.ObjectID) (map[string]int64, error)
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
// Insert
// -----------------------------------------------------------------------------

func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (primitive.ObjectID, error) {
	if msg == nil {
		return primitive.NilObjectID, ErrInvalidMessage
	}
	if msg.SenderID.IsZero() || msg.ReceiverID.IsZero() {
		return primitive.NilObjectID, ErrInvalidObjectID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return primitive.NilObjectID, err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			insertedID := primitive.NilObjectID
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				insertedID = oid
			}

			m.logger.Info("message inserted",
				zap.String("inserted_id", insertedID.Hex()),
				zap.String("sender_id", msg.SenderID.Hex()),
				zap.String("receiver_id", msg.ReceiverID.Hex()),
				zap.Int("attempt", attempt+1),
			)
			return insertedID, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries", zap.Error(lastErr))
	return primitive.NilObjectID, fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// Between - the history for a user pair, both directions, created_at ascending
// -----------------------------------------------------------------------------

func (m *messageRepository) Between(ctx context.Context, a, b primitive.ObjectID, page int64) (*db.PaginatedResult[model.Message], error) {
	if a.IsZero() || b.IsZero() {
		return nil, ErrInvalidObjectID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	).Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: historyPageSize,
			SortBy:   "created_at",
			SortDesc: false,
		})

		if err == nil {
			m.logger.Debug("history fetched",
				zap.Int("count", len(result.Data)),
				zap.Int64("total", result.Total),
				zap.Int64("page", result.Page),
			)
			return result, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr)
}

// -----------------------------------------------------------------------------
// MarkConversationRead - unordered bulk update, read only moves false -> true
// -----------------------------------------------------------------------------

func (m *messageRepository) MarkConversationRead(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	if senderID.IsZero() || receiverID.IsZero() {
		return 0, ErrInvalidObjectID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("sender_id", senderID).
		Eq("receiver_id", receiverID).
		Eq("read", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{"read": true})
	if err != nil {
		m.logger.Error("failed to mark conversation read",
			zap.String("sender_id", senderID.Hex()),
			zap.String("receiver_id", receiverID.Hex()),
			zap.Error(err),
		)
		return 0, fmt.Errorf("mark conversation read failed: %w", err)
	}

	m.logger.Debug("conversation marked read",
		zap.String("sender_id", senderID.Hex()),
		zap.String("receiver_id", receiverID.Hex()),
		zap.Int64("modified", result.ModifiedCount),
	)
	return result.ModifiedCount, nil
}

// -----------------------------------------------------------------------------
// UnreadCounts - read-mostly aggregate grouping unread messages by sender.
// Concurrent inserts during the scan are fine; the next poll catches up.
// -----------------------------------------------------------------------------

func (m *messageRepository) UnreadCounts(ctx context.Context, receiverID primitive.ObjectID) (map[string]int64, error) {
	if receiverID.IsZero() {
		return nil, ErrInvalidObjectID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"receiver_id": receiverID, "read": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$sender_id", "count": bson.M{"$sum": 1}}}},
	}

	var rows []struct {
		SenderID primitive.ObjectID `bson:"_id"`
		Count    int64              `bson:"count"`
	}
	if err := m.mongoRepo.Aggregate(ctx, pipeline, &rows); err != nil {
		m.logger.Error("unread counts aggregate failed",
			zap.String("receiver_id", receiverID.Hex()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("unread counts failed: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.SenderID.Hex()] = row.Count
	}
	return counts, nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

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

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil // Not an error, just empty result
	}

	return fmt.Errorf("fetch history failed: %w", err)
}
