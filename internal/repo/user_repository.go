package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/db"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
)

// UserRepository reads user display metadata and maintains lastSeen. The
// user documents themselves are owned by the auth layer.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListExcept(ctx context.Context, selfID string) ([]model.User, error)
	TouchLastSeen(ctx context.Context, id string) error
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
}

func NewUserRepository(repo *db.Repository[model.User]) UserRepository {
	return &userRepository{
		mongoRepo: repo,
	}
}

func (r *userRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	result, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return result, nil
}

// ListExcept returns the contact list: every user except selfID, most
// recently created first.
func (r *userRepository) ListExcept(ctx context.Context, selfID string) ([]model.User, error) {
	selfObjectID, err := primitive.ObjectIDFromHex(selfID)
	if err != nil {
		return nil, model.ErrInvalidUserID
	}

	filter := db.NewFilter().Ne("_id", selfObjectID).Build()
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	users, err := r.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

func (r *userRepository) TouchLastSeen(ctx context.Context, id string) error {
	_, err := r.mongoRepo.UpdateByID(ctx, id, bson.M{"last_seen": time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("touch last seen failed: %w", err)
	}
	return nil
}
