package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

var ErrUserNotFound = fmt.Errorf("user %w", apperror.ErrNotFound)

type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) (*entity.User, bool, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

type dbUser struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) UserRepository {
	return &dbUser{
		client: client,
	}
}

// Upsert stores the user unless a record with the same ID already exists.
// It returns the stored record and whether it was created by this call.
func (that *dbUser) Upsert(ctx context.Context, user *entity.User) (*entity.User, bool, error) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal user: %w", err)
	}

	created, err := that.client.SetNX(ctx, userKey(user.UserID), userJSON, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to set user: %w", err)
	}

	if created {
		return user, true, nil
	}

	existingUser, err := that.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get existing user: %w", err)
	}

	return existingUser, false, nil
}

func (that *dbUser) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	response, err := that.client.Get(ctx, userKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	var existingUser entity.User
	if err = json.Unmarshal([]byte(response), &existingUser); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &existingUser, nil
}

func userKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}
