package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

type UserService interface {
	Track(ctx context.Context, identity entity.Identity) (*entity.User, bool, error)
}

type userRepo interface {
	Upsert(ctx context.Context, user *entity.User) (*entity.User, bool, error)
}

type userService struct {
	userRepo userRepo
	now      func() time.Time
}

func NewUserService(userRepo userRepo) UserService {
	return &userService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// Track records a first-seen user. Repeated calls return the stored record with created == false.
func (that *userService) Track(ctx context.Context, identity entity.Identity) (*entity.User, bool, error) {
	user, created, err := that.userRepo.Upsert(ctx, entity.NewUser(identity, that.now().UTC()))
	if err != nil {
		return nil, false, fmt.Errorf("could not track user: %w", err)
	}

	return user, created, nil
}
