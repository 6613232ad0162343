package service

import (
	"context"
	"time"

	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/core/repository"
	"github.com/martijn/userbase/internal/logging"
)

type UserService struct {
	userRepo repository.UserRepository
	logger   logging.Logger
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository, logger logging.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns every user in insertion order.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, wrapStorageError("list users", err)
	}
	return users, nil
}

// Create stores a new user built from fields.
func (s *UserService) Create(ctx context.Context, fields domain.UserFields) (*domain.User, error) {
	user := domain.NewUser(fields, s.now())
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, wrapStorageError("create user", err)
	}

	s.logger.Info(ctx, "user created", "id", user.ID)
	return user, nil
}

// Read returns the user with the given id or ErrNotFound.
func (s *UserService) Read(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorageError("read user", err)
	}
	return user, nil
}

// Update replaces all mutable fields of an existing user.
func (s *UserService) Update(ctx context.Context, id int64, fields domain.UserFields) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorageError("update user", err)
	}

	user.Apply(fields, s.now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, wrapStorageError("update user", err)
	}

	s.logger.Info(ctx, "user updated", "id", user.ID)
	return user, nil
}

// Destroy permanently removes a user. Destroying twice yields ErrNotFound.
func (s *UserService) Destroy(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return wrapStorageError("destroy user", err)
	}

	s.logger.Info(ctx, "user destroyed", "id", id)
	return nil
}

// Count returns the number of stored users.
func (s *UserService) Count(ctx context.Context) (int, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return 0, wrapStorageError("count users", err)
	}
	return count, nil
}
