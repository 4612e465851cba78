package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"
)

type UserService struct {
	repo   domain.UserRepository
	logger *zerolog.Logger
}

func NewUserService(repo domain.UserRepository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, errValidation("%s", err.Error())
	}

	user := &models.User{Name: in.Name, Email: in.Email}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, errDuplicateEmail(in.Email, err)
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("User created")
	return user, nil
}

// Update applies a partial patch; absent fields keep their values.
func (s *UserService) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, errValidation("%s", err.Error())
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(user)

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			return nil, errDuplicateEmail(user.Email, err)
		case errors.Is(err, database.ErrNotFound):
			return nil, errNotFound("user", id, err)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, lookupError("user", id, err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, page models.Page) ([]models.User, error) {
	return s.repo.ListUsers(ctx, page)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return lookupError("user", id, err)
	}
	s.logger.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}

// lookupError turns a missing record into a NotFound service error and
// wraps everything else.
func lookupError(entity string, id int64, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return errNotFound(entity, id, err)
	}
	return fmt.Errorf("failed to load %s %d: %w", entity, id, err)
}
