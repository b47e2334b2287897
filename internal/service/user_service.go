package service

import (
	"context"
	"strings"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/google/uuid"
)

type UserService struct {
	userRepo UserRepository
}

func NewUserService(userRepo UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.NewUserProfile(user), nil
}

// UpdateProfile applies the fields present in req. Absent fields are left
// unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req domain.UpdateUserRequest) (*domain.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return domain.NewUserProfile(user), nil
}
