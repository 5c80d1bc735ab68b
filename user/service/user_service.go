package service

import (
	"errors"

	"counseling-platform/backend/pkg/config"
	apperrors "counseling-platform/backend/pkg/errors"
	"counseling-platform/backend/pkg/jwt"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/user/models"
	"counseling-platform/backend/user/repository"

	"gorm.io/gorm"
)

type UserService struct {
	repo   repository.UserRepository
	tokens *jwt.Service
	log    *logger.Logger
}

func NewUserService(repo repository.UserRepository, tokens *jwt.Service, log *logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		log:    log.WithComponent("user"),
	}
}

// Register creates a new account. Emails are unique; a duplicate is a
// conflict.
func (s *UserService) Register(req *models.CreateUserRequest) (*models.User, error) {
	if _, err := s.repo.GetByEmail(req.Email); err == nil {
		return nil, apperrors.NewConflictError("EMAIL_TAKEN", "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" || !config.Get().Security.AllowRoleSignup {
		role = string(jwt.RoleUser)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate verifies credentials and issues a token
func (s *UserService) Authenticate(req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "invalid email or password")
		}
		return nil, "", err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "invalid email or password")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.TokenRole())
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.UpdateLastLogin(user.ID); err != nil {
		s.log.Warn("Failed to update last login", "user_id", user.ID, "error", err.Error())
	}

	return user, token, nil
}

// GetByID returns a user by id
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("USER_NOT_FOUND", "user not found")
		}
		return nil, err
	}
	return user, nil
}
