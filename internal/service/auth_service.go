package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	config "github.com/maheshrc27/socialdesk/configs"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/repository"
	"github.com/maheshrc27/socialdesk/internal/transfer"
	"github.com/maheshrc27/socialdesk/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, email, password string) (*transfer.AuthResponse, error)
	Register(ctx context.Context, req *transfer.RegisterRequest) (*transfer.AuthResponse, error)
	Verify(ctx context.Context, email, password string) (*models.User, error)
	Create(ctx context.Context, username, email, password, role string) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
	EnsureUser(ctx context.Context, username, email, password, role string) error
}

type authService struct {
	cfg     config.Config
	u       repository.UserRepository
	cost    int
	compare func(hash, password []byte) error

	dummyOnce sync.Once
	dummy     []byte
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg:     cfg,
		u:       u,
		cost:    bcryptCost,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// dummyHash is compared against when the email is unknown so both failure
// paths pay for one bcrypt comparison at the same cost.
func (s *authService) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("socialdesk-dummy-password"), s.cost)
		if err != nil {
			slog.Error("unable to build dummy password hash", "error", err)
			return
		}
		s.dummy = hash
	})
	return s.dummy
}

func (s *authService) Login(ctx context.Context, email, password string) (*transfer.AuthResponse, error) {
	user, err := s.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user, "Login successful")
}

func (s *authService) Register(ctx context.Context, req *transfer.RegisterRequest) (*transfer.AuthResponse, error) {
	user, err := s.Create(ctx, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, err
	}
	return s.issue(user, "User created successfully")
}

func (s *authService) issue(user *models.User, message string) (*transfer.AuthResponse, error) {
	token, err := utils.GenerateToken(s.cfg.SecretKey, user.ID, user.Role, s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &transfer.AuthResponse{Message: message, Token: token, User: user}, nil
}

// Verify never reveals whether the email exists.
func (s *authService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, isExist, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !isExist {
		slog.Info("login attempt for unknown email")
		_ = s.compare(s.dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			slog.Info(err.Error())
		}
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *authService) Create(ctx context.Context, username, email, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" || email == "" || password == "" {
		return nil, validationf("Missing required fields: username, email, password")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationf("Invalid email address")
	}

	if role == "" {
		role = models.RoleEditor
	}
	if !models.ValidRole(role) {
		return nil, validationf("Invalid role: %s", role)
	}

	exists, err := s.u.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("error checking user: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if _, err := s.u.Create(ctx, nil, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if next == "" {
		return validationf("New password is required")
	}

	user, isExist, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error getting user: %w", err)
	}
	if !isExist {
		return ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return s.u.UpdatePassword(ctx, userID, string(hash))
}

// EnsureUser creates the user unless the email is already registered.
func (s *authService) EnsureUser(ctx context.Context, username, email, password, role string) error {
	_, isExist, err := s.u.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return err
	}
	if isExist {
		return nil
	}

	_, err = s.Create(ctx, username, email, password, role)
	if errors.Is(err, ErrConflict) {
		return nil
	}
	return err
}
