package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/models"
	"github.com/docuforge/docuforge/pkg/auth"
	"github.com/docuforge/docuforge/pkg/logger"
	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrStore              = errors.New("user store failure")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// SignUpInput is the registration form.
type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

// DeleteHook runs before a user record is removed, e.g. to drop owned data.
type DeleteHook func(ctx context.Context, userID string) error

// Service encapsulates user-related business logic
type Service struct {
	repo     Repository
	onDelete []DeleteHook
	now      func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// OnDelete registers a hook run by Delete, in registration order.
func (s *Service) OnDelete(h DeleteHook) { s.onDelete = append(s.onDelete, h) }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if err := form.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := form.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		CompanyName:  strings.TrimSpace(in.CompanyName),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Infof("user %s signed up", u.ID)
	return u, nil
}

// Authenticate checks email and password. Unknown emails and wrong passwords
// both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfile changes the full and company names.
func (s *Service) UpdateProfile(ctx context.Context, id string, p Profile) (*models.User, error) {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return s.repo.UpdateProfile(ctx, id, Profile{FullName: trim(p.FullName), CompanyName: trim(p.CompanyName)})
}

// Delete removes the account after running the delete hooks. A failing hook
// stops the deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	for _, h := range s.onDelete {
		if err := h(ctx, id); err != nil {
			return fmt.Errorf("delete user %s: %w", id, err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Infof("user %s deleted", id)
	return nil
}
