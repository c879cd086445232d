package service

import (
	"context"
	"strings"

	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// adminService is the concrete implementation of AdminService
type adminService struct {
	admins repository.AdminRepository
	log    zerolog.Logger
}

func newAdminService(admins repository.AdminRepository, log zerolog.Logger) AdminService {
	return &adminService{
		admins: admins,
		log:    log.With().Str("component", "admin").Logger(),
	}
}

// Login validates admin credentials. Wrong username and wrong password
// produce the same failure message.
func (s *adminService) Login(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, Failf("username and password are required")
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, Failf("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.log.Warn().Str("username", username).Msg("Failed login attempt")
		return nil, Failf("invalid username or password")
	}

	s.log.Info().Str("username", username).Msg("Admin logged in")
	return admin, nil
}

// GetConfig reads a site configuration value, falling back when unset
func (s *adminService) GetConfig(ctx context.Context, key, fallback string) (string, error) {
	value, ok, err := s.admins.GetConfig(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return fallback, nil
	}
	return value, nil
}

// SetConfig upserts a site configuration value
func (s *adminService) SetConfig(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return Failf("config key is required")
	}
	return s.admins.SetConfig(ctx, key, value)
}
