package service

import (
	"context"
	"testing"

	"github.com/JavaNood/record-log/internal/mocks"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func newTestAdminService(t *testing.T) (AdminService, *mocks.MockAdminRepository) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	admins := mocks.NewMockAdminRepository()
	admins.Admins["owner"] = &models.Admin{ID: 1, Username: "owner", PasswordHash: string(hash)}
	return newAdminService(admins, zerolog.Nop()), admins
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAdminService(t)

	admin, err := svc.Login(context.Background(), " owner ", "correct horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if admin.Username != "owner" {
		t.Errorf("unexpected admin: %+v", admin)
	}
}

func TestLogin_Rejections(t *testing.T) {
	svc, _ := newTestAdminService(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "owner", "incorrect horse"},
		{"unknown user", "nobody", "correct horse"},
		{"empty username", "", "correct horse"},
		{"empty password", "owner", ""},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.username, tt.password)
			f, ok := AsFailure(err)
			if !ok {
				t.Fatalf("expected a user-facing failure, got %v", err)
			}
			messages = append(messages, f.Message)
		})
	}

	// Wrong password and unknown user must be indistinguishable.
	if len(messages) >= 2 && messages[0] != messages[1] {
		t.Errorf("credential failures leak which part was wrong: %q vs %q", messages[0], messages[1])
	}
}

func TestSiteConfig(t *testing.T) {
	svc, _ := newTestAdminService(t)

	value, err := svc.GetConfig(context.Background(), "site_title", "fallback title")
	if err != nil || value != "fallback title" {
		t.Errorf("expected fallback, got %q (%v)", value, err)
	}

	if err := svc.SetConfig(context.Background(), "site_title", "my blog"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err = svc.GetConfig(context.Background(), "site_title", "fallback title")
	if err != nil || value != "my blog" {
		t.Errorf("expected stored value, got %q (%v)", value, err)
	}

	if err := svc.SetConfig(context.Background(), "  ", "x"); err == nil {
		t.Error("expected failure on blank key")
	}
}
