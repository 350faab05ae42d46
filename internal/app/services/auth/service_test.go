package auth

import (
	"context"
	"testing"

	apperrors "github.com/taskflow-app/taskflow/internal/errors"

	"github.com/taskflow-app/taskflow/internal/app/storage/memory"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := New(memory.New(), "test-secret", nil)
	ctx := context.Background()

	token, u, err := svc.Register(ctx, "Alice", "Alice@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token to be issued")
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", u.Email)
	}

	loginToken, loginUser, err := svc.Login(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginToken == "" || loginUser.ID != u.ID {
		t.Fatalf("login returned wrong identity: %+v", loginUser)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := New(memory.New(), "test-secret", nil)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Register(ctx, "Other Alice", "ALICE@example.com", "pw2")
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if svcErr.HTTPStatus != 400 {
		t.Fatalf("duplicate email must map to 400, got %d", svcErr.HTTPStatus)
	}
}

func TestRegisterRequiresFields(t *testing.T) {
	svc := New(memory.New(), "test-secret", nil)
	ctx := context.Background()

	cases := [][3]string{
		{"", "a@b.com", "pw"},
		{"  ", "a@b.com", "pw"},
		{"Alice", "", "pw"},
		{"Alice", "a@b.com", ""},
	}
	for _, c := range cases {
		_, _, err := svc.Register(ctx, c[0], c[1], c[2])
		if svcErr := apperrors.GetServiceError(err); svcErr == nil || svcErr.Code != apperrors.CodeValidation {
			t.Fatalf("Register(%q,%q,%q): expected validation error, got %v", c[0], c[1], c[2], err)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := New(memory.New(), "test-secret", nil)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "correct"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// wrong password and unknown email must be indistinguishable
	for _, c := range [][2]string{
		{"alice@example.com", "wrong"},
		{"nobody@example.com", "correct"},
	} {
		_, _, err := svc.Login(ctx, c[0], c[1])
		svcErr := apperrors.GetServiceError(err)
		if svcErr == nil || svcErr.Message != "invalid email or password" {
			t.Fatalf("Login(%q): expected invalid credentials error, got %v", c[0], err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	store := memory.New()
	svc := New(store, "test-secret", nil)
	ctx := context.Background()

	token, registered, err := svc.Register(ctx, "Alice", "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != registered.ID {
		t.Fatalf("token resolved to wrong user: %s", u.ID)
	}

	if _, err := svc.Authenticate(ctx, "not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}

	// token signed with a different secret must be rejected
	other := New(store, "other-secret", nil)
	foreign, _, err := other.Register(ctx, "Bob", "bob@example.com", "pw")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	if _, err := svc.Authenticate(ctx, foreign); err == nil {
		t.Fatalf("expected foreign-signed token to be rejected")
	}
}
