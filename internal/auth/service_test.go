package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mvetrov/churnguard/internal/store"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewService(st, "")

	user, token, err := svc.Register(ctx, "alice", "hunter22-long", "alice@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q", user.Username)
	}
	if !strings.HasPrefix(token, DefaultTokenPrefix) {
		t.Errorf("token %q missing prefix %q", token, DefaultTokenPrefix)
	}
	if user.PasswordHash == "hunter22-long" {
		t.Error("password stored in plaintext")
	}

	// Same credentials log in and yield a fresh token.
	_, token2, err := svc.Login(ctx, "alice", "hunter22-long")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token2 == token {
		t.Error("login reused the registration token")
	}

	if _, _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "hunter22-long"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore(), "")

	tests := []struct {
		name     string
		username string
		password string
		email    string
		field    string
	}{
		{"short username", "ab", "longenough", "a@example.com", "username"},
		{"empty username", "", "longenough", "a@example.com", "username"},
		{"short password", "alice", "short", "a@example.com", "password"},
		{"bad email", "alice", "longenough", "not-an-email", "email"},
		{"empty email", "alice", "longenough", "", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.username, tt.password, tt.email)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("field %q not reported: %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore(), "")

	if _, _, err := svc.Register(ctx, "alice", "longenough", "alice@example.com"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, _, err := svc.Register(ctx, "alice", "longenough", "alice2@example.com")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("duplicate error = %v, want *ValidationError", err)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewService(st, "")

	user, token, err := svc.Register(ctx, "alice", "longenough", "alice@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.Authenticate(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated as user %d, want %d", got.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "Bearer "+DefaultTokenPrefix+"bogus"); err == nil {
		t.Error("bogus token accepted")
	}
	if _, err := svc.Authenticate(ctx, ""); err == nil {
		t.Error("empty header accepted")
	}

	// The matching token's last-used timestamp updates in the background.
	deadline := time.Now().Add(2 * time.Second)
	for {
		tokens, _ := st.ListTokens(ctx)
		if len(tokens) > 0 && !tokens[0].LastUsedAt.IsZero() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("token last-used timestamp never updated")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"Bearer   padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := ExtractBearerToken(tt.header); got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestTokenPrefix(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), "test_")
	_, token, err := svc.Register(context.Background(), "bob", "longenough", "bob@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(token, "test_") {
		t.Fatalf("token %q missing custom prefix", token)
	}
}
