package httpapi

import (
	"context"
	"testing"
	"time"

	"waiasella/backend/internal/domain"
	"waiasella/backend/internal/store"
	"waiasella/backend/internal/store/memory"
)

func newTestAuth(t *testing.T) (*AuthManager, *memory.Gateway) {
	t.Helper()
	gateway := memory.New()
	auth := NewAuthManager(context.Background(), "test-secret-key", time.Hour, gateway)
	return auth, gateway
}

func TestLoginAndParseToken(t *testing.T) {
	auth, _ := newTestAuth(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	auth, _ := newTestAuth(t)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatalf("expected login failure")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "admin123"}); err == nil {
		t.Fatalf("expected unknown user rejection")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth, _ := newTestAuth(t)

	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestCreateCashierPersistsAccount(t *testing.T) {
	auth, gateway := newTestAuth(t)
	ctx := context.Background()

	if _, err := auth.CreateCashier(ctx, domain.CashierCreateRequest{Username: "ab", Password: "secret99"}); err == nil {
		t.Fatalf("expected short username rejection")
	}
	if _, err := auth.CreateCashier(ctx, domain.CashierCreateRequest{Username: "moana", Password: "123"}); err == nil {
		t.Fatalf("expected short password rejection")
	}

	cashier, err := auth.CreateCashier(ctx, domain.CashierCreateRequest{Username: "Moana", Password: "secret99"})
	if err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}
	if cashier.Username != "moana" || cashier.Role != "cashier" {
		t.Fatalf("unexpected cashier: %+v", cashier)
	}
	if _, err := auth.CreateCashier(ctx, domain.CashierCreateRequest{Username: "moana", Password: "secret99"}); err == nil {
		t.Fatalf("expected duplicate username rejection")
	}

	// The account survives a restart via the gateway.
	revived := NewAuthManager(ctx, "test-secret-key", time.Hour, gateway)
	if _, err := revived.Login(domain.LoginRequest{Username: "moana", Password: "secret99"}); err != nil {
		t.Fatalf("expected persisted account to log in: %v", err)
	}
}

func TestBootstrapUpgradesPlainTextPasswords(t *testing.T) {
	gateway := memory.New()
	ctx := context.Background()

	legacy := []domain.UserAccount{
		{Username: "oldtimer", Password: "plaintext1", Role: "cashier", Active: true, CreatedAt: time.Now().UTC()},
	}
	if err := store.SaveJSON(ctx, gateway, store.KeyUsers, legacy); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	auth := NewAuthManager(ctx, "test-secret-key", time.Hour, gateway)
	if _, err := auth.Login(domain.LoginRequest{Username: "oldtimer", Password: "plaintext1"}); err != nil {
		t.Fatalf("expected upgraded account to log in: %v", err)
	}

	var stored []domain.UserAccount
	if !store.LoadJSON(ctx, gateway, store.KeyUsers, &stored) || len(stored) != 1 {
		t.Fatalf("expected stored accounts")
	}
	if !isPasswordHash(stored[0].Password) {
		t.Fatalf("expected persisted password upgraded to bcrypt")
	}
}
