package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"tokolaris/backend/internal/domain"
)

type authenticatorStub struct {
	actor domain.Actor
	err   error
}

func (s authenticatorStub) Authenticate(_ context.Context, _ string, _ string) (domain.Actor, error) {
	if s.err != nil {
		return domain.Actor{}, s.err
	}
	return s.actor, nil
}

func TestAuthManagerLoginAndParseRoundTrip(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, authenticatorStub{
		actor: domain.Actor{Username: "admin", Role: "admin"},
	})

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if resp.Role != "admin" {
		t.Fatalf("expected role admin, got %s", resp.Role)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestAuthManagerLoginPropagatesFailure(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, authenticatorStub{
		err: errors.New("invalid credentials"),
	})

	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "nope"})
	if err == nil {
		t.Fatalf("expected login to fail")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signer := NewAuthManager("secret-one", time.Hour, authenticatorStub{
		actor: domain.Actor{Username: "cashier", Role: "cashier"},
	})
	verifier := NewAuthManager("secret-two", time.Hour, nil)

	resp, err := signer.Login(context.Background(), domain.LoginRequest{Username: "cashier", Password: "x"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with different secret to be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)

	expiredAt := time.Now().UTC().Add(-time.Minute)
	token, err := manager.sign("admin", "admin", expiredAt)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := manager.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)
	if _, err := manager.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}
