package store

import (
	"testing"
	"time"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	sessions := NewJWTSessionStore("test-secret", time.Hour, nil)
	token, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("resolve token: ok=%v err=%v", ok, err)
	}
	if uid != "user-1" {
		t.Fatalf("uid = %q, want user-1", uid)
	}
}

func TestJWTSessionRejectsGarbage(t *testing.T) {
	sessions := NewJWTSessionStore("test-secret", time.Hour, nil)
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, ok, err := sessions.GetUserIDByToken(token); ok || err == nil {
			t.Fatalf("token %q should not resolve", token)
		}
	}
}

func TestJWTSessionRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTSessionStore("secret-a", time.Hour, nil)
	verifier := NewJWTSessionStore("secret-b", time.Hour, nil)
	token, err := issuer.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := verifier.GetUserIDByToken(token); ok {
		t.Fatalf("token signed with another secret should not resolve")
	}
}

func TestJWTSessionRevocation(t *testing.T) {
	sessions := NewJWTSessionStore("test-secret", time.Hour, NewMemoryTokenRevoker())
	token, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sessions.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := sessions.GetUserIDByToken(token); ok {
		t.Fatalf("revoked token should not resolve")
	}

	// a second token stays valid
	other, err := sessions.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := sessions.GetUserIDByToken(other); !ok {
		t.Fatalf("fresh token should resolve: %v", err)
	}
}
