package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryTokenRevoker(t *testing.T) {
	revoker := NewMemoryTokenRevoker()
	if err := revoker.Revoke("jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := revoker.IsRevoked("jti-1")
	if err != nil || !revoked {
		t.Fatalf("jti-1 should be revoked: revoked=%v err=%v", revoked, err)
	}
	revoked, err = revoker.IsRevoked("jti-2")
	if err != nil || revoked {
		t.Fatalf("jti-2 should not be revoked: revoked=%v err=%v", revoked, err)
	}
	// non-positive TTL is a no-op: the token is already expired
	if err := revoker.Revoke("jti-3", -time.Second); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}
	if revoked, _ := revoker.IsRevoked("jti-3"); revoked {
		t.Fatalf("expired revocation should not stick")
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	revoker := NewRedisTokenRevoker(mr.Addr(), "")

	if err := revoker.Revoke("jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := revoker.IsRevoked("jti-1")
	if err != nil || !revoked {
		t.Fatalf("jti-1 should be revoked: revoked=%v err=%v", revoked, err)
	}

	// entries expire with the token
	mr.FastForward(2 * time.Minute)
	revoked, err = revoker.IsRevoked("jti-1")
	if err != nil || revoked {
		t.Fatalf("revocation should expire: revoked=%v err=%v", revoked, err)
	}
}
