package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "password1" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword("password1", hash) {
		t.Fatalf("correct password should verify")
	}
	if CheckPassword("wrong-pass", hash) {
		t.Fatalf("wrong password should not verify")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("hashes should be salted")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("abcdef"); err != nil {
		t.Fatalf("six characters should pass: %v", err)
	}
	if err := ValidatePassword("abcde"); err == nil {
		t.Fatalf("five characters should fail")
	}
}
