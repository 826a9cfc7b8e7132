package handlers

import "testing"

func TestPasswordHashing(t *testing.T) {
	password := "reception-2026"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if hash == password {
		t.Fatal("hash must not equal the plaintext password")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestVerifyPasswordRejectsPlaintextStored(t *testing.T) {
	// A row holding a plaintext value instead of a bcrypt hash must
	// never verify.
	if err := verifyPassword("reception-2026", "reception-2026"); err == nil {
		t.Fatal("plaintext stored value must not verify")
	}
}
