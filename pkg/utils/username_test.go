package utils

import "testing"

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "bob_99", "A1b2C3", "abc", "12345678901234567890"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{"ab", "_alice", "has space", "dash-name", "emoji😀", "123456789012345678901"}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) = nil, want error", u)
		}
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  Alice_99 "); got != "alice_99" {
		t.Errorf("NormalizeUsername() = %q, want alice_99", got)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	ok, err := VerifyPassword("s3cret-pass", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = %v, %v, want true, nil", ok, err)
	}

	ok, err = VerifyPassword("wrong-pass", hash)
	if err != nil {
		t.Fatalf("VerifyPassword(wrong) error = %v", err)
	}
	if ok {
		t.Error("VerifyPassword(wrong) = true, want false")
	}

	if _, err := VerifyPassword("x", "not-a-hash"); err == nil {
		t.Error("VerifyPassword(malformed hash) = nil error, want error")
	}
}
