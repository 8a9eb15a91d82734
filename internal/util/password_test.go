package util

import "testing"

func TestDeriveAndVerifyPassword(t *testing.T) {
	hash, salt, err := DerivePassword("s3cret-pass")
	if err != nil {
		t.Fatalf("DerivePassword returned error: %v", err)
	}
	if len(hash) == 0 || len(salt) == 0 {
		t.Fatalf("expected hash and salt to be populated")
	}
	if !VerifyPassword("s3cret-pass", salt, hash) {
		t.Fatalf("expected password verification to succeed")
	}
	if VerifyPassword("wrong-pass", salt, hash) {
		t.Fatalf("expected password verification to fail for wrong password")
	}
}

func TestHashPasswordEmptyInput(t *testing.T) {
	if _, err := HashPassword("", []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error when password empty")
	}
	if _, err := HashPassword("secret", nil); err == nil {
		t.Fatalf("expected error when salt empty")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{password: "Short1!", ok: false},
		{password: "alllowercase1!", ok: false},
		{password: "ALLUPPERCASE1!", ok: false},
		{password: "NoDigitsHere!", ok: false},
		{password: "NoSymbols123", ok: false},
		{password: "Valid#Pass9", ok: true},
	}
	for _, tc := range tests {
		err := ValidatePassword(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected validation error", tc.password)
		}
	}
}

func TestGenerateTemporaryPasswordIsValid(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		pw, err := GenerateTemporaryPassword()
		if err != nil {
			t.Fatalf("GenerateTemporaryPassword returned error: %v", err)
		}
		if len(pw) != tempPasswordLen {
			t.Fatalf("expected length %d, got %d", tempPasswordLen, len(pw))
		}
		if err := ValidatePassword(pw); err != nil {
			t.Fatalf("generated password %q failed policy: %v", pw, err)
		}
		seen[pw] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected generated passwords to vary")
	}
}
