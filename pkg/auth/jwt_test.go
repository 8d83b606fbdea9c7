package auth

import (
	"strings"
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer abc123", "abc123", false},
		{"case insensitive scheme", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"missing token", "Bearer ", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"no scheme", "abc123", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := ExtractToken(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tc.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractToken failed: %v", err)
			}
			if token != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, token)
			}
		})
	}
}

func TestNewJWTAuth(t *testing.T) {
	if _, err := NewJWTAuth("", 0, 0); err == nil {
		t.Error("Expected error for empty secret")
	}

	a, err := NewJWTAuth("secret", 0, 0)
	if err != nil {
		t.Fatalf("NewJWTAuth failed: %v", err)
	}
	if a.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("Expected default access expiry, got %v", a.AccessTokenExpiry)
	}
	if a.RefreshTokenExpiry != 7*24*time.Hour {
		t.Errorf("Expected default refresh expiry, got %v", a.RefreshTokenExpiry)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a, err := NewJWTAuth("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTAuth failed: %v", err)
	}

	access, refresh, err := a.GenerateTokens("user-1", "a@b.c", "plus")
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}
	if access == refresh {
		t.Error("Access and refresh tokens must differ")
	}

	identity, err := a.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}
	if identity.ID != "user-1" || identity.Email != "a@b.c" || identity.Tier != "plus" {
		t.Errorf("Unexpected identity: %+v", identity)
	}

	claims, err := a.VerifyRefreshToken(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshToken failed: %v", err)
	}
	if claims.TokenID == "" {
		t.Error("Refresh token must carry a token ID")
	}
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	a, _ := NewJWTAuth("test-secret", time.Minute, time.Hour)
	other, _ := NewJWTAuth("other-secret", time.Minute, time.Hour)

	access, _, err := a.GenerateTokens("user-1", "a@b.c", "free")
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}

	if _, err := other.VerifyAccessToken(access); err == nil {
		t.Error("Token signed with a different secret must be rejected")
	}

	tampered := access[:len(access)-4] + "xxxx"
	if _, err := a.VerifyAccessToken(tampered); err == nil {
		t.Error("Tampered token must be rejected")
	}

	if _, err := a.VerifyAccessToken("not-a-token"); err == nil {
		t.Error("Garbage token must be rejected")
	}
}

func TestExpiredToken(t *testing.T) {
	a, _ := NewJWTAuth("test-secret", -time.Minute, time.Hour)

	access, _, err := a.GenerateTokens("user-1", "a@b.c", "free")
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}

	if _, err := a.VerifyAccessToken(access); err == nil {
		t.Error("Expired token must be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("Unexpected hash format: %q", hash)
	}

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !ok {
		t.Error("Correct password must verify")
	}

	ok, err = VerifyPassword(hash, "wrong password")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if ok {
		t.Error("Wrong password must not verify")
	}

	// Salted: same password, different hash.
	hash2, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == hash2 {
		t.Error("Two hashes of the same password must differ")
	}

	if _, err := VerifyPassword("bcrypt$whatever", "pw"); err == nil {
		t.Error("Unknown hash format must error")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("Expected error for short password")
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Errorf("Expected valid password, got %v", err)
	}
}
