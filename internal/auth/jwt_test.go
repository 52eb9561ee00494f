package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/vitrina/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 1, "admin", model.RoleAdmin, model.SectorRealEstate)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username 'admin', got %q", claims.Username)
	}
	if !claims.IsAdmin() {
		t.Errorf("expected admin role, got %q", claims.Role)
	}
	if claims.Sector != model.SectorRealEstate {
		t.Errorf("expected sector %q, got %q", model.SectorRealEstate, claims.Sector)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
}

func TestTokenWithoutSector(t *testing.T) {
	token, _ := GenerateToken("s", 2, "maria", model.RoleUser, "")
	claims, err := ValidateToken("s", token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Sector != "" {
		t.Errorf("expected no sector, got %q", claims.Sector)
	}
}

func TestUnknownSectorDropped(t *testing.T) {
	claims := Claims{
		UserID: 3, Username: "x", Role: model.RoleUser, Sector: "food",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := ValidateToken("s", token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.Sector != "" {
		t.Errorf("expected unknown sector to be dropped, got %q", got.Sector)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", 1, "admin", model.RoleAdmin, "")

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	claims := Claims{
		UserID: 1, Role: model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if _, err := ValidateToken("s", token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, 1, "test", model.RoleUser, model.SectorAutomotive)
	claims, _ := ValidateToken(secret, token)

	diff := time.Until(claims.ExpiresAt.Time) - TokenExpiry
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
