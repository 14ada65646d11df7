package auth_test

import (
	"testing"
	"time"

	"github.com/geocoder89/schoolhub/internal/auth"
	"github.com/geocoder89/schoolhub/internal/domain/user"
)

func testIdentity() auth.Identity {
	first := "Site"
	last := "Admin"

	return auth.Identity{
		UserID:         "user-1",
		Email:          "admin@example.com",
		Role:           user.RoleAdmin,
		OrganizationID: "org-1",
		FirstName:      &first,
		LastName:       &last,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := m.GenerateAccessToken(testIdentity())

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.VerifyAccessToken(token)

	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != "user-1" || claims.Role != "ADMIN" || claims.OrganizationID != "org-1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	// the token must carry everything identity resolution needs
	id, err := auth.IdentityFromClaims(claims)

	if err != nil {
		t.Fatalf("identity from round-tripped claims: %v", err)
	}

	if id.Role != user.RoleAdmin || id.OrganizationID != "org-1" {
		t.Fatalf("identity mismatch: %+v", id)
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := auth.NewManager("test-secret", 15*time.Minute, 7*24*time.Hour)

	raw, jti, _, err := m.GenerateRefreshToken(testIdentity())

	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	if jti == "" {
		t.Fatalf("expected a jti")
	}

	if _, err := m.VerifyAccessToken(raw); err == nil {
		t.Fatalf("refresh token accepted as access token")
	}

	if _, err := m.VerifyRefreshToken(raw); err != nil {
		t.Fatalf("refresh token rejected by its own verifier: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m1 := auth.NewManager("secret-one", time.Minute, time.Hour)
	m2 := auth.NewManager("secret-two", time.Minute, time.Hour)

	token, err := m1.GenerateAccessToken(testIdentity())

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m2.VerifyAccessToken(token); err == nil {
		t.Fatalf("token signed with another secret was accepted")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := auth.NewManager("test-secret", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(testIdentity())

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.VerifyAccessToken(token); err == nil {
		t.Fatalf("expired token was accepted")
	}
}

func TestHashRefreshTokenIsDeterministic(t *testing.T) {
	m := auth.NewManager("test-secret", time.Minute, time.Hour)

	a := m.HashRefreshToken("raw-token")
	b := m.HashRefreshToken("raw-token")

	if a != b {
		t.Fatalf("same input hashed differently")
	}

	if a == m.HashRefreshToken("other-token") {
		t.Fatalf("different inputs collided")
	}

	if a == "raw-token" {
		t.Fatalf("hash must not be the raw token")
	}
}
