package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	})

	svc, err := NewAuthService(privPEM, pubPEM, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateTokenPair(42)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != 42 || claims.TokenType != "access" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ValidateToken refresh: %v", err)
	}
	if refresh.TokenType != "refresh" || refresh.ID == "" {
		t.Fatalf("refresh token missing type or jti: %+v", refresh)
	}
}

func TestValidateAccessTokenRejectsRefreshToken(t *testing.T) {
	svc := newTestService(t)

	pair, _ := svc.GenerateTokenPair(1)
	if _, err := svc.ValidateAccessToken(pair.RefreshToken); err == nil {
		t.Fatal("expected refresh token to be rejected")
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newTestService(t)
	other := newTestService(t)

	pair, _ := other.GenerateTokenPair(1)
	if _, err := svc.ValidateToken(pair.AccessToken); err == nil {
		t.Fatal("expected token signed by another key to be rejected")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := newTestService(t)

	hash, err := svc.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !svc.CheckPasswordHash("correct horse battery staple", hash) {
		t.Fatal("expected matching password to verify")
	}
	if svc.CheckPasswordHash("wrong password", hash) {
		t.Fatal("expected mismatched password to fail")
	}
}
