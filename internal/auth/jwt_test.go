package auth

import (
	"strings"
	"testing"
	"time"
)

const (
	testSecret = "test-secret"
	testWallet = "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, testWallet, "alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.Wallet != testWallet {
		t.Errorf("wallet = %q, want %q", claims.Wallet, testWallet)
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q, want alice", claims.Username)
	}
	if claims.ID == "" {
		t.Error("token has no JTI")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, testWallet, "", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Error("token signed with a different secret should be rejected")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken(testSecret, testWallet, "", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ValidateToken(testSecret, token); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken(testSecret, "not.a.token"); err == nil {
		t.Error("malformed token should be rejected")
	}
}

func TestGenerateToken_UniqueJTI(t *testing.T) {
	a, _ := GenerateToken(testSecret, testWallet, "", time.Hour)
	b, _ := GenerateToken(testSecret, testWallet, "", time.Hour)
	if strings.Split(a, ".")[2] == strings.Split(b, ".")[2] {
		t.Error("two tokens should not share a signature")
	}
}
