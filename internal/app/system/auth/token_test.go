package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/donationhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret-must-be-long-enough-32"

func testUser(role models.Role) models.User {
	return models.User{ID: primitive.NewObjectID(), Username: "alice", Role: role}
}

func TestTokens_IssueVerify(t *testing.T) {
	tk := NewTokens(testSecret, time.Hour)
	u := testUser(models.RoleStaff)

	raw, err := tk.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := tk.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.ID != u.ID || id.Username != "alice" || id.Role != models.RoleStaff {
		t.Errorf("identity = %+v, want id=%s alice staff", id, u.ID.Hex())
	}
}

func TestTokens_DefaultTTL(t *testing.T) {
	if got := NewTokens(testSecret, 0).TTL(); got != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultTokenTTL)
	}
}

func TestTokens_Expired(t *testing.T) {
	tk := NewTokens(testSecret, time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	tk.now = func() time.Time { return issued }

	raw, err := tk.Issue(testUser(models.RoleAdmin))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tk.now = time.Now
	if _, err := tk.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify expired token err = %v, want ErrInvalidToken", err)
	}
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, err := NewTokens(testSecret, time.Hour).Issue(testUser(models.RoleAdmin))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other := NewTokens("another-secret-that-is-also-long-32", time.Hour)
	if _, err := other.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify with wrong secret err = %v, want ErrInvalidToken", err)
	}
}

func TestTokens_Malformed(t *testing.T) {
	tk := NewTokens(testSecret, time.Hour)
	for _, raw := range []string{"", "abc", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		if _, err := tk.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		ID:       primitive.NewObjectID().Hex(),
		Username: "mallory",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokens(testSecret, time.Hour).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify HS512 token err = %v, want ErrInvalidToken", err)
	}
}

func TestTokens_RejectsUnknownRole(t *testing.T) {
	claims := Claims{
		ID:       primitive.NewObjectID().Hex(),
		Username: "bob",
		Role:     "superadmin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokens(testSecret, time.Hour).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify unknown role err = %v, want ErrInvalidToken", err)
	}
}
