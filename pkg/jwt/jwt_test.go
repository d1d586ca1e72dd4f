package jwt

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	school := uuid.New()
	in := Claims{
		UserID:       uuid.New(),
		Email:        "head@school.rw",
		Name:         "Head Teacher",
		RoleCode:     "SCHOOL_STAFF",
		SchoolID:     &school,
		Privileges:   []string{"stock:out"},
		TokenVersion: "v1",
	}

	token, err := GenerateToken(in)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	out, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out.UserID != in.UserID || out.RoleCode != in.RoleCode || out.TokenVersion != "v1" {
		t.Fatalf("claims mismatch: %+v", out)
	}
	if out.SchoolID == nil || *out.SchoolID != school || out.DistrictID != nil {
		t.Fatalf("scope mismatch: school=%v district=%v", out.SchoolID, out.DistrictID)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "one")
	token, err := GenerateToken(Claims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	t.Setenv("JWT_SECRET", "two")
	if _, err := ValidateToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsNoneAlg(t *testing.T) {
	tok := gojwt.NewWithClaims(gojwt.SigningMethodNone, &Claims{UserID: uuid.New()})
	s, err := tok.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ValidateToken(s); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestConfiguredSecretTakesPrecedence(t *testing.T) {
	t.Cleanup(func() { SetSecret("") })
	t.Setenv("JWT_SECRET", "from-env")
	SetSecret("from-config")

	token, err := GenerateToken(Claims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateToken(token); err != nil {
		t.Fatalf("validate with configured secret: %v", err)
	}

	SetSecret("")
	if _, err := ValidateToken(token); err != ErrInvalidToken {
		t.Fatalf("token signed with the configured secret must not verify against JWT_SECRET, got %v", err)
	}
}
