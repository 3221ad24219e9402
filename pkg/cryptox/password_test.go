package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash should be in PHC format")
			require.Len(t, strings.Split(hash, "$"), 6)
			require.NotContains(t, hash, tt.password)

			require.NoError(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("samepassword")
	require.NoError(t, err)
	h2, err := HashPassword("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
	require.NoError(t, VerifyPassword("samepassword", h1))
	require.NoError(t, VerifyPassword("samepassword", h2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-Password", "correct-password ", "", "correct-passwor"} {
		require.ErrorIs(t, VerifyPassword(wrong, hash), ErrMismatch, "input %q", wrong)
	}
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
		want error
	}{
		{"empty hash", "", ErrUnknownScheme},
		{"unknown scheme", "$scrypt$ln=15$c2FsdA$aGFzaA", ErrUnknownScheme},
		{"missing parts", "$argon2id$v=19$m=19456", ErrInvalidHash},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA", ErrInvalidHash},
		{"zero parameters", "$argon2id$v=19$m=0,t=2,p=1$c2FsdA$aGFzaA", ErrInvalidHash},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA", ErrInvalidHash},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!", ErrInvalidHash},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA", ErrInvalidHash},
		{"truncated bcrypt", "$2b$12$short", ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, VerifyPassword("test-password", tt.hash), tt.want)
		})
	}
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(raw)

	require.True(t, NeedsRehash(hash))
	require.NoError(t, VerifyPassword("ChangeMe123!", hash))
	require.ErrorIs(t, VerifyPassword("changeme123!", hash), ErrMismatch)

	native, err := HashPassword("ChangeMe123!")
	require.NoError(t, err)
	require.False(t, NeedsRehash(native))
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("tickets")
	require.NoError(t, err)
	require.Len(t, a, 32)

	again, err := DeriveKey("tickets")
	require.NoError(t, err)
	require.Equal(t, a, again, "derivation is deterministic for a fixed pepper")

	b, err := DeriveKey("other")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
