package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestParseUsers(t *testing.T) {
	hash := mustHash(t, "secret")

	tests := []struct {
		name      string
		doc       string
		wantUsers int
		errMsg    string
	}{
		{
			name:      "valid",
			doc:       "users:\n  - username: alice\n    password: " + hash + "\n  - username: bob\n    password: " + hash + "\n",
			wantUsers: 2,
		},
		{
			name:      "empty document",
			doc:       "",
			wantUsers: 0,
		},
		{
			name:   "invalid yaml",
			doc:    "users: [",
			errMsg: "invalid YAML syntax",
		},
		{
			name:   "missing username",
			doc:    "users:\n  - password: " + hash + "\n",
			errMsg: "username is required",
		},
		{
			name:   "plain text password",
			doc:    "users:\n  - username: alice\n    password: hunter2\n",
			errMsg: "must be a bcrypt hash",
		},
		{
			name:   "duplicate",
			doc:    "users:\n  - username: alice\n    password: " + hash + "\n  - username: alice\n    password: " + hash + "\n",
			errMsg: "duplicate username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := ParseUsers([]byte(tt.doc))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsers, dir.Len())
		})
	}
}

func TestDirectory_Verify(t *testing.T) {
	dir, err := ParseUsers([]byte("users:\n  - username: alice\n    password: " + mustHash(t, "secret") + "\n"))
	require.NoError(t, err)

	assert.True(t, dir.Has("alice"))
	assert.False(t, dir.Has("bob"))
	assert.NoError(t, dir.Verify("alice", "secret"))
	assert.ErrorIs(t, dir.Verify("alice", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, dir.Verify("bob", "secret"), ErrInvalidCredentials)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))
}
