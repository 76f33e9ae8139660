package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// UserConfig represents a user in the users.yaml document
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"` // bcrypt hash
}

// UsersFile represents the structure of users.yaml
type UsersFile struct {
	Users []UserConfig `yaml:"users"`
}

// Directory is an immutable username -> bcrypt hash index.
// Reloads build a new Directory and swap it in.
type Directory struct {
	users map[string]string
}

// NewDirectory returns an empty directory
func NewDirectory() *Directory {
	return &Directory{users: make(map[string]string)}
}

// ParseUsers builds a directory from a users.yaml document
func ParseUsers(data []byte) (*Directory, error) {
	var usersFile UsersFile
	if err := yaml.Unmarshal(data, &usersFile); err != nil {
		return nil, fmt.Errorf("failed to parse users file (invalid YAML syntax): %w", err)
	}

	dir := NewDirectory()
	for i, user := range usersFile.Users {
		if user.Username == "" {
			return nil, fmt.Errorf("user #%d: username is required", i+1)
		}
		if _, err := bcrypt.Cost([]byte(user.Password)); err != nil {
			return nil, fmt.Errorf("user %q: password must be a bcrypt hash: %w", user.Username, err)
		}
		if _, dup := dir.users[user.Username]; dup {
			return nil, fmt.Errorf("user %q: duplicate username", user.Username)
		}
		dir.users[user.Username] = user.Password
	}
	return dir, nil
}

// Len returns the number of users
func (d *Directory) Len() int {
	return len(d.users)
}

// Has reports whether the username exists
func (d *Directory) Has(username string) bool {
	_, ok := d.users[username]
	return ok
}

// Verify checks a password against the stored hash
func (d *Directory) Verify(username, password string) error {
	hashedPassword, exists := d.users[username]
	if !exists {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
