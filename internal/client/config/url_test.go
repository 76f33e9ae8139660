package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", NormalizeURL("http://localhost:8080/"))
	assert.Equal(t, "http://localhost:8080", NormalizeURL("http://localhost:8080//"))
	assert.Equal(t, "http://localhost:8080", NormalizeURL("http://localhost:8080"))
}

func TestResolveURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(URLEnvVar, "http://env")
		url, err := ResolveURL("http://flag/")
		require.NoError(t, err)
		assert.Equal(t, "http://flag", url)
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(URLEnvVar, "http://env/")
		url, err := ResolveURL("")
		require.NoError(t, err)
		assert.Equal(t, "http://env", url)
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(URLEnvVar, "")
		_, err := ResolveURL("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), URLEnvVar)
	})
}
