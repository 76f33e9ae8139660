package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/storage"
)

// skipIfNoOCIConfig skips the test unless a published users artifact is
// configured. The artifact must hold a valid users.yaml layer.
func skipIfNoOCIConfig(t *testing.T) (uri, token string) {
	uri, token = os.Getenv("GUESTGATE_TEST_OCI_URI"), os.Getenv("GUESTGATE_TEST_OCI_TOKEN")
	if uri == "" || token == "" {
		t.Skip("OCI integration tests require GUESTGATE_TEST_OCI_URI and GUESTGATE_TEST_OCI_TOKEN")
	}
	return uri, token
}

func TestOCISource_FetchUsers(t *testing.T) {
	rawURI, token := skipIfNoOCIConfig(t)

	uri, err := storage.ParseStorageURI(rawURI)
	require.NoError(t, err)

	source, err := storage.NewSource(uri, token, newTestLogger())
	require.NoError(t, err)
	defer source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	data, err := source.Fetch(ctx)
	require.NoError(t, err)

	dir, err := auth.ParseUsers(data)
	require.NoError(t, err)
	assert.Positive(t, dir.Len())
}

func TestOCISource_InvalidToken(t *testing.T) {
	rawURI, _ := skipIfNoOCIConfig(t)

	uri, err := storage.ParseStorageURI(rawURI)
	require.NoError(t, err)

	source, err := storage.NewSource(uri, "invalid-token", newTestLogger())
	require.NoError(t, err)
	defer source.Close()

	_, err = source.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}
