package storage

import (
	"fmt"
	"log/slog"
)

// NewSource creates a users document source based on the URI scheme:
//   - file:// -> FileSource
//   - s3:// or s3+http:// -> S3Source
//   - oci:// -> OCISource (requires token)
func NewSource(uri *StorageURI, token string, logger *slog.Logger) (Source, error) {
	switch uri.Scheme {
	case "file":
		return NewFileSource(uri.Path, token, logger), nil

	case "s3", "s3+http":
		// credentials optional for IAM role
		return NewS3Source(uri, token, logger)

	case "oci":
		if token == "" {
			return nil, fmt.Errorf("%w: OCI source requires authentication token (auth.users_token or GUESTGATE_AUTH_USERS_TOKEN)", ErrTokenRequired)
		}
		return NewOCISource(uri, token, logger)

	default:
		return nil, fmt.Errorf("unsupported storage scheme: %s", uri.Scheme)
	}
}
