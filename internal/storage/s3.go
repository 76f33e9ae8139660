package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3FetchTimeout bounds a single users document download
const S3FetchTimeout = 30 * time.Second

// maxUsersDocumentBytes caps the size of a remote users document
const maxUsersDocumentBytes = 4 << 20

var awsRegionPattern = regexp.MustCompile(`s3[.-]([a-z]{2}-[a-z]+-\d+)\.amazonaws\.com`)

// S3Source reads the users document from an S3-compatible object store
type S3Source struct {
	client   *minio.Client
	endpoint string
	bucket   string
	key      string
	logger   *slog.Logger
}

// NewS3Source creates a source for s3://endpoint/bucket/key (or s3+http://).
// token is ACCESS_KEY:SECRET_KEY; see ParseS3Token for the fallbacks.
func NewS3Source(uri *StorageURI, token string, logger *slog.Logger) (*S3Source, error) {
	if !uri.IsS3Scheme() {
		return nil, fmt.Errorf("expected S3 URI, got scheme: %s", uri.Scheme)
	}

	accessKey, secretKey, err := ParseS3Token(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse S3 credentials: %w", err)
	}

	region := uri.S3Region()
	if region == "" {
		region = ExtractRegionFromEndpoint(uri.S3Endpoint())
	}

	client, err := minio.New(uri.S3Endpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: uri.S3UseSSL(),
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client for %s: %w", uri.S3Endpoint(), err)
	}

	logger.Debug("S3 users source configured",
		"endpoint", uri.S3Endpoint(),
		"bucket", uri.S3Bucket(),
		"key", uri.S3Key(),
		"ssl", uri.S3UseSSL(),
		"region", region)

	return &S3Source{
		client:   client,
		endpoint: uri.S3Endpoint(),
		bucket:   uri.S3Bucket(),
		key:      uri.S3Key(),
		logger:   logger,
	}, nil
}

// Fetch downloads the object with a single GET
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, S3FetchTimeout)
	defer cancel()

	data, err := s.get(ctx)
	if err != nil {
		err = s.categorize(err)
		s.logger.Warn("S3 users fetch failed",
			"source", s.String(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	s.logger.Debug("S3 users fetch completed",
		"source", s.String(),
		"size_bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())
	return data, nil
}

func (s *S3Source) get(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxUsersDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUsersDocumentBytes {
		return nil, fmt.Errorf("object exceeds %d bytes", maxUsersDocumentBytes)
	}
	return data, nil
}

// categorize turns minio and transport errors into a SourceError
func (s *S3Source) categorize(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket":
		return sourceError("s3", KindNotFound, fmt.Errorf("%s/%s: %s", s.bucket, s.key, resp.Code))
	case resp.Code == "AccessDenied" || resp.Code == "InvalidAccessKeyId" ||
		resp.Code == "SignatureDoesNotMatch" || resp.Code == "ExpiredToken" ||
		resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e := sourceError("s3", KindAuth, fmt.Errorf("%s: %s", resp.Code, resp.Message))
		e.Hint = authHint(s.endpoint)
		return e
	case resp.Code != "":
		return sourceError("s3", KindBackend, fmt.Errorf("%s: %s", resp.Code, resp.Message))
	}

	if netErr, ok := networkError("s3", err); ok {
		return netErr
	}
	return sourceError("s3", KindBackend, err)
}

// String returns a loggable description of the source
func (s *S3Source) String() string {
	return fmt.Sprintf("s3://%s/%s/%s", s.endpoint, s.bucket, s.key)
}

// Close is a no-op for S3 sources
func (s *S3Source) Close() error {
	return nil
}

// ParseS3Token splits ACCESS_KEY:SECRET_KEY on the first colon.
// An empty token falls back to AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY;
// no credentials at all is allowed for anonymous or IAM-role access.
func ParseS3Token(token string) (accessKey, secretKey string, err error) {
	if token == "" {
		accessKey, secretKey = os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if (accessKey == "") != (secretKey == "") {
			return "", "", fmt.Errorf("S3 credentials incomplete: set both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, or set auth.users_token to ACCESS_KEY:SECRET_KEY")
		}
		return accessKey, secretKey, nil
	}

	accessKey, secretKey, ok := strings.Cut(token, ":")
	switch {
	case !ok:
		return "", "", fmt.Errorf("invalid token format: expected ACCESS_KEY:SECRET_KEY")
	case accessKey == "":
		return "", "", fmt.Errorf("invalid token format: access key cannot be empty")
	case secretKey == "":
		return "", "", fmt.Errorf("invalid token format: secret key cannot be empty")
	}
	return accessKey, secretKey, nil
}

// ExtractRegionFromEndpoint reads the region out of s3.REGION.amazonaws.com
// and s3-REGION.amazonaws.com endpoints
func ExtractRegionFromEndpoint(endpoint string) string {
	if m := awsRegionPattern.FindStringSubmatch(endpoint); len(m) > 1 {
		return m[1]
	}
	return ""
}
