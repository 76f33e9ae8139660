package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/errcode"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// OCIFetchTimeout bounds a single users document pull
const OCIFetchTimeout = 30 * time.Second

// OCIUsersTitle is the layer title annotation of the users document
const OCIUsersTitle = "users.yaml"

// OCISource reads the users document from an OCI artifact (always :latest)
type OCISource struct {
	repo      *remote.Repository
	reference string
	logger    *slog.Logger
}

// NewOCISource creates a source for oci://registry/repository.
// The token is sent as the password of a "token" user, which ghcr.io,
// docker.io, ACR and ECR all accept.
func NewOCISource(uri *StorageURI, token string, logger *slog.Logger) (*OCISource, error) {
	if !uri.IsOCIScheme() {
		return nil, fmt.Errorf("expected OCI URI, got scheme: %s", uri.Scheme)
	}

	reference := uri.OCIReference()
	repo, err := remote.NewRepository(reference)
	if err != nil {
		return nil, fmt.Errorf("invalid OCI reference %q: %w", reference, err)
	}
	if token != "" {
		repo.Client = &auth.Client{
			Client:     retry.DefaultClient,
			Credential: auth.StaticCredential(repo.Reference.Registry, auth.Credential{Username: "token", Password: token}),
		}
	}

	logger.Debug("OCI users source configured",
		"reference", reference,
		"has_token", token != "")

	return &OCISource{
		repo:      repo,
		reference: reference,
		logger:    logger,
	}, nil
}

// Fetch pulls the manifest once, then the users layer
func (s *OCISource) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, OCIFetchTimeout)
	defer cancel()

	data, err := s.pull(ctx)
	if err != nil {
		err = s.categorize(err)
		s.logger.Warn("OCI users fetch failed",
			"source", s.String(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	s.logger.Debug("OCI users fetch completed",
		"source", s.String(),
		"size_bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())
	return data, nil
}

func (s *OCISource) pull(ctx context.Context) ([]byte, error) {
	_, raw, err := oras.FetchBytes(ctx, s.repo, s.repo.Reference.Reference, oras.DefaultFetchBytesOptions)
	if err != nil {
		return nil, err
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(manifest.Layers) == 0 {
		return nil, errors.New("artifact has no layers")
	}

	layer := selectUsersLayer(manifest.Layers)
	if layer.Size > maxUsersDocumentBytes {
		return nil, fmt.Errorf("users layer is %d bytes, limit is %d", layer.Size, maxUsersDocumentBytes)
	}
	if layer.Digest.Algorithm() != digest.Canonical {
		return nil, fmt.Errorf("unsupported layer digest algorithm %q", layer.Digest.Algorithm())
	}

	rc, err := s.repo.Blobs().Fetch(ctx, layer)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, layer.Size))
	if err != nil {
		return nil, fmt.Errorf("failed to read users layer: %w", err)
	}
	if got := digest.FromBytes(data); got != layer.Digest {
		return nil, fmt.Errorf("layer digest mismatch: want %s, got %s", layer.Digest, got)
	}
	return data, nil
}

// categorize turns registry and transport errors into a SourceError
func (s *OCISource) categorize(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return sourceError("oci", KindNotFound, err)
	}

	var resp *errcode.ErrorResponse
	if errors.As(err, &resp) {
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			e := sourceError("oci", KindAuth, err)
			e.Hint = authHint(s.repo.Reference.Registry)
			return e
		case resp.StatusCode == http.StatusNotFound:
			return sourceError("oci", KindNotFound, err)
		default:
			return sourceError("oci", KindBackend, err)
		}
	}

	if netErr, ok := networkError("oci", err); ok {
		return netErr
	}
	return sourceError("oci", KindBackend, err)
}

// selectUsersLayer picks the layer titled users.yaml, else the first one
func selectUsersLayer(layers []ocispec.Descriptor) ocispec.Descriptor {
	for _, layer := range layers {
		if layer.Annotations[ocispec.AnnotationTitle] == OCIUsersTitle {
			return layer
		}
	}
	return layers[0]
}

// String returns the artifact reference
func (s *OCISource) String() string {
	return "oci://" + s.reference
}

// Close is a no-op for OCI sources
func (s *OCISource) Close() error {
	return nil
}
