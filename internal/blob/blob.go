// Package blob stores uploaded claim artifacts and returns URLs for
// linking. The Disabled variant makes an unconfigured store explicit:
// callers get a typed error instead of a silent no-op.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store writes an artifact and returns the URL it is served under.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// FSStore keeps artifacts on the local filesystem under a single
// directory, served from baseURL.
type FSStore struct {
	dir     string
	baseURL string
}

// NewFSStore creates the artifact directory if needed.
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &FSStore{dir: dir, baseURL: baseURL}, nil
}

// Upload writes the artifact under a collision-free name and returns
// its URL. A partial file is removed on copy failure.
func (s *FSStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%s-%s", uuid.New(), filepath.Base(filename))
	destPath := filepath.Join(s.dir, name)

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// Dir returns the artifact directory, for serving files over HTTP.
func (s *FSStore) Dir() string {
	return s.dir
}

// Disabled is the explicit off switch for artifact storage.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, filename string, _ io.Reader) (string, error) {
	log.Info().Str("filename", filename).Msg("Blob store disabled, rejecting upload")
	return "", fmt.Errorf("blob store: %w", domain.ErrDisabled)
}
