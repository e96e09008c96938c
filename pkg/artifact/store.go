package artifact

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	xe "github.com/opst/tabserve/pkg/errors"
)

// Store provides artifacts by name.
type Store interface {
	// Open the named artifact.
	//
	// When it is not found or not readable, the error wraps ErrArtifactLoad.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileStore is a Store on a directory.
//
// Names may contain environment variables (like "${MODEL_VERSION}/iris.json"),
// and they are expanded before opening.
type FileStore struct {
	Dir string
}

var _ Store = FileStore{}

// DefaultModelDir is "$HOME/models".
func DefaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, "models")
}

func (s FileStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	expanded := os.ExpandEnv(name)
	if expanded == "" {
		return nil, xe.Wrapf(xe.ErrArtifactLoad, "no serialized model filename provided")
	}
	if !filepath.IsLocal(expanded) {
		return nil, xe.Wrapf(xe.ErrArtifactLoad, `artifact name "%s" points outside of model directory`, expanded)
	}

	f, err := os.Open(filepath.Join(s.Dir, expanded))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, xe.Wrap(xe.ErrArtifactLoad, `artifact "`+expanded+`" is not found`, err)
	} else if err != nil {
		return nil, xe.Wrap(xe.ErrArtifactLoad, `artifact "`+expanded+`" is not readable`, err)
	}
	return f, nil
}
