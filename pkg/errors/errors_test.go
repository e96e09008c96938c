package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	xe "github.com/opst/tabserve/pkg/errors"
)

func TestIsClientError(t *testing.T) {
	for name, testcase := range map[string]struct {
		err  error
		want bool
	}{
		"nil":                  {err: nil, want: false},
		"missing task id":      {err: xe.ErrMissingTaskID, want: true},
		"unknown task":         {err: fmt.Errorf("routing: %w", xe.ErrUnknownTask), want: true},
		"malformed payload":    {err: xe.Wrapf(xe.ErrMalformedPayload, "no columns"), want: true},
		"schema mismatch":      {err: xe.Wrap(xe.ErrSchemaMismatch, "c", nil), want: true},
		"unsupported input":    {err: xe.ErrUnsupportedInput, want: true},
		"configuration":        {err: xe.Wrapf(xe.ErrConfiguration, "no task type"), want: false},
		"artifact load":        {err: xe.Wrap(xe.ErrArtifactLoad, "open", errors.New("eof")), want: false},
		"unsupported model":    {err: xe.ErrUnsupportedModelType, want: false},
		"something unexpected": {err: errors.New("boom"), want: false},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, testcase.want, xe.IsClientError(testcase.err))
		})
	}
}

func TestTaxonomy(t *testing.T) {
	t.Run("unsupported model type is a kind of artifact load error", func(t *testing.T) {
		assert.ErrorIs(t, xe.ErrUnsupportedModelType, xe.ErrArtifactLoad)
	})

	t.Run("unknown task is a kind of configuration error", func(t *testing.T) {
		assert.ErrorIs(t, xe.ErrUnknownTask, xe.ErrConfiguration)
	})

	t.Run("Wrap keeps both of sentinel and cause", func(t *testing.T) {
		cause := errors.New("file not found")
		err := xe.Wrap(xe.ErrArtifactLoad, "iris.json", cause)

		assert.ErrorIs(t, err, xe.ErrArtifactLoad)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "artifact load error: iris.json: file not found", err.Error())
	})
}
