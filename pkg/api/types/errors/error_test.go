package errors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierr "github.com/opst/tabserve/pkg/api/types/errors"
	httptestutil "github.com/opst/tabserve/internal/testutils/http"
	xe "github.com/opst/tabserve/pkg/errors"
)

func TestFromError(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		code int
	}{
		"missing task id":   {err: xe.ErrMissingTaskID, code: http.StatusBadRequest},
		"malformed payload": {err: xe.Wrapf(xe.ErrMalformedPayload, "no rows"), code: http.StatusBadRequest},
		"schema mismatch":   {err: xe.Wrapf(xe.ErrSchemaMismatch, "'c'"), code: http.StatusBadRequest},
		"unsupported input": {err: xe.Wrapf(xe.ErrUnsupportedInput, "2 inputs"), code: http.StatusBadRequest},
		"unknown task":      {err: xe.Wrapf(xe.ErrUnknownTask, "iris"), code: http.StatusNotFound},
		"configuration":     {err: xe.Wrapf(xe.ErrConfiguration, "no type"), code: http.StatusInternalServerError},
		"artifact load":     {err: xe.Wrapf(xe.ErrArtifactLoad, "no header"), code: http.StatusInternalServerError},
		"unexpected":        {err: errors.New("fake error"), code: http.StatusInternalServerError},
	} {
		t.Run(fmt.Sprintf("%s is %d", name, tc.code), func(t *testing.T) {
			herr := apierr.FromError(tc.err)
			assert.Equal(t, tc.code, herr.Code)
			assert.ErrorIs(t, herr.Internal, tc.err)
		})
	}
}

func TestErrorMessage_Body(t *testing.T) {
	e := echo.New()
	c, resp := httptestutil.Get(e, "/")

	e.DefaultHTTPErrorHandler(apierr.FromError(xe.Wrapf(xe.ErrSchemaMismatch, "'c'")), c)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"error": "schema mismatch: 'c'"}, body)

	msg := apierr.ErrorMessage{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &msg))
	assert.Equal(t, "schema mismatch: 'c'", msg.Reason)

	assert.Error(t, json.Unmarshal([]byte(`{"message":"x"}`), &msg))
}
