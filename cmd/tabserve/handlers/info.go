package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	apierr "github.com/opst/tabserve/pkg/api/types/errors"
)

const usage = `tabserve: scoring server for tabular models

POST /invocations?taskid=<task id>
	score rows in the request body with the model of the task.
	body: {"columns": ["a", "b", ...], "data": [[1, "x", ...], ...]}
	"null" (in any case) in data is a missing value.

GET /sample
	an example of request body.

GET /pools
	stats of task pools, by task id.
`

func UsageHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, usage)
	}
}

// SampleHandler serves the file at path as an example request body.
func SampleHandler(path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if path == "" {
			return apierr.NotFound(errors.New("no sample is configured"))
		}
		content, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return apierr.NotFound(fmt.Errorf("sample %s is not found", path))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSONBlob(http.StatusOK, content)
	}
}
