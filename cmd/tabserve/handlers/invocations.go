package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/opst/tabserve/pkg/api/types/errors"
	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/taskpool"
)

// PoolResolver provides the pool for a task id.
type PoolResolver interface {
	Resolve(ctx context.Context, taskId string) (taskpool.Pool, error)
}

// PoolLister provides stats of pools by task id.
type PoolLister interface {
	Pools() map[string]taskpool.Stats
}

// InvocationsHandler scores the request body with the pool for query parameter taskid.
func InvocationsHandler(resolver PoolResolver, taskIdParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		pool, err := resolver.Resolve(ctx, c.QueryParam(taskIdParam))
		if err != nil {
			return apierr.FromError(err)
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return apierr.BadRequest(xe.Wrap(xe.ErrMalformedPayload, "cannot read request body", err))
		}

		out, err := pool.Process(ctx, body)
		if err != nil {
			return apierr.FromError(err)
		}
		return c.JSONBlob(http.StatusOK, out)
	}
}

func PoolsHandler(lister PoolLister) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, lister.Pools())
	}
}
