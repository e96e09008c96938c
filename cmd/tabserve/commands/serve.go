package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opst/tabserve/cmd/tabserve/handlers"
	"github.com/opst/tabserve/pkg/auth"
	"github.com/opst/tabserve/pkg/configs/server"
	"github.com/opst/tabserve/pkg/router"
	"github.com/opst/tabserve/pkg/taskpool"
	"github.com/opst/tabserve/pkg/utils/echoutil"
	"github.com/opst/tabserve/pkg/utils/filewatch"
)

// ErrRestart is returned when configuration files are updated.
// The process should be restarted to take them.
var ErrRestart = errors.New("configuration is updated. restart to apply")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start scoring server",
	Long: `Start scoring server.

Task pools are created at the first request for each task, and kept until
the server stops. When the config file or task configuration files are updated,
the server shuts down gracefully and exits with error, to be restarted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	resolver, closeResolver, err := taskResolver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cannot connect to task configurations: %w", err)
	}
	defer closeResolver()

	store, closeStore, err := artifactStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cannot connect to artifact store: %w", err)
	}
	defer closeStore()

	rt := router.New(resolver, taskpool.Deps{Store: store, Log: logrus.StandardLogger()})
	e := newServer(cfg, rt)

	for _, id := range cfg.Warmup {
		if _, err := rt.Resolve(ctx, id); err != nil {
			return fmt.Errorf("warmup %s: %w", id, err)
		}
	}

	targets := []filewatch.Target{}
	if configPath != "" {
		targets = append(targets, filewatch.File(configPath))
	}
	if cfg.Tasks.Redis.Addr == "" {
		prefix := cfg.Tasks.Prefix
		targets = append(targets, filewatch.Dir(
			cfg.Tasks.Dir, func(name string) bool { return strings.HasPrefix(name, prefix) },
		))
	}
	wctx, cancel, err := filewatch.UntilModifyContext(ctx, targets...)
	if err != nil {
		return fmt.Errorf("cannot watch configurations: %w", err)
	}
	defer cancel()

	context.AfterFunc(wctx, func() {
		e.Logger.Warnf("shutting down: %s", context.Cause(wctx))
		graceful, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			e.Logger.Errorf("error on shutdown: %s", err)
		}
	})

	e.Logger.Infof("registered routes:")
	for _, r := range e.Routes() {
		e.Logger.Infof("%s %s", r.Method, r.Path)
	}

	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if ctx.Err() == nil {
		// not by signal, but by updates of files.
		return fmt.Errorf("%w: %w", ErrRestart, context.Cause(wctx))
	}
	return nil
}

// newServer creates echo with routes of tabserve.
func newServer(cfg *server.Config, rt *router.Router) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	echoutil.SetLevel(e, cfg.LogLevel)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		e.Logger.Error(err)
	}
	e.Use(echoutil.RequestID(), echoutil.LogHandlerFunc, middleware.Recover())

	invocationMiddlewares := []echo.MiddlewareFunc{}
	if cfg.Auth.HMACKey != "" {
		invocationMiddlewares = append(
			invocationMiddlewares, auth.Bearer([]byte(cfg.Auth.HMACKey), cfg.Auth.Issuer),
		)
	}

	e.GET("/", handlers.UsageHandler())
	e.POST("/invocations", handlers.InvocationsHandler(rt, "taskid"), invocationMiddlewares...)
	e.GET("/sample", handlers.SampleHandler(cfg.SampleFile))
	e.GET("/pools", handlers.PoolsHandler(rt))

	return e
}
