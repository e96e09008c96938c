package echoutil

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
)

// RequestID sets X-Request-Id of requests and responses, with a new UUID
// unless the request has one.
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	})
}

func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		reqid := c.Response().Header().Get(echo.HeaderXRequestID)
		if reqid == "" {
			reqid = c.Request().Header.Get(echo.HeaderXRequestID)
		}
		BEGIN := time.Now()
		c.Logger().Infof("< request [%s] %s %s", reqid, meth, path)

		var err error

		defer func() {
			END := time.Now()
			status := c.Response().Status
			if err != nil {
				status = errorStatus(c, err)
				c.Logger().Warnf(
					"> response [%s] status = %d (for %s %s) in %v / error = %+v",
					reqid, status, meth, path, END.Sub(BEGIN), err,
				)
				return
			}
			c.Logger().Infof(
				"> response [%s] status = %d (for %s %s) in %v",
				reqid, status, meth, path, END.Sub(BEGIN),
			)
		}()

		err = next(c)
		return err
	}
}

// errorStatus is the status which the error handler will respond with for err,
// unless the response is already written.
func errorStatus(c echo.Context, err error) int {
	if c.Response().Committed {
		return c.Response().Status
	}
	if herr := new(echo.HTTPError); errors.As(err, &herr) {
		return herr.Code
	}
	return http.StatusInternalServerError
}

// SetLevel sets log level of e and logrus.
//
// loglevel is one of debug, info, warn, error or off. Empty is warn.
func SetLevel(e *echo.Echo, loglevel string) {
	switch strings.ToLower(loglevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		e.Logger.SetLevel(log.INFO)
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "":
		e.Logger.SetLevel(log.WARN)
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		e.Logger.SetLevel(log.ERROR)
		logrus.SetLevel(logrus.ErrorLevel)
	case "off":
		e.Logger.SetLevel(log.OFF)
		logrus.SetLevel(logrus.PanicLevel)
	default:
		e.Logger.SetLevel(log.WARN)
		logrus.SetLevel(logrus.WarnLevel)
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
