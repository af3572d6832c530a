package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/qforge/qforge/internal/service"
	"github.com/qforge/qforge/internal/store"
)

var (
	errTemplateNotFound = echo.NewHTTPError(http.StatusNotFound, "template not found")
	errNoStore          = echo.NewHTTPError(http.StatusServiceUnavailable, "no template store configured")
	errBadSeed          = echo.NewHTTPError(http.StatusBadRequest, "seed must be an integer")
)

type httpError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errorHandler renders every handler error as {"error": ...}. Render
// failures are not errors here; they travel in the result body.
func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	body := httpError{Error: http.StatusText(code)}

	var he *echo.HTTPError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		if inner, ok := he.Internal.(*echo.HTTPError); ok {
			he = inner
		}
		code = he.Code
		if m, ok := he.Message.(string); ok {
			body.Error = m
		} else {
			body.Error = http.StatusText(code)
		}
	case errors.As(err, &verrs):
		code = http.StatusBadRequest
		body.Error = "invalid request"
		body.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			body.Fields[fe.Field()] = fe.Tag()
		}
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
		body.Error = errTemplateNotFound.Message.(string)
	case errors.Is(err, service.ErrNoStore):
		code = http.StatusServiceUnavailable
		body.Error = errNoStore.Message.(string)
	default:
		s.log.Error("http handler failed", "path", c.Path(), "err", err)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.log.Error("write error response", "err", err)
	}
}
