package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qforge/qforge/internal/diagram"
	"github.com/qforge/qforge/internal/store"
)

type renderRequest struct {
	Content string `json:"content" validate:"required"`
	Seed    *int64 `json:"seed"`
}

type validateRequest struct {
	Content string `json:"content" validate:"required"`
}

type diagramRequest struct {
	Code string `json:"code" validate:"required"`
}

func (s *Server) bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}

func (s *Server) render(c echo.Context) error {
	var req renderRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	out := s.opts.Service.Render(c.Request().Context(), req.Content, req.Seed, "")
	return c.JSON(http.StatusOK, out)
}

func (s *Server) validateTemplate(c echo.Context) error {
	var req validateRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.opts.Service.Engine.Validate(req.Content))
}

func (s *Server) composeDiagram(c echo.Context) error {
	var req diagramRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	comp := s.diagrams.Compose(req.Code)
	if comp.Skipped == nil {
		comp.Skipped = []diagram.Skipped{}
	}
	return c.JSON(http.StatusOK, comp)
}

func (s *Server) renderTemplate(c echo.Context) error {
	seed, err := querySeed(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.RenderTemplate(c.Request().Context(), c.Param("id"), seed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) history(c echo.Context) error {
	opts := store.QueryOpts{Limit: 50, TemplateID: c.QueryParam("template")}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		opts.Limit = n
	}
	events, err := s.opts.Service.History(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	if events == nil {
		events = []store.RenderEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

func querySeed(c echo.Context) (*int64, error) {
	v := c.QueryParam("seed")
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, errBadSeed
	}
	return &n, nil
}
