package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qforge/qforge/internal/service"
	"github.com/qforge/qforge/internal/store"
)

type putTemplateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" validate:"required"`
	Force   bool   `json:"force"`
}

func (s *Server) listTemplates(c echo.Context) error {
	list, err := s.opts.Service.ListTemplates(c.Request().Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []store.Template{}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getTemplate(c echo.Context) error {
	t, err := s.opts.Service.Template(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) putTemplate(c echo.Context) error {
	var req putTemplateRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	saved, err := s.opts.Service.SaveTemplate(c.Request().Context(),
		store.Template{ID: c.Param("id"), Title: req.Title, Content: req.Content},
		service.SaveOptions{KeepRevisions: s.opts.KeepRevisions, AllowInvalid: req.Force})

	var invalid *service.InvalidTemplateError
	if errors.As(err, &invalid) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":      "template failed validation",
			"validation": invalid.Result,
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteTemplate(c echo.Context) error {
	if err := s.opts.Service.DeleteTemplate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) templateRevisions(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if _, err := s.opts.Service.Template(ctx, id); err != nil {
		return err
	}
	revs, err := s.opts.Service.Revisions(ctx, id)
	if err != nil {
		return err
	}
	if revs == nil {
		revs = []store.Revision{}
	}
	return c.JSON(http.StatusOK, revs)
}
