package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/pland/internal/project"
)

func (s *Server) handleCreateProject(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.services.Projects().Create(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrEmptyProjectName):
			return echo.NewHTTPError(http.StatusBadRequest, "project name is required")
		case errors.Is(err, project.ErrProjectExists):
			return echo.NewHTTPError(http.StatusConflict, "project already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create project")
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleListProjects(c echo.Context) error {
	list, err := s.services.Projects().List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list projects")
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.services.Projects().Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) || errors.Is(err, project.ErrInvalidProjectID) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get project")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if err := s.services.Projects().Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) || errors.Is(err, project.ErrInvalidProjectID) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete project")
	}
	return c.NoContent(http.StatusNoContent)
}
