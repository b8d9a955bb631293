package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/pland/internal/audit"
)

func (s *Server) handleListAudit(c echo.Context) error {
	filter := audit.Filter{
		Category:  c.QueryParam("category"),
		Entity:    c.QueryParam("entity"),
		ProjectID: projectID(c),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		filter.Limit = limit
	}

	entries, err := s.services.Audit().List(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handlePurgeAudit(c echo.Context) error {
	if err := s.services.Audit().Purge(c.Request().Context(), c.QueryParam("category")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to purge audit entries")
	}
	return c.NoContent(http.StatusNoContent)
}
