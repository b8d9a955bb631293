package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/pland/internal/schedule"
)

func (s *Server) handleCreateDependency(c echo.Context) error {
	var body CreateDependencyRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.PredecessorID == "" || body.SuccessorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "predecessor_id and successor_id are required")
	}

	dep, err := s.services.Graph().AddDependency(c.Request().Context(), projectID(c), &schedule.AddDependencyRequest{
		PredecessorID: body.PredecessorID,
		SuccessorID:   body.SuccessorID,
		Type:          schedule.DependencyType(body.Type),
		LagDays:       body.LagDays,
	})
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrSelfDependency):
			return echo.NewHTTPError(http.StatusBadRequest, "a task cannot depend on itself")
		case errors.Is(err, schedule.ErrCycle):
			return echo.NewHTTPError(http.StatusBadRequest, "dependency would create a circular chain")
		case errors.Is(err, schedule.ErrTaskNotFound):
			// Includes tasks that exist but live in another project.
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, schedule.ErrInvalidDependencyType):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create dependency")
	}
	return c.JSON(http.StatusCreated, dep)
}

func (s *Server) handleDeleteDependency(c echo.Context) error {
	err := s.services.Graph().RemoveDependency(c.Request().Context(), projectID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, schedule.ErrDependencyNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dependency not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete dependency")
	}
	return c.NoContent(http.StatusNoContent)
}
