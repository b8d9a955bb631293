package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/pland/internal/schedule"
	"github.com/fyrsmithlabs/pland/internal/tasks"
)

func (s *Server) handleCreateTask(c echo.Context) error {
	var body CreateTaskRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req, err := body.toCreate()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := s.services.Tasks().Create(c.Request().Context(), projectID(c), req)
	if err != nil {
		if errors.Is(err, schedule.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "parent task not found in this project")
		}
		return taskError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (s *Server) handleListTasks(c echo.Context) error {
	includeArchived := c.QueryParam("include_archived") == "true"
	views, err := s.services.Tasks().List(c.Request().Context(), projectID(c), includeArchived)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks")
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetTask(c echo.Context) error {
	view, err := s.services.Tasks().Get(c.Request().Context(), projectID(c), c.Param("id"))
	if err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var body UpdateTaskRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req, err := body.toUpdate()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := s.services.Tasks().Update(c.Request().Context(), projectID(c), c.Param("id"), req)
	if err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleArchiveTask(c echo.Context) error {
	var archivedBy *string
	if actor := c.Request().Header.Get(HeaderActor); actor != "" {
		archivedBy = &actor
	}
	if err := s.services.Tasks().Archive(c.Request().Context(), projectID(c), c.Param("id"), archivedBy); err != nil {
		return taskError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRestoreTask(c echo.Context) error {
	view, err := s.services.Tasks().Restore(c.Request().Context(), projectID(c), c.Param("id"))
	if err != nil {
		return taskError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.services.Tasks().Delete(c.Request().Context(), projectID(c), c.Param("id")); err != nil {
		return taskError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleReorderTasks(c echo.Context) error {
	var body ReorderRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(body.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "items is required")
	}
	if err := s.services.Tasks().Reorder(c.Request().Context(), projectID(c), body.Items); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to reorder tasks")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSaveBaseline(c echo.Context) error {
	if err := s.services.Tasks().SaveBaseline(c.Request().Context(), projectID(c), c.Param("id")); err != nil {
		return taskError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSaveAllBaselines(c echo.Context) error {
	count, err := s.services.Tasks().SaveAllBaselines(c.Request().Context(), projectID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save baselines")
	}
	return c.JSON(http.StatusOK, CountResponse{Count: count})
}

func (s *Server) handleExportTasks(c echo.Context) error {
	export, err := s.services.Tasks().Export(c.Request().Context(), projectID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to export tasks")
	}
	return c.JSON(http.StatusOK, export)
}

func (s *Server) handleCriticalPath(c echo.Context) error {
	result, err := s.services.Calculator().Calculate(c.Request().Context(), projectID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to calculate critical path")
	}
	return c.JSON(http.StatusOK, result)
}

// taskError maps task service errors onto HTTP responses.
func taskError(err error) error {
	switch {
	case errors.Is(err, schedule.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	case errors.Is(err, tasks.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "task operation failed")
}
