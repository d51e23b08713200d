package endpoints

import (
	"blueprint"
	"blueprint/internal/api/handler/mapper"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/service"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type runHandler struct {
	runService *service.RunService
	runMapper  mapper.RunMapper
	logger     zerolog.Logger
}

func newRunHandler(runService *service.RunService) *runHandler {
	return &runHandler{
		runService: runService,
		runMapper:  mapper.NewRunMapper(),
		logger:     blueprint.Logger,
	}
}

func RunHandler(router gin.IRouter, runService *service.RunService) {
	h := newRunHandler(runService)

	routes := router.Group("/api/v1/runs")
	{
		routes.GET("", h.getAll)
		routes.GET("/:id", h.getByID)
	}
}

// getAll returns the latest runs, newest first
func (slf *runHandler) getAll(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid limit"})
			return
		}
		limit = parsed
	}

	runs, err := slf.runService.List(c.Request.Context(), limit)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to list runs")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve runs"})
		return
	}

	c.JSON(http.StatusOK, slf.runMapper.ToRunResponses(runs))
}

// getByID returns a run with its blueprint and full result
func (slf *runHandler) getByID(c *gin.Context) {
	id := c.Param("id")

	run, err := slf.runService.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, response.APIError{Message: "Run not found"})
			return
		}
		slf.logger.Error().Err(err).Str("runId", id).Msg("Failed to get run")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to retrieve run"})
		return
	}

	c.JSON(http.StatusOK, slf.runMapper.ToRunWithDetails(*run))
}
