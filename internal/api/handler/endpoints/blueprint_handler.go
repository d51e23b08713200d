package endpoints

import (
	"blueprint"
	"blueprint/internal/api/handler/mapper"
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/service"
	"blueprint/internal/remote"
	"blueprint/pkg"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ReplayedHeader marks a response served from an earlier run with the same idempotency key.
const ReplayedHeader = "Idempotent-Replayed"

type blueprintHandler struct {
	runService *service.RunService
	runMapper  mapper.RunMapper
	logger     zerolog.Logger
}

func newBlueprintHandler(runService *service.RunService) *blueprintHandler {
	return &blueprintHandler{
		runService: runService,
		runMapper:  mapper.NewRunMapper(),
		logger:     blueprint.Logger,
	}
}

func BlueprintHandler(router gin.IRouter, runService *service.RunService) {
	h := newBlueprintHandler(runService)

	routes := router.Group("/api/v1")
	{
		routes.POST("/blueprints/analyze", h.analyze)
		routes.POST("/blueprints/execute", h.execute)
		routes.POST("/blueprints/execute/batch", h.executeBatch)
		routes.GET("/runtimes", h.runtimes)
	}
}

// analyze validates a blueprint without running it
func (slf *blueprintHandler) analyze(c *gin.Context) {
	var req request.AnalyzeBlueprint
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid request body", Data: err.Error()})
		return
	}

	c.JSON(http.StatusOK, slf.runService.Analyze(req.Blueprint))
}

// execute runs one blueprint; structural and runtime failures are reported in the result, not as HTTP errors
func (slf *blueprintHandler) execute(c *gin.Context) {
	var req request.ExecuteBlueprint
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid request body", Data: err.Error()})
		return
	}

	key := c.GetHeader(remote.IdempotencyHeader)
	outcome, err := slf.runService.Execute(c.Request.Context(), slf.runMapper.ExecuteRequest(req, key))
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to execute blueprint")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to execute blueprint"})
		return
	}

	if outcome.Replayed {
		c.Header(ReplayedHeader, "true")
	}
	c.JSON(http.StatusOK, slf.runMapper.ToExecution(outcome))
}

func (slf *blueprintHandler) executeBatch(c *gin.Context) {
	var req request.ExecuteBatch
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid request body", Data: err.Error()})
		return
	}

	outcomes, err := slf.runService.ExecuteBatch(c.Request.Context(), slf.runMapper.BatchRequests(req))
	if err != nil {
		slf.logger.Error().Err(err).Int("runs", len(req.Runs)).Msg("Failed to execute blueprint batch")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to execute blueprint batch"})
		return
	}

	c.JSON(http.StatusOK, slf.runMapper.ToBatch(outcomes))
}

// runtimes lists the registered node kinds and their gas cost
func (slf *blueprintHandler) runtimes(c *gin.Context) {
	c.JSON(http.StatusOK, slf.runMapper.ToRuntimes(slf.runService.Kinds()))
}
