package mapper

import (
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/models"
	"blueprint/internal/api/service"
	"blueprint/internal/engine"
)

type RunMapper struct{}

func NewRunMapper() RunMapper {
	return RunMapper{}
}

func (RunMapper) ExecuteRequest(req request.ExecuteBlueprint, idempotencyKey string) service.ExecuteRequest {
	return service.ExecuteRequest{
		Blueprint:      req.Blueprint,
		Config:         req.Config,
		IdempotencyKey: idempotencyKey,
	}
}

// BatchRequests maps a batch; idempotency keys only apply to single runs.
func (m RunMapper) BatchRequests(req request.ExecuteBatch) []service.ExecuteRequest {
	out := make([]service.ExecuteRequest, 0, len(req.Runs))
	for _, r := range req.Runs {
		out = append(out, m.ExecuteRequest(r, ""))
	}
	return out
}

func (RunMapper) ToExecution(o service.RunOutcome) response.Execution {
	return response.Execution{RunID: o.RunID, Result: o.Result}
}

func (m RunMapper) ToBatch(outcomes []service.RunOutcome) response.Batch {
	resp := response.Batch{Runs: make([]response.Execution, 0, len(outcomes))}
	for _, o := range outcomes {
		resp.Runs = append(resp.Runs, m.ToExecution(o))
	}
	return resp
}

func (RunMapper) ToRuntimes(kinds []service.KindInfo) []response.Runtime {
	out := make([]response.Runtime, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, response.Runtime{Kind: k.Kind, GasCost: k.GasCost})
	}
	return out
}

func (RunMapper) ToRunResponse(r models.Run) response.Run {
	return response.Run{
		ID:         r.ID,
		Status:     r.Status,
		MaxGas:     r.MaxGas,
		GasUsed:    r.GasUsed,
		NodeCount:  r.NodeCount,
		Error:      r.Error,
		DurationMs: r.DurationMs,
		CreatedAt:  r.CreatedAt,
	}
}

func (m RunMapper) ToRunResponses(entities []models.Run) []response.Run {
	out := make([]response.Run, 0, len(entities))
	for _, r := range entities {
		out = append(out, m.ToRunResponse(r))
	}
	return out
}

func (m RunMapper) ToRunWithDetails(r models.Run) response.RunWithDetails {
	resp := response.RunWithDetails{
		Run:       m.ToRunResponse(r),
		Blueprint: engine.Blueprint(r.Blueprint),
		Result:    engine.Result(r.Result),
	}
	if r.IdempotencyKey != nil {
		resp.IdempotencyKey = *r.IdempotencyKey
	}
	return resp
}
