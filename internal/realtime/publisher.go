package realtime

import (
	"encoding/json"
	"fmt"

	"blueprint/internal/engine"

	"github.com/rs/zerolog"
)

const (
	subjectPrefix = "blueprint.run."

	eventLog    = "log"
	eventStatus = "status"
)

// RunSubject is the NATS subject carrying event for runID.
func RunSubject(runID, event string) string {
	return fmt.Sprintf("%s%s.%s", subjectPrefix, runID, event)
}

// MessagePublisher is the part of *nats.Conn the publisher needs.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// StatusEvent is published once a run has finished.
type StatusEvent struct {
	Status       engine.Status `json:"status"`
	GasUsed      int64         `json:"gasUsed"`
	GasRemaining int64         `json:"gasRemaining"`
	Error        string        `json:"error,omitempty"`
}

// Publisher streams the log of a single run. It implements engine.Observer.
// Publishing is best-effort: failures are logged and never reach the run.
type Publisher struct {
	conn   MessagePublisher
	runID  string
	logger zerolog.Logger
}

func NewPublisher(conn MessagePublisher, runID string, logger zerolog.Logger) *Publisher {
	return &Publisher{conn: conn, runID: runID, logger: logger}
}

func (slf *Publisher) OnLog(entry engine.ExecutionLog) {
	slf.publish(eventLog, entry)
}

// Finish announces the terminal status of the run.
func (slf *Publisher) Finish(res engine.Result) {
	slf.publish(eventStatus, StatusEvent{
		Status:       res.Status,
		GasUsed:      res.GasUsed,
		GasRemaining: res.GasRemaining,
		Error:        res.Error,
	})
}

func (slf *Publisher) publish(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slf.logger.Warn().Err(err).Str("runId", slf.runID).Msg("Could not encode run event")
		return
	}
	if err := slf.conn.Publish(RunSubject(slf.runID, event), data); err != nil {
		slf.logger.Warn().Err(err).Str("runId", slf.runID).Str("event", event).Msg("Could not publish run event")
	}
}
