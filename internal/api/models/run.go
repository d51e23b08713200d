package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"blueprint/internal/engine"
)

// Run is one persisted blueprint execution.
type Run struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	IdempotencyKey *string         `gorm:"uniqueIndex;type:varchar(255)" json:"idempotencyKey,omitempty"`
	Status         engine.Status   `gorm:"not null;type:varchar(20);index" json:"status"`
	MaxGas         int64           `gorm:"not null" json:"maxGas"`
	GasUsed        int64           `gorm:"not null" json:"gasUsed"`
	NodeCount      int             `gorm:"not null" json:"nodeCount"`
	Error          string          `json:"error,omitempty"`
	Blueprint      BlueprintColumn `gorm:"type:jsonb" json:"blueprint"`
	Result         ResultColumn    `gorm:"type:jsonb" json:"result"`
	DurationMs     int64           `json:"durationMs"`
	CreatedAt      time.Time       `gorm:"index" json:"createdAt"`
}

// BlueprintColumn stores an engine.Blueprint as JSON.
type BlueprintColumn engine.Blueprint

// Value implements driver.Valuer for GORM
func (b BlueprintColumn) Value() (driver.Value, error) {
	return json.Marshal(engine.Blueprint(b))
}

// Scan implements sql.Scanner for GORM
func (b *BlueprintColumn) Scan(value interface{}) error {
	data, err := jsonBytes(value, "BlueprintColumn")
	if err != nil || data == nil {
		return err
	}
	return json.Unmarshal(data, (*engine.Blueprint)(b))
}

// ResultColumn stores an engine.Result as JSON.
type ResultColumn engine.Result

// Value implements driver.Valuer for GORM
func (r ResultColumn) Value() (driver.Value, error) {
	return json.Marshal(engine.Result(r))
}

// Scan implements sql.Scanner for GORM
func (r *ResultColumn) Scan(value interface{}) error {
	data, err := jsonBytes(value, "ResultColumn")
	if err != nil || data == nil {
		return err
	}
	return json.Unmarshal(data, (*engine.Result)(r))
}

func jsonBytes(value interface{}, target string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot scan type %T into %s", value, target)
	}
}
