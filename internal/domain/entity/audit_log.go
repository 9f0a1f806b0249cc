package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog records a change to an employee or patient record.
// ResourceKey is the record key after the change; re-keys keep the old key in Metadata.
type AuditLog struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID      *uuid.UUID `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Action       string     `gorm:"type:varchar(100);not null;index" json:"action"`
	ResourceType string     `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceKey  string     `gorm:"type:varchar(20);not null;index" json:"resource_key"`
	Metadata     JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogFilter narrows audit log listings. Zero values match everything.
type AuditLogFilter struct {
	ResourceType string
	ResourceKey  string
	Action       string
	Limit        int
	Offset       int
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	result := map[string]interface{}{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = JSON(result)
	return nil
}

const (
	AuditResourceEmployee = "employee"
	AuditResourcePatient  = "patient"
)

// Common audit actions
const (
	AuditActionEmployeeCreate     = "employee.create"
	AuditActionEmployeeUpdate     = "employee.update"
	AuditActionEmployeeActivate   = "employee.activate"
	AuditActionEmployeeDeactivate = "employee.deactivate"
	AuditActionEmployeeDelete     = "employee.delete"
	AuditActionPatientCreate      = "patient.create"
	AuditActionPatientUpdate      = "patient.update"
	AuditActionPatientRekey       = "patient.rekey"
	AuditActionPatientDelete      = "patient.delete"
)
