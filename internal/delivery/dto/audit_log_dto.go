package dto

import (
	"time"

	"hospital-records/internal/domain/entity"

	"github.com/google/uuid"
)

// Response DTOs

type AuditLogResponse struct {
	ID           int64       `json:"id"`
	ActorID      *uuid.UUID  `json:"actor_id,omitempty"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceKey  string      `json:"resource_key"`
	Metadata     entity.JSON `json:"metadata"`
	CreatedAt    time.Time   `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
