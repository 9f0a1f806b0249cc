package service

import (
	"context"

	"hospital-records/internal/domain/entity"
	"hospital-records/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditService interface {
	LogCreate(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action, resourceType, resourceKey string, newValue interface{}) error
	LogUpdate(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action, resourceType, resourceKey string, oldValue, newValue interface{}) error
	LogRekey(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, oldKey, newKey string, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action, resourceType, resourceKey string, oldValue interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action, resourceType, resourceKey string, newValue interface{}) error {
	return s.write(tx, actorID, action, resourceType, resourceKey, entity.JSON{
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action, resourceType, resourceKey string, oldValue, newValue interface{}) error {
	return s.write(tx, actorID, action, resourceType, resourceKey, entity.JSON{
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogRekey logs a patient moving from a generated minor id to its own cin.
// The entry is filed under the new key.
func (s *auditService) LogRekey(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, oldKey, newKey string, oldValue, newValue interface{}) error {
	return s.write(tx, actorID, entity.AuditActionPatientRekey, entity.AuditResourcePatient, newKey, entity.JSON{
		"old_key":   oldKey,
		"new_key":   newKey,
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action, resourceType, resourceKey string, oldValue interface{}) error {
	return s.write(tx, actorID, action, resourceType, resourceKey, entity.JSON{
		"old_value": oldValue,
		"new_value": nil,
	})
}

func (s *auditService) write(tx *gorm.DB, actorID *uuid.UUID, action, resourceType, resourceKey string, metadata entity.JSON) error {
	auditLog := &entity.AuditLog{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceKey:  resourceKey,
		Metadata:     metadata,
	}

	if err := s.auditRepo.Create(tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
