package repository

import (
	"hospital-records/internal/domain/entity"

	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(db *gorm.DB, patient *entity.Patient) error
	Update(db *gorm.DB, patient *entity.Patient) error
	Delete(db *gorm.DB, id string) (int64, error)
	FindByID(db *gorm.DB, id string) (*entity.Patient, error)
	ExistsByID(db *gorm.DB, id string) (bool, error)
	// FindByUniqueField looks up by one of entity.PatientField*.
	FindByUniqueField(db *gorm.DB, field, value string) (*entity.Patient, error)
	FindIDsByPrefix(db *gorm.DB, prefix string) ([]string, error)
	FindAll(db *gorm.DB, filter entity.PatientFilter) ([]entity.Patient, error)
	FindMinorsByParentCin(db *gorm.DB, parentCin string) ([]entity.Patient, error)
	CountByParentCin(db *gorm.DB, parentCin string) (int64, error)
	// Rekey replaces the record stored under oldID with patient, atomically.
	Rekey(db *gorm.DB, oldID string, patient *entity.Patient) error
}
