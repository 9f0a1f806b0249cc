package repository

import (
	"hospital-records/internal/domain/entity"

	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(db *gorm.DB, employee *entity.Employee) error
	Update(db *gorm.DB, employee *entity.Employee) error
	Delete(db *gorm.DB, matricule string) (int64, error)
	FindByMatricule(db *gorm.DB, matricule string) (*entity.Employee, error)
	ExistsByMatricule(db *gorm.DB, matricule string) (bool, error)
	// FindByUniqueField looks up by one of entity.EmployeeField*.
	FindByUniqueField(db *gorm.DB, field, value string) (*entity.Employee, error)
	FindMatriculesByPrefix(db *gorm.DB, prefix string) ([]string, error)
	FindAll(db *gorm.DB, filter entity.EmployeeFilter) ([]entity.Employee, error)
	FindAvailableMedicalStaff(db *gorm.DB, day entity.WorkDay) ([]entity.Employee, error)
}
