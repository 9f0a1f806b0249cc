package service

import (
	"hospital-records/internal/domain/apperror"
	"hospital-records/internal/domain/entity"
	"hospital-records/internal/domain/repository"

	"gorm.io/gorm"
)

// DuplicateChecker looks for other records already holding a candidate's
// unique values. excludeKey is the key of the record being updated, or ""
// on create; a record never conflicts with itself.
type DuplicateChecker interface {
	CheckEmployee(db *gorm.DB, employee *entity.Employee, excludeKey string) error
	CheckPatient(db *gorm.DB, patient *entity.Patient, excludeKey string) error
}

type duplicateChecker struct {
	employeeRepo repository.EmployeeRepository
	patientRepo  repository.PatientRepository
}

func NewDuplicateChecker(employeeRepo repository.EmployeeRepository, patientRepo repository.PatientRepository) DuplicateChecker {
	return &duplicateChecker{
		employeeRepo: employeeRepo,
		patientRepo:  patientRepo,
	}
}

func (c *duplicateChecker) CheckEmployee(db *gorm.DB, e *entity.Employee, excludeKey string) error {
	if e.Matricule != "" && e.Matricule != excludeKey {
		exists, err := c.employeeRepo.ExistsByMatricule(db, e.Matricule)
		if err != nil {
			return err
		}
		if exists {
			return apperror.Duplicate(entity.AuditResourceEmployee, "matricule", e.Matricule)
		}
	}

	fields := []struct {
		name  string
		value *string
	}{
		{entity.EmployeeFieldEmail, e.Email},
		{entity.EmployeeFieldCin, e.Cin},
		{entity.EmployeeFieldLicenceNumber, e.LicenceNumber},
	}
	for _, f := range fields {
		if f.value == nil || *f.value == "" {
			continue
		}
		existing, err := c.employeeRepo.FindByUniqueField(db, f.name, *f.value)
		if err != nil {
			return err
		}
		if existing != nil && existing.Matricule != excludeKey {
			return apperror.Duplicate(entity.AuditResourceEmployee, f.name, *f.value)
		}
	}
	return nil
}

func (c *duplicateChecker) CheckPatient(db *gorm.DB, p *entity.Patient, excludeKey string) error {
	if p.ID != "" && p.ID != excludeKey {
		exists, err := c.patientRepo.ExistsByID(db, p.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.Duplicate(entity.AuditResourcePatient, "id", p.ID)
		}
	}

	fields := []struct {
		name  string
		value *string
	}{
		{entity.PatientFieldEmail, p.Email},
		{entity.PatientFieldCin, p.Cin},
		{entity.PatientFieldNumeroSecuriteSociale, p.NumeroSecuriteSociale},
	}
	for _, f := range fields {
		if f.value == nil || *f.value == "" {
			continue
		}
		existing, err := c.patientRepo.FindByUniqueField(db, f.name, *f.value)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != excludeKey {
			return apperror.Duplicate(entity.AuditResourcePatient, f.name, *f.value)
		}
	}
	return nil
}
