package repository

import (
	"errors"
	"fmt"
	"strings"

	"hospital-records/internal/domain/entity"
	domainRepo "hospital-records/internal/domain/repository"

	"gorm.io/gorm"
)

var employeeConstraints = tableConstraints{
	table:     "employees",
	keyColumn: "matricule",
	fields: []string{
		entity.EmployeeFieldEmail,
		entity.EmployeeFieldLicenceNumber,
		entity.EmployeeFieldCin,
	},
}

type employeeRepository struct{}

func NewEmployeeRepository() domainRepo.EmployeeRepository {
	return &employeeRepository{}
}

func (r *employeeRepository) Create(db *gorm.DB, employee *entity.Employee) error {
	return employeeConstraints.translate(db.Create(employee).Error)
}

func (r *employeeRepository) Update(db *gorm.DB, employee *entity.Employee) error {
	return employeeConstraints.translate(db.Save(employee).Error)
}

func (r *employeeRepository) Delete(db *gorm.DB, matricule string) (int64, error) {
	result := db.Where("matricule = ?", matricule).Delete(&entity.Employee{})
	return result.RowsAffected, result.Error
}

func (r *employeeRepository) FindByMatricule(db *gorm.DB, matricule string) (*entity.Employee, error) {
	var employee entity.Employee
	err := db.Where("matricule = ?", matricule).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) ExistsByMatricule(db *gorm.DB, matricule string) (bool, error) {
	var count int64
	err := db.Model(&entity.Employee{}).Where("matricule = ?", matricule).Count(&count).Error
	return count > 0, err
}

func (r *employeeRepository) FindByUniqueField(db *gorm.DB, field, value string) (*entity.Employee, error) {
	switch field {
	case entity.EmployeeFieldEmail, entity.EmployeeFieldCin, entity.EmployeeFieldLicenceNumber:
	default:
		return nil, fmt.Errorf("unsupported employee lookup field %q", field)
	}

	var employee entity.Employee
	err := db.Where(field+" = ?", value).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) FindMatriculesByPrefix(db *gorm.DB, prefix string) ([]string, error) {
	var matricules []string
	err := db.Model(&entity.Employee{}).
		Where("matricule LIKE ?", prefix+"%").
		Pluck("matricule", &matricules).Error
	if err != nil {
		return nil, err
	}
	return matricules, nil
}

func (r *employeeRepository) FindAll(db *gorm.DB, filter entity.EmployeeFilter) ([]entity.Employee, error) {
	query := db.Model(&entity.Employee{})

	if filter.EmployeeType != "" {
		query = query.Where("employee_type = ?", filter.EmployeeType)
	}
	if filter.Departement != "" {
		query = query.Where("LOWER(departement) = ?", strings.ToLower(filter.Departement))
	}
	if filter.Specialite != "" {
		query = query.Where("LOWER(specialite) = ?", strings.ToLower(filter.Specialite))
	}
	if filter.SupervisorMatricule != "" {
		query = query.Where("supervisor_matricule = ?", filter.SupervisorMatricule)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(nom) LIKE ? OR LOWER(prenom) LIKE ?", pattern, pattern)
	}
	if filter.HiredFrom != nil {
		query = query.Where("date_embauche >= ?", *filter.HiredFrom)
	}
	if filter.HiredTo != nil {
		query = query.Where("date_embauche <= ?", *filter.HiredTo)
	}

	var employees []entity.Employee
	if err := query.Order("matricule ASC").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *employeeRepository) FindAvailableMedicalStaff(db *gorm.DB, day entity.WorkDay) ([]entity.Employee, error) {
	var employees []entity.Employee
	err := db.
		Where("employee_type = ?", entity.EmployeeTypeMedicalStaff).
		Where("is_active = ?", true).
		Where("work_days LIKE ?", "%"+string(day)+"%").
		Order("matricule ASC").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}
