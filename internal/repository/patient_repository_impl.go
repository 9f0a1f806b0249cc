package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-records/internal/domain/entity"
	domainRepo "hospital-records/internal/domain/repository"

	"gorm.io/gorm"
)

var patientConstraints = tableConstraints{
	table:     "patients",
	keyColumn: "id",
	fields: []string{
		entity.PatientFieldEmail,
		entity.PatientFieldNumeroSecuriteSociale,
		entity.PatientFieldCin,
	},
}

type patientRepository struct{}

func NewPatientRepository() domainRepo.PatientRepository {
	return &patientRepository{}
}

func (r *patientRepository) Create(db *gorm.DB, patient *entity.Patient) error {
	return patientConstraints.translate(db.Create(patient).Error)
}

func (r *patientRepository) Update(db *gorm.DB, patient *entity.Patient) error {
	return patientConstraints.translate(db.Save(patient).Error)
}

func (r *patientRepository) Delete(db *gorm.DB, id string) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.Patient{})
	return result.RowsAffected, result.Error
}

func (r *patientRepository) FindByID(db *gorm.DB, id string) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) ExistsByID(db *gorm.DB, id string) (bool, error) {
	var count int64
	err := db.Model(&entity.Patient{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *patientRepository) FindByUniqueField(db *gorm.DB, field, value string) (*entity.Patient, error) {
	switch field {
	case entity.PatientFieldEmail, entity.PatientFieldCin, entity.PatientFieldNumeroSecuriteSociale:
	default:
		return nil, fmt.Errorf("unsupported patient lookup field %q", field)
	}

	var patient entity.Patient
	err := db.Where(field+" = ?", value).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindIDsByPrefix(db *gorm.DB, prefix string) ([]string, error) {
	var ids []string
	err := db.Model(&entity.Patient{}).
		Where("id LIKE ?", prefix+"%").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *patientRepository) FindAll(db *gorm.DB, filter entity.PatientFilter) ([]entity.Patient, error) {
	query := db.Model(&entity.Patient{})

	if filter.IsMinor != nil {
		asOf := filter.AsOf
		if asOf.IsZero() {
			asOf = time.Now()
		}
		if *filter.IsMinor {
			query = query.Where("date_naissance > ?", entity.AdultCutoff(asOf))
		} else {
			query = query.Where("date_naissance <= ?", entity.AdultCutoff(asOf))
		}
	}
	if filter.MinorKeyed {
		query = query.Where("id LIKE ? AND (cin IS NULL OR cin <> id)", entity.MinorIDPrefix+"%")
	}
	if filter.Search != "" {
		query = query.Where("LOWER(nom) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var patients []entity.Patient
	if err := query.Order("id ASC").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *patientRepository) FindMinorsByParentCin(db *gorm.DB, parentCin string) ([]entity.Patient, error) {
	var patients []entity.Patient
	err := db.Where("parent_cin = ?", parentCin).Order("id ASC").Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *patientRepository) CountByParentCin(db *gorm.DB, parentCin string) (int64, error) {
	var count int64
	err := db.Model(&entity.Patient{}).Where("parent_cin = ?", parentCin).Count(&count).Error
	return count, err
}

func (r *patientRepository) Rekey(db *gorm.DB, oldID string, patient *entity.Patient) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", oldID).Delete(&entity.Patient{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return patientConstraints.translate(tx.Create(patient).Error)
	})
}
