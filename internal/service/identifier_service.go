package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hospital-records/internal/domain/entity"
	"hospital-records/internal/domain/repository"

	"gorm.io/gorm"
)

// MinorSequenceBucket is the lock bucket shared by all generated minor ids.
const MinorSequenceBucket = "MIN"

// IdentifierService computes primary keys for new records. Sequences are
// max existing suffix + 1 within the bucket, so deleted keys are never reused
// and the result does not depend on how many records remain.
type IdentifierService interface {
	MatriculeBucket(employeeType entity.EmployeeType) string
	NextMatricule(db *gorm.DB, employeeType entity.EmployeeType) (string, error)
	NextMinorID(db *gorm.DB) (string, error)
	// AssignPatientID returns the key for a patient of the given
	// classification and whether it was generated.
	AssignPatientID(db *gorm.DB, patient *entity.Patient, class entity.Classification) (string, bool, error)
}

type identifierService struct {
	employeeRepo repository.EmployeeRepository
	patientRepo  repository.PatientRepository
	now          func() time.Time
}

func NewIdentifierService(employeeRepo repository.EmployeeRepository, patientRepo repository.PatientRepository, now func() time.Time) IdentifierService {
	return &identifierService{
		employeeRepo: employeeRepo,
		patientRepo:  patientRepo,
		now:          now,
	}
}

// MatriculeBucket returns prefix + yyMM, e.g. MED2506.
func (s *identifierService) MatriculeBucket(t entity.EmployeeType) string {
	return t.MatriculePrefix() + s.now().Format("0601")
}

func (s *identifierService) NextMatricule(db *gorm.DB, t entity.EmployeeType) (string, error) {
	bucket := s.MatriculeBucket(t)

	keys, err := s.employeeRepo.FindMatriculesByPrefix(db, bucket)
	if err != nil {
		return "", fmt.Errorf("find matricules in %s: %w", bucket, err)
	}

	// past 999 the suffix simply widens
	return fmt.Sprintf("%s%03d", bucket, maxSuffix(keys, bucket)+1), nil
}

func (s *identifierService) NextMinorID(db *gorm.DB) (string, error) {
	ids, err := s.patientRepo.FindIDsByPrefix(db, entity.MinorIDPrefix)
	if err != nil {
		return "", fmt.Errorf("find minor ids: %w", err)
	}
	return fmt.Sprintf("%s%04d", entity.MinorIDPrefix, maxSuffix(ids, entity.MinorIDPrefix)+1), nil
}

func (s *identifierService) AssignPatientID(db *gorm.DB, p *entity.Patient, class entity.Classification) (string, bool, error) {
	if !class.IsMinor() {
		return strings.TrimSpace(p.CinValue()), false, nil
	}
	id, err := s.NextMinorID(db)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// maxSuffix returns the highest numeric suffix following prefix, ignoring
// keys whose suffix is not purely numeric.
func maxSuffix(keys []string, prefix string) int {
	highest := 0
	for _, key := range keys {
		suffix, ok := strings.CutPrefix(key, prefix)
		if !ok || suffix == "" {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 || strings.ContainsAny(suffix, "+-") {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}
