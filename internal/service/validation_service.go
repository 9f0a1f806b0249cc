package service

import (
	"regexp"
	"strings"
	"time"

	"hospital-records/internal/domain/apperror"
	"hospital-records/internal/domain/entity"
	"hospital-records/internal/domain/repository"

	"gorm.io/gorm"
)

// Business rules reported in apperror.ValidationError.Rule
const (
	RuleNomRequired              = "nom_required"
	RulePrenomRequired           = "prenom_required"
	RuleDepartementRequired      = "departement_required"
	RuleEmployeeTypeRequired     = "employee_type_required"
	RuleBirthDateRequired        = "birth_date_required"
	RuleBirthDateFuture          = "birth_date_future"
	RuleEmailFormat              = "email_format"
	RulePhoneFormat              = "phone_format"
	RuleSpecialiteRequired       = "specialite_required"
	RuleMinimumAge               = "minimum_age"
	RuleCinRequired              = "cin_required"
	RuleParentCinRequired        = "parent_cin_required"
	RuleParentNotFound           = "parent_not_found"
	RuleParentNotAdult           = "parent_not_adult"
	RuleMatriculeImmutable       = "matricule_immutable"
	RuleCinImmutable             = "cin_immutable"
	RuleClassificationRegression = "classification_regression"
	RuleGuardianInUse            = "guardian_in_use"
	RuleCinReserved              = "cin_reserved"
)

// EmployeeMinimumAge is the youngest age an employee may have.
const EmployeeMinimumAge = 18

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{8,15}$`)
)

// ValidationService checks candidate records against business invariants.
// Checks run in a fixed order and stop at the first failure.
type ValidationService interface {
	ValidateEmployee(employee *entity.Employee) error
	// ValidatePatient also returns the classification derived from the
	// candidate birth date, so callers never branch on a stored flag.
	ValidatePatient(db *gorm.DB, patient *entity.Patient) (entity.Classification, error)
}

type validationService struct {
	patientRepo repository.PatientRepository
	now         func() time.Time
}

func NewValidationService(patientRepo repository.PatientRepository, now func() time.Time) ValidationService {
	return &validationService{
		patientRepo: patientRepo,
		now:         now,
	}
}

func (s *validationService) ValidateEmployee(e *entity.Employee) error {
	switch {
	case isBlank(e.Nom):
		return apperror.Invalid(RuleNomRequired, "Nom is required")
	case isBlank(e.Prenom):
		return apperror.Invalid(RulePrenomRequired, "Prenom is required")
	case isBlank(e.Departement):
		return apperror.Invalid(RuleDepartementRequired, "Departement is required")
	}

	if e.EmployeeType == "" {
		return apperror.Invalid(RuleEmployeeTypeRequired, "Employee type is required")
	}
	if !e.EmployeeType.IsValid() {
		return apperror.Invalid(RuleEmployeeTypeRequired, "Employee type must be ADMINISTRATION or MEDICAL_STAFF, got %s", e.EmployeeType)
	}

	if err := checkEmail(e.Email); err != nil {
		return err
	}
	if err := checkPhone(e.Telephone); err != nil {
		return err
	}

	if e.IsMedicalStaff() && isBlank(e.Specialite) {
		return apperror.Invalid(RuleSpecialiteRequired, "Specialite is required for medical staff")
	}

	if e.DateNaissance != nil && entity.AgeAt(*e.DateNaissance, s.now()) < EmployeeMinimumAge {
		return apperror.Invalid(RuleMinimumAge, "Employee must be at least %d years old", EmployeeMinimumAge)
	}

	return nil
}

func (s *validationService) ValidatePatient(db *gorm.DB, p *entity.Patient) (entity.Classification, error) {
	if isBlank(p.Nom) {
		return "", apperror.Invalid(RuleNomRequired, "Nom is required")
	}

	now := s.now()
	if p.DateNaissance.IsZero() {
		return "", apperror.Invalid(RuleBirthDateRequired, "Date de naissance is required")
	}
	if p.DateNaissance.After(now) {
		return "", apperror.Invalid(RuleBirthDateFuture, "Date de naissance cannot be in the future")
	}

	if err := checkEmail(p.Email); err != nil {
		return "", err
	}
	if err := checkPhone(p.NumeroTelephone); err != nil {
		return "", err
	}

	if cin := p.CinValue(); entity.IsReservedCin(cin) {
		return "", apperror.Invalid(RuleCinReserved, "Cin %s has the shape of a minor patient id", cin)
	}

	class := entity.Classify(p.DateNaissance, now)
	if !class.IsMinor() {
		if isBlank(p.CinValue()) {
			return "", apperror.Invalid(RuleCinRequired, "Cin is required for adult patients")
		}
		return class, nil
	}

	parentCin := strings.TrimSpace(p.ParentCinValue())
	if parentCin == "" {
		return "", apperror.Invalid(RuleParentCinRequired, "Parent cin is required for minor patients")
	}
	if entity.IsReservedCin(parentCin) {
		return "", apperror.Invalid(RuleCinReserved, "Parent cin %s has the shape of a minor patient id", parentCin)
	}

	parent, err := s.patientRepo.FindByUniqueField(db, entity.PatientFieldCin, parentCin)
	if err != nil {
		return "", err
	}
	if parent == nil {
		return "", apperror.Invalid(RuleParentNotFound, "No patient found with cin %s", parentCin)
	}
	if entity.Classify(parent.DateNaissance, now).IsMinor() {
		return "", apperror.Invalid(RuleParentNotAdult, "Parent with cin %s is not an adult", parentCin)
	}

	return class, nil
}

func checkEmail(email *string) error {
	if email == nil || *email == "" {
		return nil
	}
	if !emailPattern.MatchString(*email) {
		return apperror.Invalid(RuleEmailFormat, "Invalid email format: %s", *email)
	}
	return nil
}

func checkPhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return apperror.Invalid(RulePhoneFormat, "Invalid phone number: %s", phone)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
