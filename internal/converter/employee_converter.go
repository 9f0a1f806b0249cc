package converter

import (
	"strings"
	"time"

	"hospital-records/internal/delivery/dto"
	"hospital-records/internal/domain/apperror"
	"hospital-records/internal/domain/entity"
)

// EmployeeRequestToEntity builds a new employee. The hire date defaults to
// today and the active flag to true.
func EmployeeRequestToEntity(req *dto.EmployeeRequest, now time.Time) (*entity.Employee, error) {
	active := true
	e := &entity.Employee{
		Matricule:    strings.TrimSpace(req.Matricule),
		DateEmbauche: Today(now),
		IsActive:     &active,
	}
	if err := fillEmployee(e, req); err != nil {
		return nil, err
	}
	return e, nil
}

// ApplyEmployeeRequest returns a copy of existing carrying the request
// values. The matricule never changes; an omitted hire date or active flag
// keeps the stored one.
func ApplyEmployeeRequest(existing *entity.Employee, req *dto.EmployeeRequest) (*entity.Employee, error) {
	e := &entity.Employee{
		Matricule:    existing.Matricule,
		DateEmbauche: existing.DateEmbauche,
		IsActive:     existing.IsActive,
		CreatedAt:    existing.CreatedAt,
	}
	if err := fillEmployee(e, req); err != nil {
		return nil, err
	}
	return e, nil
}

func fillEmployee(e *entity.Employee, req *dto.EmployeeRequest) error {
	e.Nom = strings.TrimSpace(req.Nom)
	e.Prenom = strings.TrimSpace(req.Prenom)
	e.Poste = req.Poste
	e.EmployeeType = entity.EmployeeType(strings.ToUpper(strings.TrimSpace(req.EmployeeType)))
	e.Departement = strings.TrimSpace(req.Departement)
	e.Telephone = strings.TrimSpace(req.Telephone)
	e.Email = optional(req.Email)
	e.Adresse = req.Adresse
	e.NumeroSecuriteSociale = strings.TrimSpace(req.NumeroSecuriteSociale)
	e.Cin = optional(req.Cin)
	e.Specialite = strings.TrimSpace(req.Specialite)
	e.LicenceNumber = optional(req.LicenceNumber)
	e.SupervisorMatricule = optional(req.SupervisorMatricule)
	e.ShiftStart = req.ShiftStart
	e.ShiftEnd = req.ShiftEnd

	if req.IsActive != nil {
		active := *req.IsActive
		e.IsActive = &active
	}

	if req.DateEmbauche != "" {
		d, err := ParseDate("date_embauche", req.DateEmbauche)
		if err != nil {
			return err
		}
		e.DateEmbauche = d
	}

	e.DateNaissance = nil
	if req.DateNaissance != "" {
		d, err := ParseDate("date_naissance", req.DateNaissance)
		if err != nil {
			return err
		}
		e.DateNaissance = &d
	}

	e.WorkDays = nil
	for _, raw := range req.WorkDays {
		day, err := entity.ParseWorkDay(raw)
		if err != nil {
			return apperror.Invalid(RuleWorkDayFormat, "Invalid work day %q", raw)
		}
		e.WorkDays = append(e.WorkDays, day)
	}
	e.WorkDays = e.WorkDays.Normalize()

	return nil
}

// EmployeeToResponse converts an Employee entity to EmployeeResponse DTO
func EmployeeToResponse(e *entity.Employee) *dto.EmployeeResponse {
	if e == nil {
		return nil
	}

	var birth string
	if e.DateNaissance != nil {
		birth = formatDate(*e.DateNaissance)
	}

	var days []string
	for _, d := range e.WorkDays {
		days = append(days, string(d))
	}

	return &dto.EmployeeResponse{
		Matricule:             e.Matricule,
		Nom:                   e.Nom,
		Prenom:                e.Prenom,
		FullName:              e.FullName(),
		Poste:                 e.Poste,
		EmployeeType:          string(e.EmployeeType),
		Departement:           e.Departement,
		Telephone:             e.Telephone,
		Email:                 deref(e.Email),
		DateEmbauche:          formatDate(e.DateEmbauche),
		DateNaissance:         birth,
		Adresse:               e.Adresse,
		NumeroSecuriteSociale: e.NumeroSecuriteSociale,
		Cin:                   deref(e.Cin),
		Specialite:            e.Specialite,
		LicenceNumber:         deref(e.LicenceNumber),
		IsActive:              e.Active(),
		SupervisorMatricule:   deref(e.SupervisorMatricule),
		WorkDays:              days,
		ShiftStart:            e.ShiftStart,
		ShiftEnd:              e.ShiftEnd,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

// EmployeesToResponses converts a slice of Employee entities to an EmployeeListResponse
func EmployeesToResponses(employees []entity.Employee) *dto.EmployeeListResponse {
	responses := make([]dto.EmployeeResponse, len(employees))
	for i := range employees {
		responses[i] = *EmployeeToResponse(&employees[i])
	}
	return &dto.EmployeeListResponse{
		Employees: responses,
		Total:     len(responses),
	}
}
