package converter

import (
	"strings"
	"time"

	"hospital-records/internal/delivery/dto"
	"hospital-records/internal/domain/entity"
)

// PatientRequestToEntity builds a candidate patient without a key.
func PatientRequestToEntity(req *dto.PatientRequest) (*entity.Patient, error) {
	p := &entity.Patient{}
	if err := fillPatient(p, req); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyPatientRequest returns a copy of existing carrying the request values
// under the existing key. An omitted birth date keeps the stored one.
func ApplyPatientRequest(existing *entity.Patient, req *dto.PatientRequest) (*entity.Patient, error) {
	p := &entity.Patient{
		ID:            existing.ID,
		DateNaissance: existing.DateNaissance,
		IsMinor:       existing.IsMinor,
		CreatedAt:     existing.CreatedAt,
	}
	if err := fillPatient(p, req); err != nil {
		return nil, err
	}
	return p, nil
}

func fillPatient(p *entity.Patient, req *dto.PatientRequest) error {
	p.Nom = strings.TrimSpace(req.Nom)
	p.NumeroTelephone = strings.TrimSpace(req.NumeroTelephone)
	p.Email = optional(req.Email)
	p.Adresse = req.Adresse
	p.NumeroSecuriteSociale = optional(req.NumeroSecuriteSociale)
	p.Cin = optional(req.Cin)
	p.ParentCin = optional(req.ParentCin)

	if req.DateNaissance != "" {
		d, err := ParseDate("date_naissance", req.DateNaissance)
		if err != nil {
			return err
		}
		p.DateNaissance = d
	}
	return nil
}

// PatientToResponse converts a Patient entity to PatientResponse DTO with its
// classification recomputed at now.
func PatientToResponse(p *entity.Patient, now time.Time) *dto.PatientResponse {
	if p == nil {
		return nil
	}

	return &dto.PatientResponse{
		ID:                    p.ID,
		Nom:                   p.Nom,
		DateNaissance:         formatDate(p.DateNaissance),
		Age:                   entity.AgeAt(p.DateNaissance, now),
		IsMinor:               entity.Classify(p.DateNaissance, now).IsMinor(),
		NumeroTelephone:       p.NumeroTelephone,
		Email:                 deref(p.Email),
		Adresse:               p.Adresse,
		NumeroSecuriteSociale: deref(p.NumeroSecuriteSociale),
		Cin:                   deref(p.Cin),
		ParentCin:             deref(p.ParentCin),
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

// PatientsToResponses converts a slice of Patient entities to a PatientListResponse
func PatientsToResponses(patients []entity.Patient, now time.Time) *dto.PatientListResponse {
	responses := make([]dto.PatientResponse, len(patients))
	for i := range patients {
		responses[i] = *PatientToResponse(&patients[i], now)
	}
	return &dto.PatientListResponse{
		Patients: responses,
		Total:    len(responses),
	}
}

func ClassificationToResponse(birth time.Time, now time.Time) *dto.ClassificationResponse {
	class := entity.Classify(birth, now)
	return &dto.ClassificationResponse{
		DateNaissance:  formatDate(birth),
		Age:            entity.AgeAt(birth, now),
		Classification: string(class),
		IsMinor:        class.IsMinor(),
	}
}
