package dto

import "time"

// Request DTOs

// PatientRequest never carries an id: the key is derived from the
// classification.
type PatientRequest struct {
	Nom                   string `json:"nom" validate:"max=150"`
	DateNaissance         string `json:"date_naissance" validate:"omitempty,datetime=2006-01-02"` // Format: YYYY-MM-DD
	NumeroTelephone       string `json:"numero_telephone" validate:"max=20"`
	Email                 string `json:"email" validate:"max=255"`
	Adresse               string `json:"adresse"`
	NumeroSecuriteSociale string `json:"numero_securite_sociale" validate:"max=30"`
	Cin                   string `json:"cin" validate:"max=20"`
	ParentCin             string `json:"parent_cin" validate:"max=20"`
}

type CreatePatientRequest = PatientRequest

type UpdatePatientRequest = PatientRequest

type ClassifyPatientRequest struct {
	DateNaissance string `json:"date_naissance" validate:"required,datetime=2006-01-02"`
}

// Response DTOs

// PatientResponse reports is_minor and age as of the time of the request.
type PatientResponse struct {
	ID                    string    `json:"id"`
	Nom                   string    `json:"nom"`
	DateNaissance         string    `json:"date_naissance"`
	Age                   int       `json:"age"`
	IsMinor               bool      `json:"is_minor"`
	NumeroTelephone       string    `json:"numero_telephone,omitempty"`
	Email                 string    `json:"email,omitempty"`
	Adresse               string    `json:"adresse,omitempty"`
	NumeroSecuriteSociale string    `json:"numero_securite_sociale,omitempty"`
	Cin                   string    `json:"cin,omitempty"`
	ParentCin             string    `json:"parent_cin,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}

type ClassificationResponse struct {
	DateNaissance  string `json:"date_naissance"`
	Age            int    `json:"age"`
	Classification string `json:"classification"`
	IsMinor        bool   `json:"is_minor"`
}
