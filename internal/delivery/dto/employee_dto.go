package dto

import "time"

// Request DTOs

// EmployeeRequest carries a full candidate employee. Business rules (required
// fields, specialite, age) are enforced by the engine, not by tags.
type EmployeeRequest struct {
	Matricule             string   `json:"matricule" validate:"omitempty,max=20"`
	Nom                   string   `json:"nom" validate:"max=100"`
	Prenom                string   `json:"prenom" validate:"max=100"`
	Poste                 string   `json:"poste" validate:"max=100"`
	EmployeeType          string   `json:"employee_type" validate:"omitempty,oneof=ADMINISTRATION MEDICAL_STAFF"`
	Departement           string   `json:"departement" validate:"max=100"`
	Telephone             string   `json:"telephone" validate:"max=20"`
	Email                 string   `json:"email" validate:"max=255"`
	DateEmbauche          string   `json:"date_embauche" validate:"omitempty,datetime=2006-01-02"` // Format: YYYY-MM-DD
	DateNaissance         string   `json:"date_naissance" validate:"omitempty,datetime=2006-01-02"`
	Adresse               string   `json:"adresse"`
	NumeroSecuriteSociale string   `json:"numero_securite_sociale" validate:"max=30"`
	Cin                   string   `json:"cin" validate:"max=20"`
	Specialite            string   `json:"specialite" validate:"max=100"`
	LicenceNumber         string   `json:"licence_number" validate:"max=50"`
	IsActive              *bool    `json:"is_active"`
	SupervisorMatricule   string   `json:"supervisor_matricule" validate:"max=20"`
	WorkDays              []string `json:"work_days" validate:"omitempty,dive,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	ShiftStart            string   `json:"shift_start" validate:"omitempty,datetime=15:04"`
	ShiftEnd              string   `json:"shift_end" validate:"omitempty,datetime=15:04"`
}

type CreateEmployeeRequest = EmployeeRequest

type UpdateEmployeeRequest = EmployeeRequest

// Response DTOs

type EmployeeResponse struct {
	Matricule             string    `json:"matricule"`
	Nom                   string    `json:"nom"`
	Prenom                string    `json:"prenom"`
	FullName              string    `json:"full_name"`
	Poste                 string    `json:"poste,omitempty"`
	EmployeeType          string    `json:"employee_type"`
	Departement           string    `json:"departement"`
	Telephone             string    `json:"telephone,omitempty"`
	Email                 string    `json:"email,omitempty"`
	DateEmbauche          string    `json:"date_embauche"`
	DateNaissance         string    `json:"date_naissance,omitempty"`
	Adresse               string    `json:"adresse,omitempty"`
	NumeroSecuriteSociale string    `json:"numero_securite_sociale,omitempty"`
	Cin                   string    `json:"cin,omitempty"`
	Specialite            string    `json:"specialite,omitempty"`
	LicenceNumber         string    `json:"licence_number,omitempty"`
	IsActive              bool      `json:"is_active"`
	SupervisorMatricule   string    `json:"supervisor_matricule,omitempty"`
	WorkDays              []string  `json:"work_days,omitempty"`
	ShiftStart            string    `json:"shift_start,omitempty"`
	ShiftEnd              string    `json:"shift_end,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type EmployeeListResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Total     int                `json:"total"`
}

type EmployeeStatisticsResponse struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	// active employees only
	ByType        map[string]int `json:"by_type"`
	ByDepartement map[string]int `json:"by_departement"`
}
