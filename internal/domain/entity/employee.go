package entity

import (
	"strings"
	"time"
)

// EmployeeType classifies an employee. It is caller-set and editable; changing
// it never changes the matricule.
type EmployeeType string

const (
	EmployeeTypeAdministration EmployeeType = "ADMINISTRATION"
	EmployeeTypeMedicalStaff   EmployeeType = "MEDICAL_STAFF"
)

func (t EmployeeType) IsValid() bool {
	return t == EmployeeTypeAdministration || t == EmployeeTypeMedicalStaff
}

// MatriculePrefix returns the three letter prefix of generated matricules.
func (t EmployeeType) MatriculePrefix() string {
	if t == EmployeeTypeMedicalStaff {
		return "MED"
	}
	return "ADM"
}

// Unique employee columns looked up by the duplicate checker
const (
	EmployeeFieldEmail         = "email"
	EmployeeFieldCin           = "cin"
	EmployeeFieldLicenceNumber = "licence_number"
)

// Employee is keyed by its matricule, which is immutable once assigned.
// SupervisorMatricule is a weak reference: no foreign key, no cascade.
type Employee struct {
	Matricule             string       `gorm:"type:varchar(20);primaryKey" json:"matricule"`
	Nom                   string       `gorm:"type:varchar(100);not null" json:"nom"`
	Prenom                string       `gorm:"type:varchar(100);not null" json:"prenom"`
	Poste                 string       `gorm:"type:varchar(100)" json:"poste,omitempty"`
	EmployeeType          EmployeeType `gorm:"type:varchar(20);not null;index" json:"employee_type"`
	Departement           string       `gorm:"type:varchar(100);not null;index" json:"departement"`
	Telephone             string       `gorm:"type:varchar(20)" json:"telephone,omitempty"`
	Email                 *string      `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	DateEmbauche          time.Time    `gorm:"type:date;not null" json:"date_embauche"`
	DateNaissance         *time.Time   `gorm:"type:date" json:"date_naissance,omitempty"`
	Adresse               string       `gorm:"type:text" json:"adresse,omitempty"`
	NumeroSecuriteSociale string       `gorm:"type:varchar(30)" json:"numero_securite_sociale,omitempty"`
	Cin                   *string      `gorm:"type:varchar(20);uniqueIndex" json:"cin,omitempty"`
	Specialite            string       `gorm:"type:varchar(100);index" json:"specialite,omitempty"`
	LicenceNumber         *string      `gorm:"type:varchar(50);uniqueIndex" json:"licence_number,omitempty"`
	IsActive              *bool        `gorm:"not null;default:true;index" json:"is_active"`
	SupervisorMatricule   *string      `gorm:"type:varchar(20);index" json:"supervisor_matricule,omitempty"`
	WorkDays              WorkDays     `gorm:"type:varchar(100)" json:"work_days,omitempty"`
	ShiftStart            string       `gorm:"type:varchar(5)" json:"shift_start,omitempty"`
	ShiftEnd              string       `gorm:"type:varchar(5)" json:"shift_end,omitempty"`
	CreatedAt             time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.Nom + " " + e.Prenom)
}

func (e *Employee) IsMedicalStaff() bool {
	return e.EmployeeType == EmployeeTypeMedicalStaff
}

// Active treats an unset flag as active, matching the column default.
func (e *Employee) Active() bool {
	return e.IsActive == nil || *e.IsActive
}

// EmployeeFilter is a domain-level filter for listing employees.
type EmployeeFilter struct {
	EmployeeType        EmployeeType
	Departement         string
	Specialite          string
	SupervisorMatricule string
	IsActive            *bool
	Search              string // nom or prenom contains, case-insensitive
	HiredFrom           *time.Time
	HiredTo             *time.Time // inclusive
}
