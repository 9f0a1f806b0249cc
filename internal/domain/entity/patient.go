package entity

import (
	"regexp"
	"strings"
	"time"
)

// MinorIDPrefix prefixes engine generated keys of minor patients.
const MinorIDPrefix = "MIN-"

// Unique patient columns looked up by the duplicate checker
const (
	PatientFieldEmail                 = "email"
	PatientFieldCin                   = "cin"
	PatientFieldNumeroSecuriteSociale = "numero_securite_sociale"
)

var minorKeyPattern = regexp.MustCompile(`^MIN-\d{4,}$`)

// IsMinorKey reports whether key has the shape of a generated minor id.
func IsMinorKey(key string) bool {
	return minorKeyPattern.MatchString(key)
}

// IsReservedCin reports whether cin could be mistaken for a generated minor
// id. Such values are never accepted as a cin or parent cin.
func IsReservedCin(cin string) bool {
	return IsMinorKey(strings.ToUpper(strings.TrimSpace(cin)))
}

// Patient is keyed by its cin when adult and by a generated MIN-nnnn id
// while minor. IsMinor reflects the last write only; reads and filters
// recompute the classification from DateNaissance.
type Patient struct {
	ID                    string    `gorm:"type:varchar(20);primaryKey" json:"id"`
	Nom                   string    `gorm:"type:varchar(150);not null" json:"nom"`
	DateNaissance         time.Time `gorm:"type:date;not null" json:"date_naissance"`
	NumeroTelephone       string    `gorm:"type:varchar(20)" json:"numero_telephone,omitempty"`
	Email                 *string   `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	Adresse               string    `gorm:"type:text" json:"adresse,omitempty"`
	NumeroSecuriteSociale *string   `gorm:"type:varchar(30);uniqueIndex" json:"numero_securite_sociale,omitempty"`
	Cin                   *string   `gorm:"type:varchar(20);uniqueIndex" json:"cin,omitempty"`
	IsMinor               bool      `gorm:"not null;default:false;index" json:"is_minor"`
	ParentCin             *string   `gorm:"type:varchar(20);index" json:"parent_cin,omitempty"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// CinValue returns the cin or an empty string.
func (p *Patient) CinValue() string {
	if p.Cin == nil {
		return ""
	}
	return *p.Cin
}

// MinorKeyed reports whether the stored record sits under a generated minor
// id. An adult is keyed by its own cin, so a key equal to the cin is never
// a minor key whatever its shape.
func (p *Patient) MinorKeyed() bool {
	if p.Cin != nil && *p.Cin == p.ID {
		return false
	}
	return IsMinorKey(p.ID)
}

func (p *Patient) ParentCinValue() string {
	if p.ParentCin == nil {
		return ""
	}
	return *p.ParentCin
}

// PatientFilter is a domain-level filter for listing patients.
// IsMinor matches the classification recomputed from the birth date at
// AsOf, never the stored flag. MinorKeyed keeps only records still stored
// under a generated minor id.
type PatientFilter struct {
	Search     string // nom contains, case-insensitive
	IsMinor    *bool
	AsOf       time.Time
	MinorKeyed bool
}
