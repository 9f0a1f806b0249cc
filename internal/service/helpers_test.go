package service

import (
	"time"

	"hospital-records/internal/domain/entity"
)

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validMedic() *entity.Employee {
	return &entity.Employee{
		Nom:          "Alaoui",
		Prenom:       "Sara",
		EmployeeType: entity.EmployeeTypeMedicalStaff,
		Departement:  "Pediatrie",
		Specialite:   "Pediatre",
		Telephone:    "+212 600-000000",
		Email:        strPtr("sara.alaoui@clinic.ma"),
	}
}

func adultPatient(cin string) *entity.Patient {
	return &entity.Patient{
		ID:            cin,
		Nom:           "Idrissi",
		DateNaissance: date(1985, 4, 2),
		Cin:           strPtr(cin),
	}
}

func minorPatient(id, parentCin string) *entity.Patient {
	return &entity.Patient{
		ID:            id,
		Nom:           "Idrissi Junior",
		DateNaissance: date(2015, 9, 1),
		IsMinor:       true,
		ParentCin:     strPtr(parentCin),
	}
}
