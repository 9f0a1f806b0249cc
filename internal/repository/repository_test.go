package repository

import (
	"testing"
	"time"

	"hospital-records/internal/domain/entity"
	domainRepo "hospital-records/internal/domain/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entity.Employee{}, &entity.Patient{}, &entity.AuditLog{}))
	return db
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func newEmployee(matricule string, typ entity.EmployeeType) *entity.Employee {
	return &entity.Employee{
		Matricule:    matricule,
		Nom:          "Alaoui",
		Prenom:       "Sara",
		EmployeeType: typ,
		Departement:  "Cardiologie",
		DateEmbauche: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		IsActive:     boolPtr(true),
	}
}

func TestEmployeeRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmployeeRepository()

	e := newEmployee("MED2506001", entity.EmployeeTypeMedicalStaff)
	e.Email = strPtr("sara@clinic.ma")
	e.WorkDays = entity.WorkDays{entity.Monday, entity.Wednesday}
	require.NoError(t, repo.Create(db, e))

	found, err := repo.FindByMatricule(db, "MED2506001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entity.WorkDays{entity.Monday, entity.Wednesday}, found.WorkDays)

	byEmail, err := repo.FindByUniqueField(db, entity.EmployeeFieldEmail, "sara@clinic.ma")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "MED2506001", byEmail.Matricule)

	missing, err := repo.FindByMatricule(db, "MED2506999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := repo.ExistsByMatricule(db, "MED2506001")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindByUniqueField(db, "nom", "Alaoui")
	assert.Error(t, err)
}

func TestEmployeeRepository_UniqueViolations(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmployeeRepository()

	first := newEmployee("ADM2506001", entity.EmployeeTypeAdministration)
	first.Email = strPtr("dup@clinic.ma")
	require.NoError(t, repo.Create(db, first))

	sameKey := newEmployee("ADM2506001", entity.EmployeeTypeAdministration)
	err := repo.Create(db, sameKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainRepo.ErrKeyConflict)

	sameEmail := newEmployee("ADM2506002", entity.EmployeeTypeAdministration)
	sameEmail.Email = strPtr("dup@clinic.ma")
	err = repo.Create(db, sameEmail)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainRepo.ErrUniqueViolation)
	assert.NotErrorIs(t, err, domainRepo.ErrKeyConflict)

	var violation *domainRepo.UniqueViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, entity.EmployeeFieldEmail, violation.Field)
}

func TestEmployeeRepository_FindMatriculesByPrefix(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmployeeRepository()

	for _, m := range []string{"MED2506001", "MED2506002", "MED2505007", "ADM2506001"} {
		typ := entity.EmployeeTypeMedicalStaff
		if m[:3] == "ADM" {
			typ = entity.EmployeeTypeAdministration
		}
		require.NoError(t, repo.Create(db, newEmployee(m, typ)))
	}

	keys, err := repo.FindMatriculesByPrefix(db, "MED2506")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"MED2506001", "MED2506002"}, keys)
}

func TestEmployeeRepository_FindAllAndAvailability(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmployeeRepository()

	doc := newEmployee("MED2506001", entity.EmployeeTypeMedicalStaff)
	doc.Specialite = "Pediatrie"
	doc.WorkDays = entity.WorkDays{entity.Monday, entity.Tuesday}
	require.NoError(t, repo.Create(db, doc))

	off := newEmployee("MED2506002", entity.EmployeeTypeMedicalStaff)
	off.Nom = "Bennani"
	off.Specialite = "Pediatrie"
	off.WorkDays = entity.WorkDays{entity.Monday}
	off.IsActive = boolPtr(false)
	off.SupervisorMatricule = strPtr("MED2506001")
	require.NoError(t, repo.Create(db, off))

	clerk := newEmployee("ADM2506001", entity.EmployeeTypeAdministration)
	clerk.WorkDays = entity.WorkDays{entity.Monday}
	require.NoError(t, repo.Create(db, clerk))

	available, err := repo.FindAvailableMedicalStaff(db, entity.Monday)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "MED2506001", available[0].Matricule)

	subordinates, err := repo.FindAll(db, entity.EmployeeFilter{SupervisorMatricule: "MED2506001"})
	require.NoError(t, err)
	require.Len(t, subordinates, 1)
	assert.Equal(t, "MED2506002", subordinates[0].Matricule)

	searched, err := repo.FindAll(db, entity.EmployeeFilter{Search: "benn"})
	require.NoError(t, err)
	require.Len(t, searched, 1)

	active, err := repo.FindAll(db, entity.EmployeeFilter{IsActive: boolPtr(true), EmployeeType: entity.EmployeeTypeMedicalStaff})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	affected, err := repo.Delete(db, "ADM2506001")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
}

func newPatient(id string, minor bool) *entity.Patient {
	p := &entity.Patient{
		ID:            id,
		Nom:           "Idrissi",
		DateNaissance: time.Date(1990, 3, 10, 0, 0, 0, 0, time.UTC),
		IsMinor:       minor,
	}
	if minor {
		p.DateNaissance = time.Date(2015, 3, 10, 0, 0, 0, 0, time.UTC)
		p.ParentCin = strPtr("AB123456")
	} else {
		p.Cin = strPtr(id)
	}
	return p
}

func TestPatientRepository_Rekey(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatientRepository()

	require.NoError(t, repo.Create(db, newPatient("AB123456", false)))
	require.NoError(t, repo.Create(db, newPatient("MIN-0001", true)))

	minors, err := repo.FindMinorsByParentCin(db, "AB123456")
	require.NoError(t, err)
	require.Len(t, minors, 1)

	count, err := repo.CountByParentCin(db, "AB123456")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	grown := minors[0]
	grown.ID = "CD654321"
	grown.Cin = strPtr("CD654321")
	grown.ParentCin = nil
	grown.IsMinor = false
	require.NoError(t, repo.Rekey(db, "MIN-0001", &grown))

	old, err := repo.FindByID(db, "MIN-0001")
	require.NoError(t, err)
	assert.Nil(t, old)

	current, err := repo.FindByID(db, "CD654321")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.False(t, current.IsMinor)

	err = repo.Rekey(db, "MIN-0001", &grown)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPatientRepository_RekeyRollsBackOnConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatientRepository()

	require.NoError(t, repo.Create(db, newPatient("AB123456", false)))
	require.NoError(t, repo.Create(db, newPatient("MIN-0001", true)))

	clash := newPatient("AB123456", false)
	clash.Cin = strPtr("ZZ999999")
	err := repo.Rekey(db, "MIN-0001", clash)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainRepo.ErrKeyConflict)

	still, err := repo.FindByID(db, "MIN-0001")
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestPatientRepository_PrefixAndFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatientRepository()

	require.NoError(t, repo.Create(db, newPatient("AB123456", false)))
	require.NoError(t, repo.Create(db, newPatient("MIN-0003", true)))
	require.NoError(t, repo.Create(db, newPatient("MIN-0007", true)))

	ids, err := repo.FindIDsByPrefix(db, entity.MinorIDPrefix)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"MIN-0003", "MIN-0007"}, ids)

	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	minors, err := repo.FindAll(db, entity.PatientFilter{IsMinor: boolPtr(true), AsOf: asOf})
	require.NoError(t, err)
	assert.Len(t, minors, 2)

	byCin, err := repo.FindByUniqueField(db, entity.PatientFieldCin, "AB123456")
	require.NoError(t, err)
	require.NotNil(t, byCin)

	dupSSN := newPatient("EF000001", false)
	dupSSN.NumeroSecuriteSociale = strPtr("SSN-1")
	require.NoError(t, repo.Create(db, dupSSN))
	other := newPatient("EF000002", false)
	other.NumeroSecuriteSociale = strPtr("SSN-1")

	var violation *domainRepo.UniqueViolationError
	require.ErrorAs(t, repo.Create(db, other), &violation)
	assert.Equal(t, entity.PatientFieldNumeroSecuriteSociale, violation.Field)
}

func TestPatientRepository_MinorFilterRecomputesAge(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatientRepository()
	asOf := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(db, newPatient("AB123456", false)))
	require.NoError(t, repo.Create(db, newPatient("MIN-0001", true)))
	// still flagged minor but 18 today
	grown := newPatient("MIN-0002", true)
	grown.DateNaissance = time.Date(2007, 6, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(db, grown))
	// one day short of 18
	almost := newPatient("MIN-0003", true)
	almost.DateNaissance = time.Date(2007, 6, 16, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(db, almost))

	minors, err := repo.FindAll(db, entity.PatientFilter{IsMinor: boolPtr(true), AsOf: asOf})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"MIN-0001", "MIN-0003"}, patientIDs(minors))

	adults, err := repo.FindAll(db, entity.PatientFilter{IsMinor: boolPtr(false), AsOf: asOf})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AB123456", "MIN-0002"}, patientIDs(adults))
}

func TestPatientRepository_MinorKeyedFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatientRepository()

	require.NoError(t, repo.Create(db, newPatient("AB123456", false)))
	require.NoError(t, repo.Create(db, newPatient("MIN-0001", true)))
	// adult whose own cin looks like a generated id
	require.NoError(t, repo.Create(db, newPatient("MIN-0500", false)))

	keyed, err := repo.FindAll(db, entity.PatientFilter{MinorKeyed: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"MIN-0001"}, patientIDs(keyed))
}

func patientIDs(patients []entity.Patient) []string {
	ids := make([]string, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestEmployeeRepository_HireDateRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmployeeRepository()

	for matricule, hired := range map[string]time.Time{
		"MED2401001": time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"MED2503001": time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		"MED2506001": time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	} {
		e := newEmployee(matricule, entity.EmployeeTypeMedicalStaff)
		e.DateEmbauche = hired
		require.NoError(t, repo.Create(db, e))
	}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	inRange, err := repo.FindAll(db, entity.EmployeeFilter{HiredFrom: &from, HiredTo: &to})
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "MED2503001", inRange[0].Matricule)
	assert.Equal(t, "MED2506001", inRange[1].Matricule)

	since, err := repo.FindAll(db, entity.EmployeeFilter{HiredFrom: &to})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "MED2506001", since[0].Matricule)
}

func TestAuditLogRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditLogRepository()

	require.NoError(t, repo.Create(db, &entity.AuditLog{
		Action:       entity.AuditActionPatientCreate,
		ResourceType: entity.AuditResourcePatient,
		ResourceKey:  "AB123456",
		Metadata:     entity.JSON{"entity_id": "AB123456"},
	}))
	require.NoError(t, repo.Create(db, &entity.AuditLog{
		Action:       entity.AuditActionEmployeeCreate,
		ResourceType: entity.AuditResourceEmployee,
		ResourceKey:  "ADM2506001",
	}))

	logs, err := repo.FindAll(db, entity.AuditLogFilter{ResourceType: entity.AuditResourcePatient})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "AB123456", logs[0].Metadata["entity_id"])

	found, err := repo.FindByID(db, logs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.FindByID(db, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
