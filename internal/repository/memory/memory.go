// Package memory holds map-backed repositories honouring the same key and
// unique constraints as the gorm ones. The *gorm.DB argument is ignored.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hospital-records/internal/domain/entity"
	domainRepo "hospital-records/internal/domain/repository"

	"gorm.io/gorm"
)

// Transactor runs fn directly. Writes made before a failure are not undone.
type Transactor struct{}

func (Transactor) DB(ctx context.Context) *gorm.DB {
	return nil
}

func (Transactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func keyConflict(table, column string) error {
	return &domainRepo.UniqueViolationError{Constraint: table + "_pkey", Field: column, Key: true}
}

func fieldConflict(table, column string) error {
	return &domainRepo.UniqueViolationError{Constraint: "uq_" + table + "_" + column, Field: column}
}

func sameValue(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

func touch(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// ============================================================================
// Employees
// ============================================================================

type EmployeeRepository struct {
	mu      sync.Mutex
	records map[string]entity.Employee

	// BeforeCreate runs ahead of every Create, outside the lock.
	BeforeCreate func(employee *entity.Employee)
}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{records: make(map[string]entity.Employee)}
}

var _ domainRepo.EmployeeRepository = (*EmployeeRepository)(nil)

func (r *EmployeeRepository) Create(db *gorm.DB, e *entity.Employee) error {
	if r.BeforeCreate != nil {
		r.BeforeCreate(e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[e.Matricule]; ok {
		return keyConflict("employees", "matricule")
	}
	if err := r.uniqueLocked(e); err != nil {
		return err
	}
	touch(&e.CreatedAt, &e.UpdatedAt)
	r.records[e.Matricule] = *e
	return nil
}

func (r *EmployeeRepository) Update(db *gorm.DB, e *entity.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.uniqueLocked(e); err != nil {
		return err
	}
	touch(&e.CreatedAt, &e.UpdatedAt)
	r.records[e.Matricule] = *e
	return nil
}

func (r *EmployeeRepository) uniqueLocked(e *entity.Employee) error {
	for key, other := range r.records {
		if key == e.Matricule {
			continue
		}
		switch {
		case sameValue(e.Email, other.Email):
			return fieldConflict("employees", entity.EmployeeFieldEmail)
		case sameValue(e.Cin, other.Cin):
			return fieldConflict("employees", entity.EmployeeFieldCin)
		case sameValue(e.LicenceNumber, other.LicenceNumber):
			return fieldConflict("employees", entity.EmployeeFieldLicenceNumber)
		}
	}
	return nil
}

func (r *EmployeeRepository) Delete(db *gorm.DB, matricule string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[matricule]; !ok {
		return 0, nil
	}
	delete(r.records, matricule)
	return 1, nil
}

func (r *EmployeeRepository) FindByMatricule(db *gorm.DB, matricule string) (*entity.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.records[matricule]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *EmployeeRepository) ExistsByMatricule(db *gorm.DB, matricule string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[matricule]
	return ok, nil
}

func (r *EmployeeRepository) FindByUniqueField(db *gorm.DB, field, value string) (*entity.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.records {
		var v *string
		switch field {
		case entity.EmployeeFieldEmail:
			v = e.Email
		case entity.EmployeeFieldCin:
			v = e.Cin
		case entity.EmployeeFieldLicenceNumber:
			v = e.LicenceNumber
		}
		if v != nil && *v == value {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (r *EmployeeRepository) FindMatriculesByPrefix(db *gorm.DB, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []string
	for key := range r.records {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *EmployeeRepository) FindAll(db *gorm.DB, filter entity.EmployeeFilter) ([]entity.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(filter.Search)
	var out []entity.Employee
	for _, e := range r.records {
		switch {
		case filter.EmployeeType != "" && e.EmployeeType != filter.EmployeeType:
			continue
		case filter.Departement != "" && !strings.EqualFold(e.Departement, filter.Departement):
			continue
		case filter.Specialite != "" && !strings.EqualFold(e.Specialite, filter.Specialite):
			continue
		case filter.SupervisorMatricule != "" && (e.SupervisorMatricule == nil || *e.SupervisorMatricule != filter.SupervisorMatricule):
			continue
		case filter.IsActive != nil && e.Active() != *filter.IsActive:
			continue
		case search != "" && !strings.Contains(strings.ToLower(e.Nom), search) && !strings.Contains(strings.ToLower(e.Prenom), search):
			continue
		case filter.HiredFrom != nil && e.DateEmbauche.Before(*filter.HiredFrom):
			continue
		case filter.HiredTo != nil && e.DateEmbauche.After(*filter.HiredTo):
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Matricule < out[j].Matricule })
	return out, nil
}

func (r *EmployeeRepository) FindAvailableMedicalStaff(db *gorm.DB, day entity.WorkDay) ([]entity.Employee, error) {
	all, err := r.FindAll(db, entity.EmployeeFilter{EmployeeType: entity.EmployeeTypeMedicalStaff})
	if err != nil {
		return nil, err
	}
	var out []entity.Employee
	for _, e := range all {
		if e.Active() && e.WorkDays.Contains(day) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ============================================================================
// Patients
// ============================================================================

type PatientRepository struct {
	mu      sync.Mutex
	records map[string]entity.Patient

	// BeforeCreate runs ahead of every Create, outside the lock.
	BeforeCreate func(patient *entity.Patient)
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{records: make(map[string]entity.Patient)}
}

var _ domainRepo.PatientRepository = (*PatientRepository)(nil)

func (r *PatientRepository) Create(db *gorm.DB, p *entity.Patient) error {
	if r.BeforeCreate != nil {
		r.BeforeCreate(p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[p.ID]; ok {
		return keyConflict("patients", "id")
	}
	return r.insertLocked(p, "")
}

func (r *PatientRepository) insertLocked(p *entity.Patient, ignore string) error {
	for key, other := range r.records {
		if key == p.ID || key == ignore {
			continue
		}
		switch {
		case sameValue(p.Email, other.Email):
			return fieldConflict("patients", entity.PatientFieldEmail)
		case sameValue(p.NumeroSecuriteSociale, other.NumeroSecuriteSociale):
			return fieldConflict("patients", entity.PatientFieldNumeroSecuriteSociale)
		case sameValue(p.Cin, other.Cin):
			return fieldConflict("patients", entity.PatientFieldCin)
		}
	}
	touch(&p.CreatedAt, &p.UpdatedAt)
	r.records[p.ID] = *p
	return nil
}

func (r *PatientRepository) Update(db *gorm.DB, p *entity.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(p, "")
}

func (r *PatientRepository) Delete(db *gorm.DB, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return 0, nil
	}
	delete(r.records, id)
	return 1, nil
}

func (r *PatientRepository) FindByID(db *gorm.DB, id string) (*entity.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *PatientRepository) ExistsByID(db *gorm.DB, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[id]
	return ok, nil
}

func (r *PatientRepository) FindByUniqueField(db *gorm.DB, field, value string) (*entity.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.records {
		var v *string
		switch field {
		case entity.PatientFieldEmail:
			v = p.Email
		case entity.PatientFieldCin:
			v = p.Cin
		case entity.PatientFieldNumeroSecuriteSociale:
			v = p.NumeroSecuriteSociale
		}
		if v != nil && *v == value {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r *PatientRepository) FindIDsByPrefix(db *gorm.DB, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id := range r.records {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *PatientRepository) FindAll(db *gorm.DB, filter entity.PatientFilter) ([]entity.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asOf := filter.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	search := strings.ToLower(filter.Search)
	var out []entity.Patient
	for _, p := range r.records {
		if filter.IsMinor != nil && entity.Classify(p.DateNaissance, asOf).IsMinor() != *filter.IsMinor {
			continue
		}
		if filter.MinorKeyed && !p.MinorKeyed() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Nom), search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PatientRepository) FindMinorsByParentCin(db *gorm.DB, parentCin string) ([]entity.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.Patient
	for _, p := range r.records {
		if p.ParentCinValue() == parentCin {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PatientRepository) CountByParentCin(db *gorm.DB, parentCin string) (int64, error) {
	minors, err := r.FindMinorsByParentCin(db, parentCin)
	return int64(len(minors)), err
}

func (r *PatientRepository) Rekey(db *gorm.DB, oldID string, p *entity.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[oldID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if _, ok := r.records[p.ID]; ok && p.ID != oldID {
		return keyConflict("patients", "id")
	}
	if err := r.insertLocked(p, oldID); err != nil {
		return err
	}
	if p.ID != oldID {
		delete(r.records, oldID)
	}
	return nil
}

// ============================================================================
// Audit logs
// ============================================================================

type AuditLogRepository struct {
	mu   sync.Mutex
	logs []entity.AuditLog
}

func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{}
}

var _ domainRepo.AuditLogRepository = (*AuditLogRepository)(nil)

func (r *AuditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.ID = int64(len(r.logs) + 1)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *AuditLogRepository) FindAll(db *gorm.DB, filter entity.AuditLogFilter) ([]entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.AuditLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceKey != "" && l.ResourceKey != filter.ResourceKey {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		out = append(out, l)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *AuditLogRepository) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.logs {
		if l.ID == id {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}
