package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"hospital-records/internal/domain/apperror"
	"hospital-records/internal/infrastructure/metrics"
	"hospital-records/internal/repository/memory"
	"hospital-records/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

type fixture struct {
	employees *memory.EmployeeRepository
	patients  *memory.PatientRepository
	audit     *memory.AuditLogRepository
	metrics   *metrics.IdentityMetrics

	employeeUsecase EmployeeUsecase
	patientUsecase  PatientUsecase
	auditUsecase    AuditLogUsecase
}

func newFixture(t *testing.T, maxKeyAttempts int) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		employees: memory.NewEmployeeRepository(),
		patients:  memory.NewPatientRepository(),
		audit:     memory.NewAuditLogRepository(),
		metrics:   metrics.NewIdentityMetrics(),
	}

	tx := memory.Transactor{}
	locker := service.NewSequenceLockService(nil, log, time.Second, 100*time.Millisecond)
	t.Cleanup(locker.Stop)

	validation := service.NewValidationService(f.patients, clock)
	duplicates := service.NewDuplicateChecker(f.employees, f.patients)
	identifiers := service.NewIdentifierService(f.employees, f.patients, clock)
	audit := service.NewAuditService(log, f.audit)

	f.employeeUsecase = NewEmployeeUsecase(tx, log, f.employees, validation, duplicates, identifiers,
		locker, audit, f.metrics, clock, maxKeyAttempts)
	f.patientUsecase = NewPatientUsecase(tx, log, f.patients, validation, duplicates, identifiers,
		locker, audit, f.metrics, clock, maxKeyAttempts)
	f.auditUsecase = NewAuditLogUsecase(tx, log, f.audit)
	return f
}

func ctx() context.Context {
	return context.Background()
}

func requireRule(t *testing.T, err error, rule string) {
	t.Helper()
	var verr *apperror.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, rule, verr.Rule)
}

func requireDuplicate(t *testing.T, err error, field string) *apperror.DuplicateError {
	t.Helper()
	var derr *apperror.DuplicateError
	require.True(t, errors.As(err, &derr), "expected DuplicateError, got %v", err)
	assert.Equal(t, field, derr.Field)
	return derr
}
