package usecase

import (
	"context"
	"errors"
	"time"

	"hospital-records/internal/converter"
	"hospital-records/internal/delivery/dto"
	"hospital-records/internal/delivery/http/middleware"
	"hospital-records/internal/domain/apperror"
	"hospital-records/internal/domain/entity"
	"hospital-records/internal/domain/repository"
	"hospital-records/internal/infrastructure/metrics"
	"hospital-records/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type EmployeeUsecase interface {
	Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	Update(ctx context.Context, matricule string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	// Delete deactivates the employee, or removes the row when permanent.
	Delete(ctx context.Context, matricule string, permanent bool) error
	SetActive(ctx context.Context, matricule string, active bool) (*dto.EmployeeResponse, error)
	GetByMatricule(ctx context.Context, matricule string) (*dto.EmployeeResponse, error)
	GetAll(ctx context.Context, filter entity.EmployeeFilter) (*dto.EmployeeListResponse, error)
	GetSupervisor(ctx context.Context, matricule string) (*dto.EmployeeResponse, error)
	GetSubordinates(ctx context.Context, matricule string) (*dto.EmployeeListResponse, error)
	GetAvailableMedicalStaff(ctx context.Context, day string) (*dto.EmployeeListResponse, error)
	GetStatistics(ctx context.Context) (*dto.EmployeeStatisticsResponse, error)
}

type employeeUsecase struct {
	tx                repository.Transactor
	log               *logrus.Logger
	employeeRepo      repository.EmployeeRepository
	validationService service.ValidationService
	duplicateChecker  service.DuplicateChecker
	identifierService service.IdentifierService
	locker            service.SequenceLocker
	auditService      service.AuditService
	metrics           *metrics.IdentityMetrics
	now               func() time.Time
	maxKeyAttempts    int
}

func NewEmployeeUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	employeeRepo repository.EmployeeRepository,
	validationService service.ValidationService,
	duplicateChecker service.DuplicateChecker,
	identifierService service.IdentifierService,
	locker service.SequenceLocker,
	auditService service.AuditService,
	identityMetrics *metrics.IdentityMetrics,
	now func() time.Time,
	maxKeyAttempts int,
) EmployeeUsecase {
	if maxKeyAttempts < 1 {
		maxKeyAttempts = 1
	}
	return &employeeUsecase{
		tx:                tx,
		log:               log,
		employeeRepo:      employeeRepo,
		validationService: validationService,
		duplicateChecker:  duplicateChecker,
		identifierService: identifierService,
		locker:            locker,
		auditService:      auditService,
		metrics:           identityMetrics,
		now:               now,
		maxKeyAttempts:    maxKeyAttempts,
	}
}

func (u *employeeUsecase) Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	employee, err := converter.EmployeeRequestToEntity(req, u.now())
	if err != nil {
		return nil, err
	}

	if err := u.validationService.ValidateEmployee(employee); err != nil {
		return nil, err
	}

	generated := employee.Matricule == ""
	if generated {
		bucket := u.identifierService.MatriculeBucket(employee.EmployeeType)
		release, err := u.locker.Acquire(ctx, bucket)
		if err != nil {
			// the primary key still rejects a racing duplicate
			u.log.Warnf("Failed to acquire sequence lock %s: %+v", bucket, err)
		} else {
			defer release()
		}
	}

	actorID := middleware.ActorFromContext(ctx)

	for attempt := 1; ; attempt++ {
		err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
			if err := u.duplicateChecker.CheckEmployee(tx, employee, ""); err != nil {
				return err
			}

			if generated {
				matricule, err := u.identifierService.NextMatricule(tx, employee.EmployeeType)
				if err != nil {
					return err
				}
				employee.Matricule = matricule
			}

			if err := u.employeeRepo.Create(tx, employee); err != nil {
				return err
			}

			if err := u.auditService.LogCreate(ctx, tx, actorID, entity.AuditActionEmployeeCreate,
				entity.AuditResourceEmployee, employee.Matricule, converter.EmployeeToResponse(employee)); err != nil {
				u.log.Warnf("Failed to create audit log: %+v", err)
				return err
			}
			return nil
		})
		if err == nil {
			break
		}

		if generated && errors.Is(err, repository.ErrKeyConflict) && attempt < u.maxKeyAttempts {
			u.metrics.KeyCollision(metrics.KindEmployee)
			u.log.WithFields(logrus.Fields{
				"matricule": employee.Matricule,
				"attempt":   attempt,
			}).Warn("Generated matricule already taken, retrying")
			employee.Matricule = ""
			continue
		}

		return nil, u.storeError(err, employee.Matricule)
	}

	if generated {
		u.metrics.IdentifierAssigned(metrics.KindEmployee)
	}
	u.log.WithFields(logrus.Fields{
		"matricule": employee.Matricule,
		"generated": generated,
	}).Info("Employee created")

	return converter.EmployeeToResponse(employee), nil
}

func (u *employeeUsecase) Update(ctx context.Context, matricule string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	if req.Matricule != "" && req.Matricule != matricule {
		return nil, apperror.Invalid(service.RuleMatriculeImmutable, "Matricule %s cannot be changed", matricule)
	}

	var updated *entity.Employee
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := u.employeeRepo.FindByMatricule(tx, matricule)
		if err != nil {
			u.log.Warnf("Failed to find employee: %+v", err)
			return err
		}
		if existing == nil {
			return apperror.NotFound(entity.AuditResourceEmployee, matricule)
		}

		oldValue := converter.EmployeeToResponse(existing)

		candidate, err := converter.ApplyEmployeeRequest(existing, req)
		if err != nil {
			return err
		}
		if err := u.validationService.ValidateEmployee(candidate); err != nil {
			return err
		}
		if err := u.duplicateChecker.CheckEmployee(tx, candidate, matricule); err != nil {
			return err
		}

		if err := u.employeeRepo.Update(tx, candidate); err != nil {
			return err
		}

		if err := u.auditService.LogUpdate(ctx, tx, middleware.ActorFromContext(ctx), entity.AuditActionEmployeeUpdate,
			entity.AuditResourceEmployee, matricule, oldValue, converter.EmployeeToResponse(candidate)); err != nil {
			u.log.Warnf("Failed to create audit log: %+v", err)
			return err
		}

		updated = candidate
		return nil
	})
	if err != nil {
		return nil, u.storeError(err, matricule)
	}

	return converter.EmployeeToResponse(updated), nil
}

func (u *employeeUsecase) Delete(ctx context.Context, matricule string, permanent bool) error {
	if !permanent {
		_, err := u.SetActive(ctx, matricule, false)
		return err
	}

	return u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := u.employeeRepo.FindByMatricule(tx, matricule)
		if err != nil {
			u.log.Warnf("Failed to find employee: %+v", err)
			return err
		}
		if existing == nil {
			return apperror.NotFound(entity.AuditResourceEmployee, matricule)
		}

		affected, err := u.employeeRepo.Delete(tx, matricule)
		if err != nil {
			u.log.Warnf("Failed to delete employee: %+v", err)
			return err
		}
		if affected == 0 {
			return apperror.NotFound(entity.AuditResourceEmployee, matricule)
		}

		if err := u.auditService.LogDelete(ctx, tx, middleware.ActorFromContext(ctx), entity.AuditActionEmployeeDelete,
			entity.AuditResourceEmployee, matricule, converter.EmployeeToResponse(existing)); err != nil {
			u.log.Warnf("Failed to create audit log: %+v", err)
			return err
		}
		return nil
	})
}

func (u *employeeUsecase) SetActive(ctx context.Context, matricule string, active bool) (*dto.EmployeeResponse, error) {
	action := entity.AuditActionEmployeeDeactivate
	if active {
		action = entity.AuditActionEmployeeActivate
	}

	var employee *entity.Employee
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := u.employeeRepo.FindByMatricule(tx, matricule)
		if err != nil {
			u.log.Warnf("Failed to find employee: %+v", err)
			return err
		}
		if existing == nil {
			return apperror.NotFound(entity.AuditResourceEmployee, matricule)
		}

		oldValue := converter.EmployeeToResponse(existing)
		existing.IsActive = &active
		if err := u.employeeRepo.Update(tx, existing); err != nil {
			u.log.Warnf("Failed to update employee: %+v", err)
			return err
		}

		if err := u.auditService.LogUpdate(ctx, tx, middleware.ActorFromContext(ctx), action,
			entity.AuditResourceEmployee, matricule, oldValue, converter.EmployeeToResponse(existing)); err != nil {
			u.log.Warnf("Failed to create audit log: %+v", err)
			return err
		}

		employee = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return converter.EmployeeToResponse(employee), nil
}

func (u *employeeUsecase) GetByMatricule(ctx context.Context, matricule string) (*dto.EmployeeResponse, error) {
	employee, err := u.find(ctx, matricule)
	if err != nil {
		return nil, err
	}
	return converter.EmployeeToResponse(employee), nil
}

func (u *employeeUsecase) GetAll(ctx context.Context, filter entity.EmployeeFilter) (*dto.EmployeeListResponse, error) {
	if filter.HiredFrom != nil && filter.HiredTo != nil && filter.HiredFrom.After(*filter.HiredTo) {
		return nil, apperror.Invalid(converter.RuleDateRange, "hired_from %s is after hired_to %s",
			filter.HiredFrom.Format(converter.DateLayout), filter.HiredTo.Format(converter.DateLayout))
	}

	employees, err := u.employeeRepo.FindAll(u.tx.DB(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to find employees: %+v", err)
		return nil, err
	}
	return converter.EmployeesToResponses(employees), nil
}

// GetSupervisor resolves the supervisor reference. The reference is weak, so a
// supervisor that no longer exists is reported as not found.
func (u *employeeUsecase) GetSupervisor(ctx context.Context, matricule string) (*dto.EmployeeResponse, error) {
	employee, err := u.find(ctx, matricule)
	if err != nil {
		return nil, err
	}
	if employee.SupervisorMatricule == nil || *employee.SupervisorMatricule == "" {
		return nil, apperror.NotFound("supervisor", matricule)
	}

	return u.GetByMatricule(ctx, *employee.SupervisorMatricule)
}

func (u *employeeUsecase) GetSubordinates(ctx context.Context, matricule string) (*dto.EmployeeListResponse, error) {
	if _, err := u.find(ctx, matricule); err != nil {
		return nil, err
	}
	return u.GetAll(ctx, entity.EmployeeFilter{SupervisorMatricule: matricule})
}

func (u *employeeUsecase) GetAvailableMedicalStaff(ctx context.Context, day string) (*dto.EmployeeListResponse, error) {
	workDay, err := entity.ParseWorkDay(day)
	if err != nil {
		return nil, apperror.Invalid(converter.RuleWorkDayFormat, "Invalid work day %q", day)
	}

	employees, err := u.employeeRepo.FindAvailableMedicalStaff(u.tx.DB(ctx), workDay)
	if err != nil {
		u.log.Warnf("Failed to find available medical staff: %+v", err)
		return nil, err
	}
	return converter.EmployeesToResponses(employees), nil
}

func (u *employeeUsecase) GetStatistics(ctx context.Context) (*dto.EmployeeStatisticsResponse, error) {
	employees, err := u.employeeRepo.FindAll(u.tx.DB(ctx), entity.EmployeeFilter{})
	if err != nil {
		u.log.Warnf("Failed to find employees: %+v", err)
		return nil, err
	}

	stats := &dto.EmployeeStatisticsResponse{
		Total:         len(employees),
		ByType:        make(map[string]int),
		ByDepartement: make(map[string]int),
	}
	for _, e := range employees {
		if !e.Active() {
			stats.Inactive++
			continue
		}
		stats.Active++
		stats.ByType[string(e.EmployeeType)]++
		stats.ByDepartement[e.Departement]++
	}
	return stats, nil
}

func (u *employeeUsecase) find(ctx context.Context, matricule string) (*entity.Employee, error) {
	employee, err := u.employeeRepo.FindByMatricule(u.tx.DB(ctx), matricule)
	if err != nil {
		u.log.Warnf("Failed to find employee: %+v", err)
		return nil, err
	}
	if employee == nil {
		return nil, apperror.NotFound(entity.AuditResourceEmployee, matricule)
	}
	return employee, nil
}

// storeError turns a unique violation the duplicate check could not see
// (a concurrent write) into a DuplicateError.
func (u *employeeUsecase) storeError(err error, matricule string) error {
	var violation *repository.UniqueViolationError
	if !errors.As(err, &violation) {
		return err
	}

	u.log.Warnf("Failed to save employee %s: %+v", matricule, err)
	if violation.Key {
		return apperror.Duplicate(entity.AuditResourceEmployee, "matricule", matricule)
	}
	field := violation.Field
	if field == "" {
		field = violation.Constraint
	}
	return apperror.Duplicate(entity.AuditResourceEmployee, field, "")
}

