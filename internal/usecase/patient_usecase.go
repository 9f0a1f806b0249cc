package usecase

import (
	"context"
	"errors"
	"strings"
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

type PatientUsecase interface {
	Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	// Update may re-key a minor who has turned adult; the response carries the new id.
	Update(ctx context.Context, id string, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	Delete(ctx context.Context, id string) error
	Classify(ctx context.Context, req *dto.ClassifyPatientRequest) (*dto.ClassificationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PatientResponse, error)
	GetByCin(ctx context.Context, cin string) (*dto.PatientResponse, error)
	GetByEmail(ctx context.Context, email string) (*dto.PatientResponse, error)
	GetAll(ctx context.Context, filter entity.PatientFilter) (*dto.PatientListResponse, error)
	GetMinorsByParentCin(ctx context.Context, parentCin string) (*dto.PatientListResponse, error)
}

type patientUsecase struct {
	tx                repository.Transactor
	log               *logrus.Logger
	patientRepo       repository.PatientRepository
	validationService service.ValidationService
	duplicateChecker  service.DuplicateChecker
	identifierService service.IdentifierService
	locker            service.SequenceLocker
	auditService      service.AuditService
	metrics           *metrics.IdentityMetrics
	now               func() time.Time
	maxKeyAttempts    int
}

func NewPatientUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	patientRepo repository.PatientRepository,
	validationService service.ValidationService,
	duplicateChecker service.DuplicateChecker,
	identifierService service.IdentifierService,
	locker service.SequenceLocker,
	auditService service.AuditService,
	identityMetrics *metrics.IdentityMetrics,
	now func() time.Time,
	maxKeyAttempts int,
) PatientUsecase {
	if maxKeyAttempts < 1 {
		maxKeyAttempts = 1
	}
	return &patientUsecase{
		tx:                tx,
		log:               log,
		patientRepo:       patientRepo,
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

func (u *patientUsecase) Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	patient, err := converter.PatientRequestToEntity(req)
	if err != nil {
		return nil, err
	}

	class, err := u.validationService.ValidatePatient(u.tx.DB(ctx), patient)
	if err != nil {
		return nil, err
	}

	patient.IsMinor = class.IsMinor()
	if !patient.IsMinor {
		patient.ParentCin = nil
	}

	if patient.IsMinor {
		release, err := u.locker.Acquire(ctx, service.MinorSequenceBucket)
		if err != nil {
			u.log.Warnf("Failed to acquire sequence lock %s: %+v", service.MinorSequenceBucket, err)
		} else {
			defer release()
		}
	}

	actorID := middleware.ActorFromContext(ctx)
	var generated bool

	for attempt := 1; ; attempt++ {
		err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
			patient.ID = ""
			if err := u.duplicateChecker.CheckPatient(tx, patient, ""); err != nil {
				return err
			}

			id, gen, err := u.identifierService.AssignPatientID(tx, patient, class)
			if err != nil {
				return err
			}
			patient.ID = id
			generated = gen

			if err := u.patientRepo.Create(tx, patient); err != nil {
				return err
			}

			if err := u.auditService.LogCreate(ctx, tx, actorID, entity.AuditActionPatientCreate,
				entity.AuditResourcePatient, patient.ID, converter.PatientToResponse(patient, u.now())); err != nil {
				u.log.Warnf("Failed to create audit log: %+v", err)
				return err
			}
			return nil
		})
		if err == nil {
			break
		}

		if generated && errors.Is(err, repository.ErrKeyConflict) && attempt < u.maxKeyAttempts {
			u.metrics.KeyCollision(metrics.KindPatient)
			u.log.WithFields(logrus.Fields{
				"id":      patient.ID,
				"attempt": attempt,
			}).Warn("Generated patient id already taken, retrying")
			continue
		}

		return nil, u.storeError(err, patient.ID)
	}

	if generated {
		u.metrics.IdentifierAssigned(metrics.KindPatient)
	}
	u.log.WithFields(logrus.Fields{
		"id":             patient.ID,
		"classification": class,
	}).Info("Patient created")

	return converter.PatientToResponse(patient, u.now()), nil
}

func (u *patientUsecase) Update(ctx context.Context, id string, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	actorID := middleware.ActorFromContext(ctx)

	var updated *entity.Patient
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := u.patientRepo.FindByID(tx, id)
		if err != nil {
			u.log.Warnf("Failed to find patient: %+v", err)
			return err
		}
		if existing == nil {
			return apperror.NotFound(entity.AuditResourcePatient, id)
		}

		oldValue := converter.PatientToResponse(existing, u.now())

		candidate, err := converter.ApplyPatientRequest(existing, req)
		if err != nil {
			return err
		}

		class, err := u.validationService.ValidatePatient(tx, candidate)
		if err != nil {
			return err
		}

		transition, err := service.ResolvePatientTransition(existing, class, candidate.CinValue())
		if err != nil {
			return err
		}

		candidate.IsMinor = class.IsMinor()
		if !candidate.IsMinor {
			candidate.ParentCin = nil
		}

		switch transition {
		case service.TransitionMinorToAdult:
			candidate.ID = strings.TrimSpace(candidate.CinValue())
			if err := u.duplicateChecker.CheckPatient(tx, candidate, id); err != nil {
				return err
			}
			if err := u.patientRepo.Rekey(tx, id, candidate); err != nil {
				u.log.Warnf("Failed to rekey patient %s: %+v", id, err)
				return err
			}
			if err := u.auditService.LogRekey(ctx, tx, actorID, id, candidate.ID,
				oldValue, converter.PatientToResponse(candidate, u.now())); err != nil {
				u.log.Warnf("Failed to create audit log: %+v", err)
				return err
			}

		default:
			if err := u.duplicateChecker.CheckPatient(tx, candidate, id); err != nil {
				return err
			}
			if err := u.patientRepo.Update(tx, candidate); err != nil {
				return err
			}
			if err := u.auditService.LogUpdate(ctx, tx, actorID, entity.AuditActionPatientUpdate,
				entity.AuditResourcePatient, id, oldValue, converter.PatientToResponse(candidate, u.now())); err != nil {
				u.log.Warnf("Failed to create audit log: %+v", err)
				return err
			}
		}

		updated = candidate
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(entity.AuditResourcePatient, id)
		}
		return nil, u.storeError(err, id)
	}

	if updated.ID != id {
		u.metrics.Rekeyed()
		u.log.WithFields(logrus.Fields{
			"old_id": id,
			"new_id": updated.ID,
		}).Info("Patient re-keyed on reaching majority")
	}

	return converter.PatientToResponse(updated, u.now()), nil
}

// Delete removes the patient. An adult still referenced as the guardian of
// stored minors cannot be removed.
func (u *patientUsecase) Delete(ctx context.Context, id string) error {
	return u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := u.patientRepo.FindByID(tx, id)
		if err != nil {
			u.log.Warnf("Failed to find patient: %+v", err)
			return err
		}
		if existing == nil {
			return apperror.NotFound(entity.AuditResourcePatient, id)
		}

		if !existing.MinorKeyed() {
			dependents, err := u.patientRepo.CountByParentCin(tx, existing.ID)
			if err != nil {
				u.log.Warnf("Failed to count dependents: %+v", err)
				return err
			}
			if dependents > 0 {
				return apperror.Invalid(service.RuleGuardianInUse,
					"Patient %s is the parent of %d minor patient(s)", existing.ID, dependents)
			}
		}

		affected, err := u.patientRepo.Delete(tx, id)
		if err != nil {
			u.log.Warnf("Failed to delete patient: %+v", err)
			return err
		}
		if affected == 0 {
			return apperror.NotFound(entity.AuditResourcePatient, id)
		}

		if err := u.auditService.LogDelete(ctx, tx, middleware.ActorFromContext(ctx), entity.AuditActionPatientDelete,
			entity.AuditResourcePatient, id, converter.PatientToResponse(existing, u.now())); err != nil {
			u.log.Warnf("Failed to create audit log: %+v", err)
			return err
		}
		return nil
	})
}

// Classify reports the classification a birth date yields today. Nothing is
// read or written.
func (u *patientUsecase) Classify(ctx context.Context, req *dto.ClassifyPatientRequest) (*dto.ClassificationResponse, error) {
	birth, err := converter.ParseDate("date_naissance", req.DateNaissance)
	if err != nil {
		return nil, err
	}

	now := u.now()
	if converter.Today(now).Before(birth) {
		return nil, apperror.Invalid(service.RuleBirthDateFuture, "Date of birth cannot be in the future")
	}
	return converter.ClassificationToResponse(birth, now), nil
}

func (u *patientUsecase) GetByID(ctx context.Context, id string) (*dto.PatientResponse, error) {
	patient, err := u.patientRepo.FindByID(u.tx.DB(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find patient: %+v", err)
		return nil, err
	}
	if patient == nil {
		return nil, apperror.NotFound(entity.AuditResourcePatient, id)
	}
	return converter.PatientToResponse(patient, u.now()), nil
}

func (u *patientUsecase) GetByCin(ctx context.Context, cin string) (*dto.PatientResponse, error) {
	return u.findByField(ctx, entity.PatientFieldCin, cin)
}

func (u *patientUsecase) GetByEmail(ctx context.Context, email string) (*dto.PatientResponse, error) {
	return u.findByField(ctx, entity.PatientFieldEmail, email)
}

func (u *patientUsecase) findByField(ctx context.Context, field, value string) (*dto.PatientResponse, error) {
	patient, err := u.patientRepo.FindByUniqueField(u.tx.DB(ctx), field, value)
	if err != nil {
		u.log.Warnf("Failed to find patient by %s: %+v", field, err)
		return nil, err
	}
	if patient == nil {
		return nil, apperror.NotFound(entity.AuditResourcePatient, value)
	}
	return converter.PatientToResponse(patient, u.now()), nil
}

func (u *patientUsecase) GetAll(ctx context.Context, filter entity.PatientFilter) (*dto.PatientListResponse, error) {
	filter.AsOf = u.now()
	patients, err := u.patientRepo.FindAll(u.tx.DB(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to find patients: %+v", err)
		return nil, err
	}
	return converter.PatientsToResponses(patients, u.now()), nil
}

func (u *patientUsecase) GetMinorsByParentCin(ctx context.Context, parentCin string) (*dto.PatientListResponse, error) {
	minors, err := u.patientRepo.FindMinorsByParentCin(u.tx.DB(ctx), parentCin)
	if err != nil {
		u.log.Warnf("Failed to find minors: %+v", err)
		return nil, err
	}
	return converter.PatientsToResponses(minors, u.now()), nil
}

func (u *patientUsecase) storeError(err error, id string) error {
	var violation *repository.UniqueViolationError
	if !errors.As(err, &violation) {
		return err
	}

	u.log.Warnf("Failed to save patient %s: %+v", id, err)
	if violation.Key {
		return apperror.Duplicate(entity.AuditResourcePatient, "id", id)
	}
	field := violation.Field
	if field == "" {
		field = violation.Constraint
	}
	return apperror.Duplicate(entity.AuditResourcePatient, field, "")
}
