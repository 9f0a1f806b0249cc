package service

import (
	"hospital-records/internal/domain/apperror"
	"hospital-records/internal/domain/entity"
)

type Transition string

const (
	TransitionNone         Transition = "NONE"
	TransitionMinorToAdult Transition = "MINOR_TO_ADULT"
)

// ResolvePatientTransition decides what an update does to the key of stored.
// The previous state comes from how the stored record is keyed rather than the
// stored flag; next is the classification recomputed from the candidate birth date.
func ResolvePatientTransition(stored *entity.Patient, next entity.Classification, candidateCin string) (Transition, error) {
	wasMinor := stored.MinorKeyed()

	switch {
	case wasMinor && !next.IsMinor():
		if isBlank(candidateCin) {
			return "", apperror.Invalid(RuleCinRequired, "Cin is required once the patient is an adult")
		}
		return TransitionMinorToAdult, nil

	case !wasMinor && next.IsMinor():
		return "", apperror.Invalid(RuleClassificationRegression,
			"Birth date change would make adult patient %s a minor", stored.ID)

	case !wasMinor && candidateCin != stored.ID:
		return "", apperror.Invalid(RuleCinImmutable, "Cin of adult patient %s cannot change", stored.ID)
	}

	return TransitionNone, nil
}
