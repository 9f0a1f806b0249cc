package entity

import "time"

// AdultAge is the whole-year age at which a person stops being a minor.
const AdultAge = 18

type Classification string

const (
	ClassificationAdult Classification = "ADULT"
	ClassificationMinor Classification = "MINOR"
)

func (c Classification) IsMinor() bool {
	return c == ClassificationMinor
}

// AgeAt returns the age in whole years of someone born on birth, at now.
// Calendar dates are compared, so a person born on Feb 29 turns a year older
// on Mar 1 in non leap years.
func AgeAt(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()

	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

// AdultCutoff returns the latest birth date that is adult at now. A person
// born on Feb 29 counts as adult from Mar 1 in non-leap years, as AgeAt does.
func AdultCutoff(now time.Time) time.Time {
	y, m, d := now.Date()
	cutoff := time.Date(y-AdultAge, m, d, 0, 0, 0, 0, time.UTC)
	if cutoff.Day() != d {
		// Feb 29 has no counterpart; use the last day of the month
		cutoff = time.Date(y-AdultAge, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return cutoff
}

// Classify derives the patient classification for birth at now.
func Classify(birth, now time.Time) Classification {
	if AgeAt(birth, now) < AdultAge {
		return ClassificationMinor
	}
	return ClassificationAdult
}
