package repository

import (
	"errors"
	"strings"

	domainRepo "hospital-records/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const sqliteUniqueMarker = "UNIQUE constraint failed: "

// tableConstraints resolves store constraint names back to record fields.
type tableConstraints struct {
	table     string
	keyColumn string
	fields    []string
}

// translate wraps unique violations into domainRepo.UniqueViolationError and
// returns every other error unchanged.
func (c tableConstraints) translate(err error) error {
	if err == nil {
		return nil
	}

	constraint, ok := uniqueConstraint(err)
	if !ok {
		return err
	}

	violation := &domainRepo.UniqueViolationError{Constraint: constraint, Err: err}
	switch {
	case constraint == c.table+"_pkey" || constraint == c.table+"."+c.keyColumn:
		violation.Field = c.keyColumn
		violation.Key = true
	default:
		for _, f := range c.fields {
			if strings.Contains(constraint, f) {
				violation.Field = f
				break
			}
		}
	}
	return violation
}

func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		return pgErr.ConstraintName, pgErr.Code == "23505"
	}

	// SQLite reports the offending column, "table.column"
	msg := err.Error()
	if i := strings.Index(msg, sqliteUniqueMarker); i >= 0 {
		rest := msg[i+len(sqliteUniqueMarker):]
		if j := strings.IndexAny(rest, " ,"); j >= 0 {
			rest = rest[:j]
		}
		return rest, true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}
