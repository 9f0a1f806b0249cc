package handler

import (
	"errors"
	"net/http"

	"hospital-records/internal/domain/apperror"
	"hospital-records/pkg/response"
)

// writeError maps engine errors to status codes. Anything unrecognised is a
// 500 with fallback as the message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var (
		validationErr *apperror.ValidationError
		duplicateErr  *apperror.DuplicateError
		notFoundErr   *apperror.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		response.RuleViolation(w, validationErr.Message, validationErr.Rule)
	case errors.As(err, &duplicateErr):
		response.Conflict(w, duplicateErr.Error(), map[string]string{
			"field": duplicateErr.Field,
			"value": duplicateErr.Value,
		})
	case errors.As(err, &notFoundErr):
		response.NotFound(w, notFoundErr.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}
