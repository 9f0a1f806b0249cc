package response

import (
	"encoding/json"
	"net/http"
)

// Error codes let clients branch on the failure kind without parsing messages.
const (
	CodeBadRequest   = "bad_request"
	CodeValidation   = "validation_error"
	CodeDuplicate    = "duplicate"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeInternal     = "internal_error"
)

type Response struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta describes an offset page. Count is the number of items returned.
type Meta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessWithMeta(w http.ResponseWriter, statusCode int, message string, data interface{}, meta *Meta) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// Fail writes an error envelope carrying code.
func Fail(w http.ResponseWriter, statusCode int, code, message string, err interface{}) {
	JSON(w, statusCode, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error:   err,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string, err interface{}) {
	Fail(w, statusCode, codeFor(statusCode), message, err)
}

// ValidationError reports request payload errors keyed by json field.
func ValidationError(w http.ResponseWriter, errors interface{}) {
	Fail(w, http.StatusBadRequest, CodeValidation, "Validation failed", errors)
}

// RuleViolation reports a failed business rule by name.
func RuleViolation(w http.ResponseWriter, message, rule string) {
	Fail(w, http.StatusBadRequest, CodeValidation, message, map[string]string{"rule": rule})
}

func BadRequest(w http.ResponseWriter, message string, err interface{}) {
	if message == "" {
		message = "Bad request"
	}
	Error(w, http.StatusBadRequest, message, err)
}

func Conflict(w http.ResponseWriter, message string, err interface{}) {
	if message == "" {
		message = "Conflict"
	}
	Error(w, http.StatusConflict, message, err)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	Error(w, http.StatusForbidden, message, nil)
}

func codeFor(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusConflict:
		return CodeDuplicate
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	default:
		if statusCode >= 500 {
			return CodeInternal
		}
		return ""
	}
}
