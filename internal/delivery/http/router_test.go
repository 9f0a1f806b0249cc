package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hospital-records/config"
	"hospital-records/internal/delivery/http/handler"
	"hospital-records/internal/delivery/http/middleware"
	"hospital-records/internal/infrastructure/metrics"
	"hospital-records/internal/repository/memory"
	"hospital-records/internal/service"
	"hospital-records/internal/usecase"
	"hospital-records/pkg/jwt"
	"hospital-records/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

type testServer struct {
	router *mux.Router
	admin  string
	viewer string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	clock := func() time.Time { return fixedNow }

	employees := memory.NewEmployeeRepository()
	patients := memory.NewPatientRepository()
	auditLogs := memory.NewAuditLogRepository()
	identityMetrics := metrics.NewIdentityMetrics()
	tx := memory.Transactor{}

	locker := service.NewSequenceLockService(nil, log, time.Second, 100*time.Millisecond)
	t.Cleanup(locker.Stop)

	validation := service.NewValidationService(patients, clock)
	duplicates := service.NewDuplicateChecker(employees, patients)
	identifiers := service.NewIdentifierService(employees, patients, clock)
	audit := service.NewAuditService(log, auditLogs)

	employeeUsecase := usecase.NewEmployeeUsecase(tx, log, employees, validation, duplicates, identifiers,
		locker, audit, identityMetrics, clock, 3)
	patientUsecase := usecase.NewPatientUsecase(tx, log, patients, validation, duplicates, identifiers,
		locker, audit, identityMetrics, clock, 3)
	auditLogUsecase := usecase.NewAuditLogUsecase(tx, log, auditLogs)

	v := validator.NewValidator()
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour})

	r := NewRouter(
		handler.NewEmployeeHandler(employeeUsecase, v),
		handler.NewPatientHandler(patientUsecase, v),
		handler.NewAuditLogHandler(auditLogUsecase),
		handler.NewHealthHandler(nil, nil),
		identityMetrics.Handler(),
		middleware.NewAuthMiddleware(jwtService, nil),
		middleware.NewCORSMiddleware("*"),
		middleware.NewLoggingMiddleware(log),
	)

	adminToken, _, err := jwtService.GenerateAccessToken(uuid.New(), "ops@clinic.ma", jwt.RoleAdmin)
	require.NoError(t, err)
	viewerToken, _, err := jwtService.GenerateAccessToken(uuid.New(), "desk@clinic.ma", jwt.RoleViewer)
	require.NoError(t, err)

	return &testServer{router: r.Setup(), admin: adminToken, viewer: viewerToken}
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

var medic = map[string]interface{}{
	"nom":           "Alaoui",
	"prenom":        "Sara",
	"employee_type": "MEDICAL_STAFF",
	"departement":   "Pediatrie",
	"specialite":    "Pediatre",
	"email":         "sara@clinic.ma",
	"work_days":     []string{"MONDAY"},
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hospital_patients_pending_majority")
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/employees", s.viewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/employees", s.viewer, medic)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit-logs", s.viewer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEmployeeEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/employees", s.admin, medic)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Matricule string `json:"matricule"`
	}
	decode(t, env.Data, &created)
	assert.Equal(t, "MED2506001", created.Matricule)

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		rec, env := s.do(t, http.MethodPost, "/api/v1/employees", s.admin, medic)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "email", env.Error["field"])
	})

	t.Run("business rule failure names the rule", func(t *testing.T) {
		body := map[string]interface{}{
			"nom":           "Bennani",
			"prenom":        "Omar",
			"employee_type": "MEDICAL_STAFF",
			"departement":   "Urgences",
		}
		rec, env := s.do(t, http.MethodPost, "/api/v1/employees", s.admin, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, service.RuleSpecialiteRequired, env.Error["rule"])
	})

	t.Run("payload validation", func(t *testing.T) {
		rec, env := s.do(t, http.MethodPost, "/api/v1/employees", s.admin, map[string]string{"employee_type": "NURSE"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error, "employee_type")

		rec, _ = s.do(t, http.MethodPost, "/api/v1/employees", s.admin, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("static paths are not matricules", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/employees/statistics", s.viewer, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats struct {
			Total int `json:"total"`
		}
		decode(t, env.Data, &stats)
		assert.Equal(t, 1, stats.Total)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/available/monday", s.viewer, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, env = s.do(t, http.MethodGet, "/api/v1/employees/available/funday", s.viewer, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "work_day_format", env.Error["rule"])
	})

	t.Run("hire date range", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/employees?hired_from=2025-06-01&hired_to=2025-06-30", s.viewer, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list struct {
			Total int `json:"total"`
		}
		decode(t, env.Data, &list)
		assert.Equal(t, 1, list.Total)

		rec, env = s.do(t, http.MethodGet, "/api/v1/employees?hired_to=2025-01-01", s.viewer, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, env.Data, &list)
		assert.Zero(t, list.Total)

		rec, env = s.do(t, http.MethodGet, "/api/v1/employees?hired_from=15/06/2025", s.viewer, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "date_format", env.Error["rule"])

		rec, env = s.do(t, http.MethodGet, "/api/v1/employees?hired_from=2025-07-01&hired_to=2025-06-01", s.viewer, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "date_range", env.Error["rule"])
	})

	t.Run("unknown matricule", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/employees/MED2506999", s.viewer, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/MED2506001/supervisor", s.viewer, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("deactivate then delete", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodPatch, "/api/v1/employees/MED2506001/deactivate", s.admin, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees?active=false", s.viewer, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees?active=maybe", s.viewer, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, _ = s.do(t, http.MethodDelete, "/api/v1/employees/MED2506001?permanent=true", s.admin, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/MED2506001", s.viewer, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPatientEndpoints(t *testing.T) {
	s := newTestServer(t)

	adult := map[string]string{"nom": "Idrissi Karim", "date_naissance": "1985-04-02", "cin": "AB123456"}
	rec, _ := s.do(t, http.MethodPost, "/api/v1/patients", s.admin, adult)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	minor := map[string]string{"nom": "Idrissi Yasmine", "date_naissance": "2007-06-20", "parent_cin": "AB123456"}
	rec, env := s.do(t, http.MethodPost, "/api/v1/patients", s.admin, minor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID      string `json:"id"`
		IsMinor bool   `json:"is_minor"`
	}
	decode(t, env.Data, &created)
	assert.Equal(t, "MIN-0001", created.ID)
	assert.True(t, created.IsMinor)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients/AB123456/minors", s.viewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/patients?minor=true", s.viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Patients []struct {
			ID      string `json:"id"`
			IsMinor bool   `json:"is_minor"`
		} `json:"patients"`
	}
	decode(t, env.Data, &listed)
	require.Len(t, listed.Patients, 1)
	assert.Equal(t, "MIN-0001", listed.Patients[0].ID)
	assert.True(t, listed.Patients[0].IsMinor)

	reserved := map[string]string{"nom": "Tazi Nadia", "date_naissance": "1980-01-01", "cin": "MIN-0500"}
	rec, env = s.do(t, http.MethodPost, "/api/v1/patients", s.admin, reserved)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.RuleCinReserved, env.Error["rule"])

	rec, env = s.do(t, http.MethodDelete, "/api/v1/patients/AB123456", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.RuleGuardianInUse, env.Error["rule"])

	// birth date corrected so the patient is already an adult
	update := map[string]string{"nom": "Idrissi Yasmine", "date_naissance": "2007-06-01", "parent_cin": "AB123456"}
	rec, env = s.do(t, http.MethodPut, "/api/v1/patients/MIN-0001", s.admin, update)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.RuleCinRequired, env.Error["rule"])

	update["cin"] = "EF777777"
	rec, env = s.do(t, http.MethodPut, "/api/v1/patients/MIN-0001", s.admin, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, env.Data, &created)
	assert.Equal(t, "EF777777", created.ID)
	assert.False(t, created.IsMinor)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients/MIN-0001", s.viewer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patients/cin/EF777777", s.viewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/patients/classify", s.viewer, map[string]string{"date_naissance": "2007-06-15"})
	require.Equal(t, http.StatusOK, rec.Code)
	var class struct {
		Classification string `json:"classification"`
	}
	decode(t, env.Data, &class)
	assert.Equal(t, "ADULT", class.Classification)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit-logs?resource_type=patient&limit=10", s.admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit-logs?limit=-1", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/employees", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
