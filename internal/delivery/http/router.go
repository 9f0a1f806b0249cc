package http

import (
	"net/http"

	"hospital-records/internal/delivery/http/handler"
	"hospital-records/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	employeeHandler   *handler.EmployeeHandler
	patientHandler    *handler.PatientHandler
	auditLogHandler   *handler.AuditLogHandler
	healthHandler     *handler.HealthHandler
	metricsHandler    http.Handler
	authMiddleware    *middleware.AuthMiddleware
	corsMiddleware    *middleware.CORSMiddleware
	loggingMiddleware *middleware.LoggingMiddleware
}

func NewRouter(
	employeeHandler *handler.EmployeeHandler,
	patientHandler *handler.PatientHandler,
	auditLogHandler *handler.AuditLogHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		employeeHandler:   employeeHandler,
		patientHandler:    patientHandler,
		auditLogHandler:   auditLogHandler,
		healthHandler:     healthHandler,
		metricsHandler:    metricsHandler,
		authMiddleware:    authMiddleware,
		corsMiddleware:    corsMiddleware,
		loggingMiddleware: loggingMiddleware,
	}
}

// admin wraps write endpoints.
func admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(h)
}

func (r *Router) Setup() *mux.Router {
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)

	// Everything else needs a token; writes need the admin role
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	// Employees (static paths first so they are not taken as a matricule)
	protected.HandleFunc("/employees", r.employeeHandler.GetAllEmployees).Methods(http.MethodGet)
	protected.Handle("/employees", admin(r.employeeHandler.CreateEmployee)).Methods(http.MethodPost)
	protected.HandleFunc("/employees/statistics", r.employeeHandler.GetStatistics).Methods(http.MethodGet)
	protected.HandleFunc("/employees/available/{workDay}", r.employeeHandler.GetAvailableMedicalStaff).Methods(http.MethodGet)
	protected.HandleFunc("/employees/{matricule}", r.employeeHandler.GetEmployee).Methods(http.MethodGet)
	protected.Handle("/employees/{matricule}", admin(r.employeeHandler.UpdateEmployee)).Methods(http.MethodPut)
	protected.Handle("/employees/{matricule}", admin(r.employeeHandler.DeleteEmployee)).Methods(http.MethodDelete)
	protected.Handle("/employees/{matricule}/activate", admin(r.employeeHandler.ActivateEmployee)).Methods(http.MethodPatch)
	protected.Handle("/employees/{matricule}/deactivate", admin(r.employeeHandler.DeactivateEmployee)).Methods(http.MethodPatch)
	protected.HandleFunc("/employees/{matricule}/supervisor", r.employeeHandler.GetSupervisor).Methods(http.MethodGet)
	protected.HandleFunc("/employees/{matricule}/subordinates", r.employeeHandler.GetSubordinates).Methods(http.MethodGet)

	// Patients
	protected.HandleFunc("/patients", r.patientHandler.GetAllPatients).Methods(http.MethodGet)
	protected.Handle("/patients", admin(r.patientHandler.CreatePatient)).Methods(http.MethodPost)
	protected.HandleFunc("/patients/classify", r.patientHandler.ClassifyPatient).Methods(http.MethodPost)
	protected.HandleFunc("/patients/cin/{cin}", r.patientHandler.GetPatientByCin).Methods(http.MethodGet)
	protected.HandleFunc("/patients/email/{email}", r.patientHandler.GetPatientByEmail).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{id}", r.patientHandler.GetPatient).Methods(http.MethodGet)
	protected.Handle("/patients/{id}", admin(r.patientHandler.UpdatePatient)).Methods(http.MethodPut)
	protected.Handle("/patients/{id}", admin(r.patientHandler.DeletePatient)).Methods(http.MethodDelete)
	protected.HandleFunc("/patients/{cin}/minors", r.patientHandler.GetMinors).Methods(http.MethodGet)

	// Audit logs (admin)
	protected.Handle("/audit-logs", admin(r.auditLogHandler.GetAllAuditLogs)).Methods(http.MethodGet)
	protected.Handle("/audit-logs/{id}", admin(r.auditLogHandler.GetAuditLog)).Methods(http.MethodGet)

	// preflight requests match no method above
	r.router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}
