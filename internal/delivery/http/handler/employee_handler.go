package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"hospital-records/internal/converter"
	"hospital-records/internal/delivery/dto"
	"hospital-records/internal/domain/entity"
	"hospital-records/internal/usecase"
	"hospital-records/pkg/response"
	"hospital-records/pkg/validator"

	"github.com/gorilla/mux"
)

type EmployeeHandler struct {
	employeeUsecase usecase.EmployeeUsecase
	validator       *validator.CustomValidator
}

func NewEmployeeHandler(employeeUsecase usecase.EmployeeUsecase, validator *validator.CustomValidator) *EmployeeHandler {
	return &EmployeeHandler{
		employeeUsecase: employeeUsecase,
		validator:       validator,
	}
}

func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	employee, err := h.employeeUsecase.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create employee")
		return
	}

	response.Success(w, http.StatusCreated, "Employee created successfully", employee)
}

func (h *EmployeeHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.employeeUsecase.GetByMatricule(r.Context(), mux.Vars(r)["matricule"])
	if err != nil {
		writeError(w, err, "Failed to get employee")
		return
	}

	response.Success(w, http.StatusOK, "Employee retrieved successfully", employee)
}

// GetAllEmployees accepts the filters type, departement, specialite,
// supervisor, active and q.
func (h *EmployeeHandler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := entity.EmployeeFilter{
		EmployeeType:        entity.EmployeeType(query.Get("type")),
		Departement:         query.Get("departement"),
		Specialite:          query.Get("specialite"),
		SupervisorMatricule: query.Get("supervisor"),
		Search:              query.Get("q"),
	}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid active filter", nil)
			return
		}
		filter.IsActive = &active
	}
	for name, target := range map[string]**time.Time{"hired_from": &filter.HiredFrom, "hired_to": &filter.HiredTo} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		d, err := converter.ParseDate(name, raw)
		if err != nil {
			writeError(w, err, "Invalid "+name)
			return
		}
		*target = &d
	}

	employees, err := h.employeeUsecase.GetAll(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to get employees")
		return
	}

	response.Success(w, http.StatusOK, "Employees retrieved successfully", employees)
}

func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	employee, err := h.employeeUsecase.Update(r.Context(), mux.Vars(r)["matricule"], &req)
	if err != nil {
		writeError(w, err, "Failed to update employee")
		return
	}

	response.Success(w, http.StatusOK, "Employee updated successfully", employee)
}

func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	permanent, _ := strconv.ParseBool(r.URL.Query().Get("permanent"))

	if err := h.employeeUsecase.Delete(r.Context(), mux.Vars(r)["matricule"], permanent); err != nil {
		writeError(w, err, "Failed to delete employee")
		return
	}

	message := "Employee deactivated successfully"
	if permanent {
		message = "Employee deleted successfully"
	}
	response.Success(w, http.StatusOK, message, nil)
}

func (h *EmployeeHandler) ActivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *EmployeeHandler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *EmployeeHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	employee, err := h.employeeUsecase.SetActive(r.Context(), mux.Vars(r)["matricule"], active)
	if err != nil {
		writeError(w, err, "Failed to update employee status")
		return
	}

	response.Success(w, http.StatusOK, "Employee status updated successfully", employee)
}

func (h *EmployeeHandler) GetSupervisor(w http.ResponseWriter, r *http.Request) {
	supervisor, err := h.employeeUsecase.GetSupervisor(r.Context(), mux.Vars(r)["matricule"])
	if err != nil {
		writeError(w, err, "Failed to get supervisor")
		return
	}

	response.Success(w, http.StatusOK, "Supervisor retrieved successfully", supervisor)
}

func (h *EmployeeHandler) GetSubordinates(w http.ResponseWriter, r *http.Request) {
	subordinates, err := h.employeeUsecase.GetSubordinates(r.Context(), mux.Vars(r)["matricule"])
	if err != nil {
		writeError(w, err, "Failed to get subordinates")
		return
	}

	response.Success(w, http.StatusOK, "Subordinates retrieved successfully", subordinates)
}

func (h *EmployeeHandler) GetAvailableMedicalStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.employeeUsecase.GetAvailableMedicalStaff(r.Context(), mux.Vars(r)["workDay"])
	if err != nil {
		writeError(w, err, "Failed to get available medical staff")
		return
	}

	response.Success(w, http.StatusOK, "Available medical staff retrieved successfully", staff)
}

func (h *EmployeeHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.employeeUsecase.GetStatistics(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get employee statistics")
		return
	}

	response.Success(w, http.StatusOK, "Employee statistics retrieved successfully", stats)
}
