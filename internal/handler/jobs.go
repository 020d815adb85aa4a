package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/rdmlabs/agent-api/internal/agent"
	"github.com/rdmlabs/agent-api/internal/config"
	"github.com/rdmlabs/agent-api/internal/model"
	"github.com/rdmlabs/agent-api/internal/service"
	"github.com/rdmlabs/agent-api/pkg/response"
)

type JobHandler struct {
	service   *service.JobService
	config    *config.Config
	validator *validator.Validate
}

func NewJobHandler(svc *service.JobService, cfg *config.Config, v *validator.Validate) *JobHandler {
	return &JobHandler{
		service:   svc,
		config:    cfg,
		validator: v,
	}
}

// StartJob handles POST /start_job
// @Summary      Start a job
// @Description  Create a payment request and register a payment-gated job
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        request body model.StartJobRequest true "Start job request"
// @Success      200 {object} model.StartJobResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Router       /start_job [post]
func (h *JobHandler) StartJob(c *fiber.Ctx) error {
	var req model.StartJobRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartJob(c.Context(), &req)
	if err != nil {
		var vErr *service.ValidationError
		var pErr *service.PaymentError
		switch {
		case errors.As(err, &vErr):
			return response.ValidationError(c, vErr.Error(), nil)
		case errors.As(err, &pErr):
			return response.PaymentError(c, pErr.Error())
		default:
			return response.ServiceError(c, err.Error())
		}
	}

	return response.OK(c, result)
}

// Status handles GET /status?job_id=...
// @Summary      Job status
// @Description  Return the job's lifecycle state, payment state and result
// @Tags         Jobs
// @Produce      json
// @Param        job_id query string true "Job ID"
// @Success      200 {object} model.StatusResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /status [get]
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Query("job_id")
	if jobID == "" {
		return response.ValidationError(c, "job_id is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), jobID)
	if err != nil {
		if service.IsNotFound(err) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Availability handles GET /availability
// @Summary      Availability
// @Tags         Agent
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /availability [get]
func (h *JobHandler) Availability(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{
		"status":  "available",
		"type":    "masumi-agent",
		"message": "Server operational",
	})
}

// InputSchema handles GET /input_schema
// @Summary      Input schema
// @Description  Describe the fields accepted by /start_job
// @Tags         Agent
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /input_schema [get]
func (h *JobHandler) InputSchema(c *fiber.Ctx) error {
	return response.OK(c, agent.InputSchema())
}

// AgentMetadata handles GET /agent_metadata
// @Summary      Registration metadata
// @Description  Metadata used for registry listing of this agent
// @Tags         Agent
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /agent_metadata [get]
func (h *JobHandler) AgentMetadata(c *fiber.Ctx) error {
	return response.OK(c, agent.RegistrationMetadata(
		h.config.Agent.APIURL,
		h.config.Payment.Amount,
		h.config.Payment.Unit,
	))
}

// Health handles GET /health
// @Summary      Health check
// @Tags         Agent
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func (h *JobHandler) Health(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{"status": "healthy"})
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
