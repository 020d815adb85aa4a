package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/rdmlabs/agent-api/internal/model"
	"github.com/rdmlabs/agent-api/internal/service"
	"github.com/rdmlabs/agent-api/pkg/response"
)

type GoalHandler struct {
	tracker   *service.StageTracker
	validator *validator.Validate
}

func NewGoalHandler(tracker *service.StageTracker, v *validator.Validate) *GoalHandler {
	return &GoalHandler{
		tracker:   tracker,
		validator: v,
	}
}

// SubmitReflection handles POST /submit_reflection
// @Summary      Submit a reflection check-in
// @Description  Record a periodic accountability check-in for a goal
// @Tags         Goals
// @Accept       json
// @Produce      json
// @Param        request body model.ReflectionRequest true "Reflection request"
// @Success      200 {object} model.ReflectionResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Router       /submit_reflection [post]
func (h *GoalHandler) SubmitReflection(c *fiber.Ctx) error {
	var req model.ReflectionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.tracker.SubmitReflection(c.Context(), &req)
	if err != nil {
		if service.IsNotFound(err) {
			return response.NotFound(c, "Job not found")
		}
		var execErr *service.ExecutionError
		if errors.As(err, &execErr) {
			return response.AIError(c, execErr.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// CompleteGoal handles POST /complete_goal
// @Summary      Complete a goal
// @Description  Judge a completion claim and distribute pledge tokens
// @Tags         Goals
// @Accept       json
// @Produce      json
// @Param        request body model.CompleteGoalRequest true "Completion claim"
// @Success      200 {object} model.CompleteGoalResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Router       /complete_goal [post]
func (h *GoalHandler) CompleteGoal(c *fiber.Ctx) error {
	var req model.CompleteGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.tracker.CompleteGoal(c.Context(), &req)
	if err != nil {
		var execErr *service.ExecutionError
		if errors.As(err, &execErr) {
			return response.AIError(c, execErr.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// GoalStatus handles GET /goal_status?goal_id=...
// @Summary      Goal status
// @Description  Summarise a goal's accountability progress
// @Tags         Goals
// @Produce      json
// @Param        goal_id query string true "Goal ID or owning job ID"
// @Success      200 {object} model.GoalStatusResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /goal_status [get]
func (h *GoalHandler) GoalStatus(c *fiber.Ctx) error {
	goalID := c.Query("goal_id")
	if goalID == "" {
		goalID = c.Query("job_id")
	}
	if goalID == "" {
		return response.ValidationError(c, "goal_id is required", nil)
	}

	result, err := h.tracker.GoalStatus(c.Context(), goalID)
	if err != nil {
		if service.IsNotFound(err) {
			return response.NotFound(c, "Goal not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
