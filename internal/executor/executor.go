// Package executor adapts the agent crew to a uniform asynchronous task
// interface. There are two execution paths: the generic research task, and
// the staged goal workflow whose first stage (goal creation) runs with
// payment confirmation. Later stages (reflection, verification) are invoked
// independently through the stage tracker.
//
// The adapter performs no retries; retry policy, if any, belongs to the
// caller-facing components.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rdmlabs/agent-api/internal/agent"
	"github.com/rdmlabs/agent-api/internal/client"
	"github.com/rdmlabs/agent-api/internal/model"
)

// Executor is the uniform interface the lifecycle controller and the stage
// tracker call into.
type Executor interface {
	// Run executes the payment-gated task for a job and returns a
	// normalized output. May take seconds to minutes.
	Run(ctx context.Context, kind model.JobKind, input map[string]string) (*model.TaskOutput, error)

	// Reflect produces check-in feedback for a goal.
	Reflect(ctx context.Context, goal *model.GoalDetails, req *model.ReflectionRequest) (string, error)

	// Verify judges a completion claim and produces the verification
	// outcome, including the token distribution.
	Verify(ctx context.Context, claim agent.CompletionClaim) (*model.Verification, error)
}

// AgentExecutor runs the crew against the model API. An unconfigured client
// falls back to deterministic mock outputs so the flow can be exercised in
// development and tests.
type AgentExecutor struct {
	agentClient *client.AgentClient
}

// NewAgentExecutor creates the executor.
func NewAgentExecutor(agentClient *client.AgentClient) *AgentExecutor {
	return &AgentExecutor{agentClient: agentClient}
}

// Run dispatches on the job kind fixed at creation time.
func (e *AgentExecutor) Run(ctx context.Context, kind model.JobKind, input map[string]string) (*model.TaskOutput, error) {
	switch kind {
	case model.JobKindGoal:
		return e.runGoalCreation(ctx, input)
	default:
		return e.runGeneric(ctx, input)
	}
}

func (e *AgentExecutor) runGeneric(ctx context.Context, input map[string]string) (*model.TaskOutput, error) {
	text := input["text"]

	if e.agentClient == nil || !e.agentClient.IsConfigured() {
		return &model.TaskOutput{
			Kind: model.OutputText,
			Text: fmt.Sprintf("[mock] Research result for: %s", text),
		}, nil
	}

	result, err := e.agentClient.ChatCompletion(ctx, agent.ResearchSystemPrompt(), text)
	if err != nil {
		return nil, fmt.Errorf("crew execution failed: %w", err)
	}

	return &model.TaskOutput{Kind: model.OutputText, Text: result}, nil
}

func (e *AgentExecutor) runGoalCreation(ctx context.Context, input map[string]string) (*model.TaskOutput, error) {
	goal := GoalFromInput(input)
	goalID := "RDM-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	guidance := fmt.Sprintf("[mock] Guidance for goal: %s", goal.Description)
	if e.agentClient != nil && e.agentClient.IsConfigured() {
		var err error
		guidance, err = e.agentClient.ChatCompletion(ctx,
			agent.GoalGuidanceSystemPrompt(),
			agent.GoalGuidancePrompt(goal.Description, goal.PledgeAmount, goal.Duration, goal.VerificationMethod))
		if err != nil {
			return nil, fmt.Errorf("goal creation failed: %w", err)
		}
	}

	creation := &model.GoalCreation{
		GoalID:             goalID,
		GoalDescription:    goal.Description,
		PledgeAmount:       goal.PledgeAmount,
		Duration:           goal.Duration,
		VerificationMethod: goal.VerificationMethod,
		Guidance:           guidance,
		Summary: fmt.Sprintf("Goal %s created: %q — %d RDM pledged for %s, verified by %s",
			goalID, goal.Description, goal.PledgeAmount, goal.Duration, goal.VerificationMethod),
		NextSteps: "Submit daily/weekly reflections via /submit_reflection endpoint",
	}

	return &model.TaskOutput{Kind: model.OutputGoal, Goal: creation}, nil
}

// Reflect produces check-in feedback.
func (e *AgentExecutor) Reflect(ctx context.Context, goal *model.GoalDetails, req *model.ReflectionRequest) (string, error) {
	description := ""
	if goal != nil {
		description = goal.Description
	}

	if e.agentClient == nil || !e.agentClient.IsConfigured() {
		return fmt.Sprintf("[mock] Feedback for check-in #%d (%s): keep going.", req.CheckInNumber, req.Status), nil
	}

	feedback, err := e.agentClient.ChatCompletion(ctx,
		agent.ReflectionSystemPrompt(),
		agent.ReflectionPrompt(description, req.Status, req.Notes, req.Challenges, req.CheckInNumber))
	if err != nil {
		return "", fmt.Errorf("reflection check-in failed: %w", err)
	}
	return feedback, nil
}

// Verify judges the claim with the deterministic rubric, then lets the model
// write the narrative on top of the decided outcome.
func (e *AgentExecutor) Verify(ctx context.Context, claim agent.CompletionClaim) (*model.Verification, error) {
	v := agent.Judge(claim)

	if e.agentClient == nil || !e.agentClient.IsConfigured() {
		v.Narrative = fmt.Sprintf("[mock] %s: %d%% complete, %d RDM to Reward, %d RDM to Remorse.",
			v.Judgment, v.CompletionPercent, v.RewardTokens, v.RemorseTokens)
		return v, nil
	}

	narrative, err := e.agentClient.ChatCompletion(ctx,
		agent.VerificationSystemPrompt(),
		agent.VerificationPrompt(claim.GoalDescription, claim.Evidence, v.Judgment,
			v.CompletionPercent, v.RewardTokens, v.RemorseTokens))
	if err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}
	v.Narrative = narrative
	return v, nil
}

// GoalFromInput extracts the goal attributes from the raw input map,
// applying the same defaults the published schema documents.
func GoalFromInput(input map[string]string) model.GoalDetails {
	pledge := 100
	if raw, ok := input["pledge_amount"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pledge = n
		}
	}

	duration := input["duration"]
	if duration == "" {
		duration = "30 days"
	}

	method := input["verification_method"]
	if method == "" {
		method = "Self-verification"
	}

	return model.GoalDetails{
		Description:        input["goal_description"],
		PledgeAmount:       pledge,
		Duration:           duration,
		VerificationMethod: method,
	}
}
