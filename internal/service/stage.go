package service

import (
	"context"
	"log"
	"time"

	"github.com/rdmlabs/agent-api/internal/agent"
	"github.com/rdmlabs/agent-api/internal/executor"
	"github.com/rdmlabs/agent-api/internal/model"
	"github.com/rdmlabs/agent-api/internal/store"
	"github.com/rdmlabs/agent-api/internal/websocket"
)

// StageTracker appends accountability sub-workflow events to a job's stage
// log. It never re-enters the main lifecycle: stage events accumulate on the
// record regardless of lifecycle state, including after the job is terminal.
type StageTracker struct {
	store    *store.JobStore
	executor executor.Executor
	hub      *websocket.Hub
}

// NewStageTracker creates the tracker.
func NewStageTracker(jobStore *store.JobStore, exec executor.Executor, hub *websocket.Hub) *StageTracker {
	return &StageTracker{
		store:    jobStore,
		executor: exec,
		hub:      hub,
	}
}

// SubmitReflection runs a reflection check-in and appends it to the job's
// stage log. Unknown job ids are an error here; only completion verification
// has a recovery path.
func (t *StageTracker) SubmitReflection(ctx context.Context, req *model.ReflectionRequest) (*model.ReflectionResponse, error) {
	job, err := t.store.Get(req.JobID)
	if err != nil {
		return nil, err
	}

	checkIn := req.CheckInNumber
	if checkIn < 1 {
		checkIn = 1
	}

	feedback, err := t.executor.Reflect(ctx, job.Goal, req)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}

	event := model.StageEvent{
		Timestamp:     time.Now(),
		Stage:         model.StageReflection,
		CheckInNumber: checkIn,
		Status:        req.Status,
		Payload: map[string]any{
			"notes":      req.Notes,
			"challenges": req.Challenges,
		},
		Result: feedback,
	}
	if err := t.appendEvent(req.JobID, event); err != nil {
		return nil, err
	}

	return &model.ReflectionResponse{
		Status:           "success",
		JobID:            req.JobID,
		GoalID:           req.GoalID,
		ReflectionNumber: checkIn,
		Feedback:         feedback,
	}, nil
}

// CompleteGoal judges a completion claim and appends the verification event.
//
// Unknown job ids are tolerated here, deliberately: the store is volatile
// and the record may have been lost across a restart while the goal id kept
// living on the purchaser's side. A minimal placeholder record is
// synthesized and flagged as recovered; the condition is logged loudly, not
// masked.
func (t *StageTracker) CompleteGoal(ctx context.Context, req *model.CompleteGoalRequest) (*model.CompleteGoalResponse, error) {
	job, err := t.store.Get(req.JobID)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		log.Printf("WARNING: job %s not found for goal completion; synthesizing placeholder record (volatile store, possible restart)", req.JobID)
		job = t.placeholderJob(req)
		t.store.Put(job)
	}

	pledge := 100
	description := job.Input["goal_description"]
	if job.Goal != nil {
		pledge = job.Goal.PledgeAmount
		if job.Goal.Description != "" {
			description = job.Goal.Description
		}
	}

	reflections := 0
	for _, ev := range job.StageLog {
		if ev.Stage == model.StageReflection {
			reflections++
		}
	}

	verificationMethod := req.VerificationMethod
	if verificationMethod == "" {
		verificationMethod = "Self-verification"
	}

	verification, err := t.executor.Verify(ctx, agent.CompletionClaim{
		GoalID:             req.GoalID,
		GoalDescription:    description,
		UserClaimsDone:     req.UserClaimsDone,
		Evidence:           req.Evidence,
		SelfAssessment:     req.SelfAssessment,
		VerificationMethod: verificationMethod,
		PledgeAmount:       pledge,
		ReflectionsCount:   reflections,
	})
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}

	event := model.StageEvent{
		Timestamp: time.Now(),
		Stage:     model.StageVerification,
		Status:    req.SelfAssessment,
		Payload: map[string]any{
			"judgment":           verification.Judgment,
			"completion_percent": verification.CompletionPercent,
			"reward_tokens":      verification.RewardTokens,
			"remorse_tokens":     verification.RemorseTokens,
			"bonus_tokens":       verification.BonusTokens,
			"badge":              verification.Badge,
			"evidence":           req.Evidence,
		},
		Result: verification.Narrative,
	}
	if err := t.appendEvent(req.JobID, event); err != nil {
		return nil, err
	}

	return &model.CompleteGoalResponse{
		Status:             "success",
		JobID:              req.JobID,
		GoalID:             req.GoalID,
		VerificationResult: verification,
		Recovered:          job.Recovered,
		Message:            "Veritas has completed verification and token distribution",
	}, nil
}

// GoalStatus summarises a goal's accountability progress. The id may be
// either the goal id assigned at goal creation or the owning job id.
func (t *StageTracker) GoalStatus(ctx context.Context, goalID string) (*model.GoalStatusResponse, error) {
	job, err := t.store.Get(goalID)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		job, err = t.store.Find(func(j *model.Job) bool {
			return j.Goal != nil && j.Goal.GoalID == goalID
		})
		if err != nil {
			return nil, err
		}
	}

	var last *model.StageEvent
	reflections := 0
	for i := range job.StageLog {
		if job.StageLog[i].Stage == model.StageReflection {
			reflections++
			last = &job.StageLog[i]
		}
	}

	pledge := 0
	if job.Goal != nil {
		pledge = job.Goal.PledgeAmount
	}

	var result *string
	if job.Result != nil {
		text := job.Result.Proof()
		result = &text
	}

	return &model.GoalStatusResponse{
		GoalID:           goalID,
		JobID:            job.ID,
		Status:           job.State,
		PaymentStatus:    job.PaymentState,
		PledgeAmount:     pledge,
		ReflectionsCount: reflections,
		LastReflection:   last,
		Result:           result,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        time.Now(),
	}, nil
}

func (t *StageTracker) appendEvent(jobID string, event model.StageEvent) error {
	err := t.store.Update(jobID, func(j *model.Job) error {
		j.StageLog = append(j.StageLog, event)
		return nil
	})
	if err != nil {
		return err
	}
	if t.hub != nil {
		t.hub.BroadcastStage(jobID, event.Stage)
	}
	return nil
}

// placeholderJob is the degraded-mode record synthesized when the volatile
// store has lost the original job.
func (t *StageTracker) placeholderJob(req *model.CompleteGoalRequest) *model.Job {
	return &model.Job{
		ID:           req.JobID,
		Kind:         model.JobKindGoal,
		State:        model.JobStateCompleted,
		PaymentState: model.PaymentStateUnknown,
		Goal: &model.GoalDetails{
			GoalID:             req.GoalID,
			PledgeAmount:       100,
			VerificationMethod: req.VerificationMethod,
		},
		Recovered: true,
		CreatedAt: time.Now(),
	}
}
