package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rdmlabs/agent-api/internal/config"
	"github.com/rdmlabs/agent-api/internal/executor"
	"github.com/rdmlabs/agent-api/internal/model"
	"github.com/rdmlabs/agent-api/internal/payment"
	"github.com/rdmlabs/agent-api/internal/store"
	"github.com/rdmlabs/agent-api/internal/websocket"
)

// Chain credentials shorter than this cannot be valid identifiers; checked
// before any payment service call.
const minIdentifierLen = 20

// JobService is the job lifecycle controller. It owns the job store and the
// monitor registry, drives every lifecycle transition, and guarantees
// at-most-one execution per job.
type JobService struct {
	store      *store.JobStore
	provider   payment.Provider
	executor   executor.Executor
	dispatcher Dispatcher
	hub        *websocket.Hub

	agentIdentifier string
	sellerVKey      string
	network         string
	amounts         []model.Amount
	pollInterval    time.Duration

	mu       sync.Mutex
	monitors map[string]*payment.Monitor
}

// NewJobService creates the controller.
func NewJobService(
	cfg *config.Config,
	jobStore *store.JobStore,
	provider payment.Provider,
	exec executor.Executor,
	dispatcher Dispatcher,
	hub *websocket.Hub,
) *JobService {
	return &JobService{
		store:           jobStore,
		provider:        provider,
		executor:        exec,
		dispatcher:      dispatcher,
		hub:             hub,
		agentIdentifier: cfg.Agent.Identifier,
		sellerVKey:      cfg.Agent.SellerVKey,
		network:         cfg.Masumi.Network,
		amounts:         []model.Amount{{Amount: cfg.Payment.Amount, Unit: cfg.Payment.Unit}},
		pollInterval:    cfg.Agent.PollInterval,
		monitors:        make(map[string]*payment.Monitor),
	}
}

// StartJob validates the request, creates a payment request and stores the
// job in awaiting_payment with an active payment monitor. It returns
// immediately; payment and execution happen asynchronously.
func (s *JobService) StartJob(ctx context.Context, req *model.StartJobRequest) (*model.StartJobResponse, error) {
	if len(s.agentIdentifier) < minIdentifierLen {
		return nil, validationErrorf("agent identifier is missing or malformed")
	}
	if len(s.sellerVKey) < minIdentifierLen {
		return nil, validationErrorf("seller verification key is missing or malformed")
	}
	if len(req.InputData) == 0 {
		return nil, validationErrorf("input_data is required")
	}

	// The execution path is decided here, once, and stored on the record.
	kind := model.JobKindGeneric
	if req.InputData["goal_description"] != "" {
		kind = model.JobKindGoal
	} else if req.InputData["text"] == "" {
		return nil, validationErrorf("input_data must contain either 'text' or 'goal_description'")
	}

	paymentReq, err := s.provider.CreateRequest(ctx, &payment.CreateRequestInput{
		AgentIdentifier:         s.agentIdentifier,
		IdentifierFromPurchaser: req.IdentifierFromPurchaser,
		InputData:               req.InputData,
		Network:                 s.network,
		Amounts:                 s.amounts,
	})
	if err != nil {
		// No record is ever stored without a valid payment reference.
		return nil, &PaymentError{Op: "create", Err: err}
	}

	jobID := uuid.New().String()
	job := &model.Job{
		ID:                   jobID,
		Kind:                 kind,
		State:                model.JobStateAwaitingPayment,
		PaymentState:         model.PaymentStatePending,
		BlockchainIdentifier: paymentReq.BlockchainIdentifier,
		Input:                req.InputData,
		InputHash:            paymentReq.InputHash,
		PurchaserIdentifier:  req.IdentifierFromPurchaser,
		CreatedAt:            time.Now(),
	}
	if kind == model.JobKindGoal {
		goal := executor.GoalFromInput(req.InputData)
		job.Goal = &goal
	}
	s.store.Put(job)

	monitor := payment.NewMonitor(s.provider, paymentReq.BlockchainIdentifier, s.pollInterval)
	s.registerMonitor(jobID, monitor)
	monitor.Start(func() {
		s.OnPaymentConfirmed(context.Background(), jobID)
	})

	log.Printf("Started job %s (%s) with payment reference %s", jobID, kind, paymentReq.BlockchainIdentifier)

	return &model.StartJobResponse{
		Status:                    "success",
		JobID:                     jobID,
		BlockchainIdentifier:      paymentReq.BlockchainIdentifier,
		PayByTime:                 paymentReq.PayByTime,
		SubmitResultTime:          paymentReq.SubmitResultTime,
		UnlockTime:                paymentReq.UnlockTime,
		ExternalDisputeUnlockTime: paymentReq.ExternalDisputeUnlockTime,
		AgentIdentifier:           s.agentIdentifier,
		SellerVKey:                s.sellerVKey,
		IdentifierFromPurchaser:   req.IdentifierFromPurchaser,
		Amounts:                   s.amounts,
		InputHash:                 paymentReq.InputHash,
	}, nil
}

// OnPaymentConfirmed is the sole trigger for awaiting_payment -> running.
// The monitor already debounces to one callback; on top of that the
// transition is a state-level compare-and-set, so a duplicate delivery is a
// no-op and execution is dispatched at most once per job.
func (s *JobService) OnPaymentConfirmed(ctx context.Context, jobID string) {
	transitioned := false
	err := s.store.Update(jobID, func(j *model.Job) error {
		if j.State != model.JobStateAwaitingPayment {
			return nil
		}
		now := time.Now()
		j.State = model.JobStateRunning
		j.PaymentState = model.PaymentStateConfirmed
		j.StartedAt = &now
		transitioned = true
		return nil
	})
	if err != nil {
		log.Printf("Payment confirmed for unknown job %s: %v", jobID, err)
		return
	}
	if !transitioned {
		log.Printf("Ignoring duplicate payment confirmation for job %s", jobID)
		return
	}

	log.Printf("Payment confirmed for job %s, dispatching execution", jobID)
	s.broadcastState(jobID)

	if err := s.dispatcher.Dispatch(ctx, jobID); err != nil {
		s.failJob(jobID, "failed to dispatch execution: "+err.Error())
	}
}

// RunJob performs the execute→settle chain for a confirmed job. Called from
// the execute worker. Executor failure and settlement failure are both
// terminal; neither is retried.
func (s *JobService) RunJob(ctx context.Context, jobID string) error {
	job, err := s.store.Get(jobID)
	if err != nil {
		return err
	}
	if job.State != model.JobStateRunning {
		log.Printf("Skipping execution for job %s in state %s", jobID, job.State)
		return nil
	}

	out, err := s.executor.Run(ctx, job.Kind, job.Input)
	if err != nil {
		execErr := &ExecutionError{Err: err}
		s.failJob(jobID, execErr.Error())
		return execErr
	}

	// The settlement call needs a bounded textual proof; the tagged output
	// resolves itself.
	if err := s.provider.Settle(ctx, job.BlockchainIdentifier, out.Proof()); err != nil {
		settleErr := &PaymentError{Op: "settle", Err: err}
		s.failJob(jobID, settleErr.Error())
		return settleErr
	}

	s.completeJob(jobID, out)
	return nil
}

// GetStatus returns the job's lifecycle state, payment state and result.
// While a monitor is still active the payment state is refreshed from the
// provider, best-effort: a failed check degrades the payment state but never
// the call itself, and never touches the lifecycle state.
func (s *JobService) GetStatus(ctx context.Context, jobID string) (*model.StatusResponse, error) {
	job, err := s.store.Get(jobID)
	if err != nil {
		return nil, err
	}

	if s.monitorActive(jobID) {
		paymentState := model.PaymentStateUnknown
		status, checkErr := s.provider.CheckStatus(ctx, job.BlockchainIdentifier)
		switch {
		case checkErr != nil:
			log.Printf("Error checking payment status for job %s: %v", jobID, checkErr)
			paymentState = model.PaymentStateError
		case status != "":
			paymentState = status
		}

		job.PaymentState = paymentState
		_ = s.store.Update(jobID, func(j *model.Job) error {
			j.PaymentState = paymentState
			return nil
		})
	}

	var result *string
	if job.Result != nil {
		text := job.Result.Proof()
		result = &text
	}

	return &model.StatusResponse{
		JobID:         job.ID,
		Status:        job.State,
		PaymentStatus: job.PaymentState,
		Result:        result,
	}, nil
}

// completeJob is the running -> completed transition.
func (s *JobService) completeJob(jobID string, out *model.TaskOutput) {
	err := s.store.Update(jobID, func(j *model.Job) error {
		if j.State != model.JobStateRunning {
			return nil
		}
		now := time.Now()
		j.State = model.JobStateCompleted
		j.PaymentState = model.PaymentStateCompleted
		j.Result = out
		j.CompletedAt = &now
		if j.Goal != nil && out.Goal != nil {
			j.Goal.GoalID = out.Goal.GoalID
		}
		return nil
	})
	if err != nil {
		log.Printf("Failed to complete job %s: %v", jobID, err)
	}

	log.Printf("Job %s completed", jobID)
	s.releaseMonitor(jobID)
	s.broadcastState(jobID)
}

// failJob is the terminal failure transition. The diagnostic is stored on
// the record, never dropped.
func (s *JobService) failJob(jobID string, msg string) {
	err := s.store.Update(jobID, func(j *model.Job) error {
		if j.Terminal() {
			return nil
		}
		now := time.Now()
		j.State = model.JobStateFailed
		j.Error = &msg
		j.CompletedAt = &now
		return nil
	})
	if err != nil {
		log.Printf("Failed to mark job %s failed: %v", jobID, err)
	}

	log.Printf("Job %s failed: %s", jobID, msg)
	s.releaseMonitor(jobID)
	s.broadcastState(jobID)
}

func (s *JobService) registerMonitor(jobID string, m *payment.Monitor) {
	s.mu.Lock()
	s.monitors[jobID] = m
	s.mu.Unlock()
}

// releaseMonitor stops and discards the job's monitor. Idempotent; the
// monitor may never have fired.
func (s *JobService) releaseMonitor(jobID string) {
	s.mu.Lock()
	m, ok := s.monitors[jobID]
	if ok {
		delete(s.monitors, jobID)
	}
	s.mu.Unlock()

	if ok {
		m.Stop()
	}
}

func (s *JobService) monitorActive(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.monitors[jobID]
	return ok
}

// ActiveMonitors reports how many payment monitors are currently held.
func (s *JobService) ActiveMonitors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.monitors)
}

// Shutdown stops all active monitors.
func (s *JobService) Shutdown() {
	s.mu.Lock()
	monitors := make([]*payment.Monitor, 0, len(s.monitors))
	for id, m := range s.monitors {
		monitors = append(monitors, m)
		delete(s.monitors, id)
	}
	s.mu.Unlock()

	for _, m := range monitors {
		m.Stop()
	}
}

func (s *JobService) broadcastState(jobID string) {
	if s.hub == nil {
		return
	}
	job, err := s.store.Get(jobID)
	if err != nil {
		return
	}
	errMsg := ""
	if job.Error != nil {
		errMsg = *job.Error
	}
	s.hub.BroadcastState(jobID, job.State, job.PaymentState, errMsg)
}
