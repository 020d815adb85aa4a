package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/rdmlabs/agent-api/internal/client"
	"github.com/rdmlabs/agent-api/internal/config"
	"github.com/rdmlabs/agent-api/internal/executor"
	"github.com/rdmlabs/agent-api/internal/handler"
	"github.com/rdmlabs/agent-api/internal/middleware"
	"github.com/rdmlabs/agent-api/internal/service"
	"github.com/rdmlabs/agent-api/internal/store"
)

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
	svc *service.JobService
}

// setupApp creates a Fiber app identical to main.go but with unconfigured
// external clients, so the payment provider and executor run in mock mode.
// The asynq worker server is not started; mock payments never confirm, so
// jobs stay in awaiting_payment for the duration of a test.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{}
	cfg.Agent.Identifier = "e2e-agent-identifier-0123456789abcdef"
	cfg.Agent.SellerVKey = "e2e-seller-vkey-0123456789abcdef0123"
	cfg.Agent.APIURL = "http://localhost:8000"
	cfg.Agent.PollInterval = time.Hour // keep monitors quiet during tests
	cfg.Masumi.Network = "Preprod"
	cfg.Payment.Amount = "10000000"
	cfg.Payment.Unit = "lovelace"

	// Redis (localhost — must be running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	// External clients — both unconfigured, so mock fallbacks are used
	masumiClient := client.NewMasumiClient(&config.MasumiConfig{Network: "Preprod"})
	agentClient := client.NewAgentClient(&config.OpenAIConfig{})

	jobStore := store.NewJobStore()
	agentExecutor := executor.NewAgentExecutor(agentClient)
	dispatcher := service.NewAsynqDispatcher(asynqClient)
	jobService := service.NewJobService(cfg, jobStore, masumiClient, agentExecutor, dispatcher, nil)
	stageTracker := service.NewStageTracker(jobStore, agentExecutor, nil)
	t.Cleanup(jobService.Shutdown)

	jobHandler := handler.NewJobHandler(jobService, cfg, validate)
	goalHandler := handler.NewGoalHandler(stageTracker, validate)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", jobHandler.Health)
	app.Get("/availability", jobHandler.Availability)
	app.Get("/input_schema", jobHandler.InputSchema)
	app.Get("/agent_metadata", jobHandler.AgentMetadata)
	// Very high rate limits so tests don't get blocked
	app.Post("/start_job", rateLimiter.StartJobLimit(10000), jobHandler.StartJob)
	app.Get("/status", jobHandler.Status)
	app.Post("/submit_reflection", rateLimiter.ReflectionLimit(10000), goalHandler.SubmitReflection)
	app.Post("/complete_goal", rateLimiter.CompletionLimit(10000), goalHandler.CompleteGoal)
	app.Get("/goal_status", goalHandler.GoalStatus)

	return &testApp{app: app, svc: jobService}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
