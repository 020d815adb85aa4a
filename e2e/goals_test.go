package e2e

import (
	"net/http"
	"testing"
)

func TestSubmitReflection_UnknownJob(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/submit_reflection",
		`{"job_id":"missing","goal_id":"RDM-missing1","status":"In Progress","notes":"day one"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}

func TestSubmitReflection_InvalidStatus(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/submit_reflection",
		`{"job_id":"any","goal_id":"RDM-any00001","status":"Maybe"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestCompleteGoal_UnknownJobRecovers(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/complete_goal",
		`{"job_id":"lost-after-restart","goal_id":"RDM-lost0001","user_claims_done":true,"evidence":"photo log","self_assessment":"Done"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["recovered"] != true {
		t.Errorf("expected the recovered flag on a synthesized record, got %v", body["recovered"])
	}
	verification, _ := body["verification_result"].(map[string]interface{})
	if verification == nil || verification["judgment"] == "" {
		t.Fatalf("expected a verification judgment, got %v", body["verification_result"])
	}
}

func TestCompleteGoal_MissingEvidence(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/complete_goal",
		`{"job_id":"any","goal_id":"RDM-any00001","self_assessment":"Done"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestGoalStatus_Unknown(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/goal_status?goal_id=RDM-missing1", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}
