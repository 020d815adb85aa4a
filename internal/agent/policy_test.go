package agent

import "testing"

func TestJudgeFullCompletion(t *testing.T) {
	v := Judge(CompletionClaim{
		GoalID:           "RDM-1",
		UserClaimsDone:   true,
		Evidence:         "daily photo log",
		SelfAssessment:   AssessmentDone,
		PledgeAmount:     100,
		ReflectionsCount: 5,
	})

	if v.Judgment != "Goal Achieved" {
		t.Errorf("unexpected judgment: %s", v.Judgment)
	}
	if v.RewardTokens+v.RemorseTokens != 100 {
		t.Errorf("token split must conserve the pledge: %d + %d", v.RewardTokens, v.RemorseTokens)
	}
	if v.BonusTokens != 10 {
		t.Errorf("expected consistency bonus, got %d", v.BonusTokens)
	}
	if v.Badge != "Eco Champion (Gold)" {
		t.Errorf("unexpected badge: %s", v.Badge)
	}
}

func TestJudgePartialCompletion(t *testing.T) {
	v := Judge(CompletionClaim{
		SelfAssessment: AssessmentPartiallyDone,
		Evidence:       "some notes",
		PledgeAmount:   150,
	})

	if v.CompletionPercent != 60 {
		t.Errorf("expected 60%%, got %d", v.CompletionPercent)
	}
	if v.Judgment != "Partially Achieved" {
		t.Errorf("unexpected judgment: %s", v.Judgment)
	}
	if v.RewardTokens != 90 || v.RemorseTokens != 60 {
		t.Errorf("unexpected split: reward=%d remorse=%d", v.RewardTokens, v.RemorseTokens)
	}
}

func TestJudgeDowngradesUnevidencedClaims(t *testing.T) {
	v := Judge(CompletionClaim{
		UserClaimsDone: true,
		SelfAssessment: AssessmentDone,
		PledgeAmount:   100,
	})

	if v.CompletionPercent != 70 {
		t.Errorf("done-claim without evidence should land at 70%%, got %d", v.CompletionPercent)
	}
}

func TestJudgeNotDone(t *testing.T) {
	v := Judge(CompletionClaim{
		SelfAssessment: AssessmentNotDone,
		PledgeAmount:   100,
	})

	if v.CompletionPercent != 0 || v.RewardTokens != 0 || v.RemorseTokens != 100 {
		t.Errorf("unexpected outcome: %+v", v)
	}
	if v.Badge != "" {
		t.Errorf("no badge expected, got %s", v.Badge)
	}
}

func TestPeerVerificationBonus(t *testing.T) {
	v := Judge(CompletionClaim{
		SelfAssessment:     AssessmentPartiallyDone,
		Evidence:           "tracker export",
		VerificationMethod: "Peer verification",
		PledgeAmount:       100,
	})
	if v.BonusTokens != 5 {
		t.Errorf("expected peer verification bonus, got %d", v.BonusTokens)
	}
}
