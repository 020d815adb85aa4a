package agent

import "github.com/rdmlabs/agent-api/internal/model"

// Completion claim as self-assessed by the user.
const (
	AssessmentDone          = "Done"
	AssessmentPartiallyDone = "Partially Done"
	AssessmentNotDone       = "Not Done"
)

// CompletionClaim is what the verification stage judges.
type CompletionClaim struct {
	GoalID             string
	GoalDescription    string
	UserClaimsDone     bool
	Evidence           string
	SelfAssessment     string
	VerificationMethod string
	PledgeAmount       int
	ReflectionsCount   int
}

// Judge turns a completion claim into a verification outcome. The rubric is
// deterministic; the AI layer adds the narrative on top, it does not decide
// the token split.
func Judge(claim CompletionClaim) *model.Verification {
	percent := completionPercent(claim)

	v := &model.Verification{
		GoalID:            claim.GoalID,
		CompletionPercent: percent,
		RewardTokens:      claim.PledgeAmount * percent / 100,
	}
	v.RemorseTokens = claim.PledgeAmount - v.RewardTokens

	switch {
	case percent >= 90:
		v.Judgment = "Goal Achieved"
	case percent >= 50:
		v.Judgment = "Partially Achieved"
	default:
		v.Judgment = "Not Achieved"
	}

	v.BonusTokens = bonusTokens(claim, percent)
	v.Badge = badge(percent)
	return v
}

func completionPercent(claim CompletionClaim) int {
	var percent int
	switch claim.SelfAssessment {
	case AssessmentDone:
		percent = 100
	case AssessmentPartiallyDone:
		percent = 60
	default:
		percent = 0
	}

	// A done-claim without evidence is downgraded; Veritas does not take
	// bare assertions at face value.
	if percent > 0 && claim.Evidence == "" {
		percent -= 30
	}
	if !claim.UserClaimsDone && percent > 60 {
		percent = 60
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}

func bonusTokens(claim CompletionClaim, percent int) int {
	bonus := 0
	if percent >= 90 && claim.ReflectionsCount >= 4 {
		// Consistency bonus for regular check-ins.
		bonus += 10
	}
	if claim.VerificationMethod == "Peer verification" {
		bonus += 5
	}
	return bonus
}

func badge(percent int) string {
	switch {
	case percent >= 90:
		return "Eco Champion (Gold)"
	case percent >= 70:
		return "Eco Champion (Silver)"
	case percent >= 50:
		return "Eco Champion (Bronze)"
	default:
		return ""
	}
}
