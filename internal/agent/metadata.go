package agent

import "strconv"

// RegistrationMetadata is the document served by /agent_metadata, following
// the Masumi metadata standard for the on-chain agent registry.
func RegistrationMetadata(apiURL, paymentAmount, paymentUnit string) map[string]any {
	quantity, _ := strconv.Atoi(paymentAmount)

	return map[string]any{
		"name": []string{"RDM Goal Accountability Agent"},
		"description": []string{
			"AI-powered goal-setting and accountability system with token-based commitment. " +
				"Uses two specialized agents: (1) Goal-Setting & Pledge Management for guidance " +
				"and reflections, and (2) Veritas for impartial verification and token distribution. " +
				"Supports SDG/ESG alignment, multiple verification methods, and impact tracking.",
		},
		"api_url": []string{apiURL},
		"example_output": []string{
			"Goal created with 100 RDM pledge, daily reflections tracked, " +
				"60% completion verified by Veritas, 60 RDM to Reward bucket + 10 bonus tokens, " +
				"Eco Champion (Bronze) badge awarded",
		},
		"capability": map[string]any{
			"name": []string{
				"Goal Setting with SDG/ESG Alignment",
				"RDM Token Pledge Management",
				"Daily/Weekly Reflection Facilitation",
				"AI-Powered Verification (Veritas)",
				"Token Distribution (Reward/Remorse)",
				"Impact Badge Assignment",
			},
			"version": []string{"1.0.0"},
		},
		"requests_per_hour": []string{"100"},
		"author": map[string]any{
			"name":         []string{"RDM Development Team"},
			"contact":      []string{"rdm-support@example.com"},
			"organization": []string{"RDM Accountability Systems"},
		},
		"legal": map[string]any{
			"privacy_policy": []string{"https://rdm.example.com/privacy"},
			"terms":          []string{"https://rdm.example.com/terms"},
			"other": []string{
				"Agent judgments are AI-powered and should be used as guidance. " +
					"Users maintain final responsibility for their goals.",
			},
		},
		"tags": []string{
			"goal-setting",
			"accountability",
			"sustainability",
			"token-economy",
			"impact-tracking",
		},
		"pricing": []map[string]any{
			{
				"quantity": quantity,
				"unit":     []string{paymentUnit},
			},
		},
		"image":            []string{"https://rdm.example.com/agent-logo.png"},
		"metadata_version": 1,
	}
}
