// Package agent holds the business-policy side of the goal-accountability
// service: the published input schema, the on-chain registration metadata,
// the prompts the agent crew runs on, and the token-distribution rules.
package agent

// SchemaField describes one accepted input field for /input_schema.
type SchemaField struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// InputSchema is the document served by /input_schema. It describes both
// accepted input shapes: free text for the generic research task, and the
// goal fields for the accountability workflow.
func InputSchema() map[string]any {
	return map[string]any{
		"input_data": []SchemaField{
			{
				ID:   "goal_description",
				Type: "string",
				Name: "Goal Description",
				Data: map[string]any{
					"description": "Describe your sustainability or personal development goal",
					"placeholder": "E.g., Reduce single-use plastic by 80% over 30 days",
					"required":    true,
				},
			},
			{
				ID:   "pledge_amount",
				Type: "number",
				Name: "RDM Token Pledge Amount",
				Data: map[string]any{
					"description": "How many RDM tokens do you want to pledge? (75-175 recommended)",
					"placeholder": "100",
					"min":         50,
					"max":         500,
					"default":     100,
					"required":    true,
				},
			},
			{
				ID:   "duration",
				Type: "string",
				Name: "Goal Duration",
				Data: map[string]any{
					"description": "How long will you work on this goal?",
					"placeholder": "30 days",
					"examples":    []string{"7 days", "30 days", "2 months", "90 days"},
					"required":    true,
				},
			},
			{
				ID:   "verification_method",
				Type: "string",
				Name: "Verification Method",
				Data: map[string]any{
					"description": "How will you verify completion?",
					"placeholder": "Daily photo log + weekly self-assessment",
					"options": []string{
						"Self-verification (Y/N)",
						"Photo/video evidence",
						"Third-party app (fitness, habit tracker)",
						"IoT device data",
						"Peer verification",
						"Combined methods",
					},
					"required": true,
				},
			},
			{
				ID:   "goal_category",
				Type: "string",
				Name: "Goal Category",
				Data: map[string]any{
					"description": "What type of goal is this?",
					"options": []string{
						"Environmental Sustainability",
						"Health & Fitness",
						"Learning & Education",
						"Community Service",
						"Personal Development",
						"Financial Wellness",
					},
					"required": false,
				},
			},
			{
				ID:   "text",
				Type: "string",
				Name: "Task Text",
				Data: map[string]any{
					"description": "Free-text task for the generic research crew (used when no goal_description is given)",
					"required":    false,
				},
			},
		},
		"metadata": map[string]any{
			"service_name": "RDM Goal Accountability Agent",
			"version":      "1.0.0",
			"capabilities": []string{
				"Goal setting with SDG/ESG alignment",
				"Token pledge management",
				"Daily/weekly reflection check-ins",
				"AI-powered verification and judgment",
				"Token distribution (Reward/Remorse buckets)",
				"Impact badge assignment",
			},
		},
	}
}
