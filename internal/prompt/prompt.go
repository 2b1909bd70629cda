// Package prompt composes the instructions sent to the evaluator.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
)

const noNotes = "No specific custom notes provided."

// System returns the evaluator role instruction, including the result schema.
func System() string {
	return `You are an expert career coach. You must return a valid JSON object matching the EvaluationResult schema below. Ensure metrics, pros, and cons are always arrays.
The top-level key for the list of job evaluations must be exactly "evaluations", and the summary across all jobs must be "overallInsight".
Return only valid JSON. Do not include explanations, markdown, or text before or after the JSON.

EvaluationResult JSON Schema:
` + jobmatch.ResultSchema
}

// Build composes the user instruction for one analysis run.
func Build(prefs jobmatch.PreferenceSet, resume string, jobs []jobmatch.ScrapedJobRecord) (string, error) {
	jobsJSON, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal jobs: %w", err)
	}

	notes := strings.TrimSpace(prefs.CustomNotes)
	if notes == "" {
		notes = noNotes
	}

	return fmt.Sprintf(`
Role: Senior Executive Career Consultant.
Task: Precisely match the following job opportunities against the Candidate's Resume and Specific Weighted Preferences.

Candidate's Resume:
"""
%s
"""

User Scoring Weights (0-10):
- Salary Level: %d
- Remote Flexibility: %d
- Culture Fit: %d
- Professional Growth: %d
- Tech Stack Alignment: %d

CRITICAL CUSTOM PREFERENCES & DEALBREAKERS:
"""
%s
"""
INSTRUCTION: If custom notes are provided, they are at least as important as the weights. They act as a multiplier or a veto: a stated dealbreaker must pull the score of a matching job down significantly regardless of every other factor. For example, if the user says "No web3", any crypto-related job must score low.

Job Opportunities Data:
%s

EXPECTED JSON OUTPUT RULES:
1. "worthApplyingScore" (0-100): Calculate a final weighted average of the factors above using the user's weights. Use the custom notes as a "multiplier" or "veto" if they contain dealbreakers.
2. "metrics" Array: For each job, provide a breakdown of {"category", "score" (0-100), "reasoning"} per weighted factor, including "Custom Fit" as a metric if custom notes were provided.
3. "status": Use exactly one of %s.
4. "coverLetter": Write a 3-paragraph compelling letter tailored to BOTH the resume and the job requirements.
5. "tailoredResume": Provide a refined "Professional Summary" and "Key Skills" block specifically optimized for the job's keywords.
6. "jobId": Copy the "id" of the job being evaluated exactly. Return one evaluation per job.
`,
		resume,
		prefs.SalaryWeight,
		prefs.RemoteWeight,
		prefs.CultureWeight,
		prefs.GrowthWeight,
		prefs.TechStackWeight,
		notes,
		string(jobsJSON),
		statusList(),
	), nil
}

func statusList() string {
	quoted := make([]string, len(jobmatch.Statuses))
	for i, s := range jobmatch.Statuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
