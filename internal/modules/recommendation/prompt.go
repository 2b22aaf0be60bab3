package recommendation

import (
	"fmt"
	"strings"
)

const DefaultTargetCount = 15

const promptTemplate = `You are an experienced college admissions counselor. Recommend %d colleges or universities for the student below.

Student profile:
%s

Spread the list across fit categories: roughly a third "reach", a third "target" and a third "safety".
Base admission_chance on the student's grades and test scores relative to each school's admitted class.

Respond with ONLY a JSON array, no prose and no markdown. Each element must be an object with exactly these fields:
- "college_name": string
- "city": string
- "country": string
- "match_score": number between 0 and 1
- "admission_chance": number between 0 and 1
- "fit_category": one of "reach", "target", "safety"
- "justification": string, two or three sentences
- "program_type": string, e.g. "Bachelor of Science"
- "annual_tuition": number, in cost_currency
- "living_cost": number, estimated yearly living expenses
- "total_annual_cost": number
- "cost_currency": ISO 4217 code
- "acceptance_rate": number between 0 and 1
- "student_count": integer
- "campus_setting": one of "urban", "suburban", "rural"
- "admission_requirements": string
- "website_url": string
- "match_reasons": array of short strings`

// BuildPrompt embeds the profile summary into the generation prompt.
func BuildPrompt(summary string, count int) string {
	if count <= 0 {
		count = DefaultTargetCount
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = Profile(nil).Summary()
	}
	return fmt.Sprintf(promptTemplate, count, summary)
}
