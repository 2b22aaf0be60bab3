package recommendation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const notAvailable = "N/A"

// Profile is the loosely-typed student profile posted by the client. Keys
// arrive in both camelCase and snake_case depending on which screen saved them.
type Profile map[string]any

type profileField struct {
	label string
	keys  []string
	list  bool
}

var profileFields = []profileField{
	{label: "Grade Level", keys: []string{"gradeLevel", "grade_level"}},
	{label: "Country of Residence", keys: []string{"countryOfResidence", "country_of_residence"}},
	{label: "Intended Majors", keys: []string{"intended_majors", "intendedMajors"}, list: true},
	{label: "GPA", keys: []string{"gpa", "GPA"}},
	{label: "SAT Score", keys: []string{"sat_score", "satScore"}},
	{label: "ACT Score", keys: []string{"act_score", "actScore"}},
	{label: "Preferred College Size", keys: []string{"college_size", "collegeSize"}},
	{label: "Preferred Campus Setting", keys: []string{"campus_setting", "campusSetting"}},
	{label: "Budget", keys: []string{"budget_range", "budgetRange", "budget"}},
	{label: "Preferred Countries", keys: []string{"preferred_countries", "preferredCountries"}, list: true},
}

// Summary renders the profile as the fixed block embedded in the prompt.
// Every line is always present; absent or empty values read "N/A".
func (p Profile) Summary() string {
	var b strings.Builder
	for i, f := range profileFields {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(p.render(f))
	}
	return b.String()
}

func (p Profile) render(f profileField) string {
	raw, ok := p.lookup(f.keys)
	if !ok {
		return notAvailable
	}
	var s string
	if f.list {
		s = joinList(raw)
	} else {
		s = scalarString(raw)
	}
	if s == "" {
		return notAvailable
	}
	return s
}

func (p Profile) lookup(keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func joinList(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return scalarString(v)
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
