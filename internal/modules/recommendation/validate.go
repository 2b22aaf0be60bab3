package recommendation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/collegeprep-backend/internal/domain"
)

const (
	defaultScore       = 0.5
	maxMatchScore      = 0.99
	maxAdmissionChance = 0.999
	maxAcceptanceRate  = 0.999
)

type FailureReason string

const (
	ReasonNotObject          FailureReason = "not_object"
	ReasonMissingCollegeName FailureReason = "missing_college_name"
	ReasonMissingFitCategory FailureReason = "missing_fit_category"
)

// ValidationFailure explains why a candidate was dropped.
type ValidationFailure struct {
	Index  int
	Reason FailureReason
}

func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("candidate %d rejected: %s", f.Index, f.Reason)
}

// Validate turns one parsed candidate into a record owned by studentID.
// Numeric fields are clamped into their valid ranges; the candidate is
// rejected only when it is not an object or lacks a college name or fit
// category.
func Validate(studentID uuid.UUID, index int, raw any, now time.Time) (*types.Recommendation, *ValidationFailure) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationFailure{Index: index, Reason: ReasonNotObject}
	}
	name := stringField(obj, "college_name")
	if name == "" {
		return nil, &ValidationFailure{Index: index, Reason: ReasonMissingCollegeName}
	}
	fit := stringField(obj, "fit_category")
	if fit == "" {
		return nil, &ValidationFailure{Index: index, Reason: ReasonMissingFitCategory}
	}

	rec := &types.Recommendation{
		StudentID:       studentID,
		CollegeName:     name,
		City:            stringField(obj, "city"),
		Country:         stringField(obj, "country"),
		MatchScore:      clamp(numberOr(obj, "match_score", defaultScore), 0, maxMatchScore),
		AdmissionChance: clamp(numberOr(obj, "admission_chance", defaultScore), 0, maxAdmissionChance),
		FitCategory:     strings.ToLower(fit),
		Justification:   stringField(obj, "justification"),
		ProgramType:     stringField(obj, "program_type"),
		AnnualTuition:   nonNegative(obj, "annual_tuition"),
		LivingCost:      nonNegative(obj, "living_cost"),
		TotalAnnualCost: nonNegative(obj, "total_annual_cost"),
		CostCurrency:    strings.ToUpper(stringField(obj, "cost_currency")),
		CampusSetting:   stringField(obj, "campus_setting"),
		WebsiteURL:      stringField(obj, "website_url"),
		MatchReasons:    stringList(obj, "match_reasons"),
		IsDreamCollege:  false,
		GeneratedAt:     now,
	}
	if v, ok := number(obj, "acceptance_rate"); ok {
		rate := clamp(v, 0, maxAcceptanceRate)
		rec.AcceptanceRate = &rate
	}
	if v, ok := number(obj, "student_count"); ok && v >= 0 {
		n := int64(math.Round(v))
		rec.StudentCount = &n
	}
	rec.AdmissionRequirements = jsonField(obj, "admission_requirements")
	return rec, nil
}

// ValidateAll keeps the valid subset of candidates, in input order.
func ValidateAll(studentID uuid.UUID, raws []any, now time.Time) ([]*types.Recommendation, []*ValidationFailure) {
	recs := make([]*types.Recommendation, 0, len(raws))
	var failures []*ValidationFailure
	for i, raw := range raws {
		rec, failure := Validate(studentID, i, raw, now)
		if failure != nil {
			failures = append(failures, failure)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, failures
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// number reads a finite number, accepting numeric strings.
func number(obj map[string]any, key string) (float64, bool) {
	var f float64
	switch t := obj[key].(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numberOr(obj map[string]any, key string, def float64) float64 {
	if v, ok := number(obj, key); ok {
		return v
	}
	return def
}

func nonNegative(obj map[string]any, key string) *float64 {
	v, ok := number(obj, key)
	if !ok || v < 0 {
		return nil
	}
	return &v
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

func stringList(obj map[string]any, key string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	switch t := obj[key].(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func jsonField(obj map[string]any, key string) datatypes.JSON {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
