package college

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Fit categories the model is asked to use. Other values are stored as given.
const (
	FitReach  = "reach"
	FitTarget = "target"
	FitSafety = "safety"
)

// Recommendation is one persisted college suggestion owned by a student.
// Generated rows are replaced wholesale on every run; rows flagged as dream
// colleges are curated elsewhere and never touched by generation.
type Recommendation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_recommendation_student_dream,priority:1;column:student_id" json:"student_id"`

	CollegeName string `gorm:"not null;column:college_name" json:"college_name"`
	City        string `gorm:"column:city" json:"city"`
	Country     string `gorm:"column:country" json:"country"`

	// 0 <= MatchScore <= 0.99, 0 <= AdmissionChance <= 0.999
	MatchScore      float64 `gorm:"not null;column:match_score" json:"match_score"`
	AdmissionChance float64 `gorm:"not null;column:admission_chance" json:"admission_chance"`
	FitCategory     string  `gorm:"not null;column:fit_category" json:"fit_category"`
	Justification   string  `gorm:"type:text;column:justification" json:"justification"`
	ProgramType     string  `gorm:"column:program_type" json:"program_type"`

	AnnualTuition   *float64 `gorm:"column:annual_tuition" json:"annual_tuition"`
	LivingCost      *float64 `gorm:"column:living_cost" json:"living_cost"`
	TotalAnnualCost *float64 `gorm:"column:total_annual_cost" json:"total_annual_cost"`
	CostCurrency    string   `gorm:"column:cost_currency" json:"cost_currency"`

	// nil or within [0, 0.999]
	AcceptanceRate        *float64                    `gorm:"column:acceptance_rate" json:"acceptance_rate"`
	StudentCount          *int64                      `gorm:"column:student_count" json:"student_count"`
	CampusSetting         string                      `gorm:"column:campus_setting" json:"campus_setting"`
	AdmissionRequirements datatypes.JSON              `gorm:"column:admission_requirements" json:"admission_requirements"`
	WebsiteURL            string                      `gorm:"column:website_url" json:"website_url"`
	MatchReasons          datatypes.JSONSlice[string] `gorm:"column:match_reasons" json:"match_reasons"`

	IsDreamCollege bool      `gorm:"not null;default:false;index:idx_recommendation_student_dream,priority:2;column:is_dream_college" json:"is_dream_college"`
	GeneratedAt    time.Time `gorm:"not null;column:generated_at" json:"generated_at"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Recommendation) TableName() string { return "college_recommendation" }

func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	return nil
}
