package domain

import "github.com/yungbote/collegeprep-backend/internal/domain/college"

const (
	FitReach  = college.FitReach
	FitTarget = college.FitTarget
	FitSafety = college.FitSafety
)

type Recommendation = college.Recommendation
