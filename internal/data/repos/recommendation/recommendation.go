package recommendation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/collegeprep-backend/internal/domain"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

type RecommendationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, recs []*types.Recommendation) ([]*types.Recommendation, error)
	ListByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Recommendation, error)
	CountByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error)
	// DeleteGeneratedByStudentID removes every non-dream recommendation of the student.
	DeleteGeneratedByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	repoLog := baseLog.With("repo", "RecommendationRepo")
	return &recommendationRepo{db: db, log: repoLog}
}

func (r *recommendationRepo) Create(ctx context.Context, tx *gorm.DB, recs []*types.Recommendation) ([]*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(recs) == 0 {
		return []*types.Recommendation{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *recommendationRepo) ListByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Recommendation
	if studentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("is_dream_college DESC").
		Order("match_score DESC").
		Order("college_name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recommendationRepo) CountByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Recommendation{}).
		Where("student_id = ?", studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recommendationRepo) DeleteGeneratedByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("student_id = ? AND is_dream_college = ?", studentID, false).
		Delete(&types.Recommendation{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
