package recommendation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/collegeprep-backend/internal/domain"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

const DefaultBatchSize = 5

// Store is the slice of the recommendation repo the writer needs.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, recs []*types.Recommendation) ([]*types.Recommendation, error)
	DeleteGeneratedByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (int64, error)
}

// PersistenceError reports a failed clear or batch insert.
type PersistenceError struct {
	Op       string
	Inserted int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("recommendation %s failed after %d inserted: %v", e.Op, e.Inserted, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// BatchWriter replaces a student's generated recommendations. Batches are
// inserted one after another; a failed batch leaves earlier batches in place.
type BatchWriter struct {
	store     Store
	batchSize int
	log       *logger.Logger
}

func NewBatchWriter(store Store, batchSize int, log *logger.Logger) *BatchWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchWriter{store: store, batchSize: batchSize, log: log.With("service", "RecommendationBatchWriter")}
}

func (w *BatchWriter) BatchSize() int { return w.batchSize }

// Clear deletes every non-dream recommendation of the student.
func (w *BatchWriter) Clear(ctx context.Context, studentID uuid.UUID) error {
	n, err := w.store.DeleteGeneratedByStudentID(ctx, nil, studentID)
	if err != nil {
		return &PersistenceError{Op: "clear", Err: err}
	}
	w.log.Debug("Cleared generated recommendations", "student_id", studentID, "deleted", n)
	return nil
}

// Insert writes recs in batches and calls onBatch with the cumulative count
// after each committed batch. It returns how many rows were inserted.
func (w *BatchWriter) Insert(ctx context.Context, recs []*types.Recommendation, onBatch func(current, total int)) (int, error) {
	total := len(recs)
	inserted := 0
	for _, batch := range Batches(recs, w.batchSize) {
		if _, err := w.store.Create(ctx, nil, batch); err != nil {
			return inserted, &PersistenceError{Op: "insert", Inserted: inserted, Err: err}
		}
		inserted += len(batch)
		if onBatch != nil {
			onBatch(inserted, total)
		}
	}
	return inserted, nil
}

// Batches splits recs into consecutive chunks of size; only the last may be shorter.
func Batches(recs []*types.Recommendation, size int) [][]*types.Recommendation {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]*types.Recommendation, 0, (len(recs)+size-1)/size)
	for start := 0; start < len(recs); start += size {
		end := min(start+size, len(recs))
		out = append(out, recs[start:end])
	}
	return out
}
