package recommendation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/collegeprep-backend/internal/domain"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fakeStore struct {
	mu        sync.Mutex
	rows      []*types.Recommendation
	deletes   int
	creates   int
	failAt    int // 1-based Create call that fails; 0 never
	deleteErr error
}

func (s *fakeStore) Create(_ context.Context, _ *gorm.DB, recs []*types.Recommendation) ([]*types.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.failAt > 0 && s.creates == s.failAt {
		return nil, errors.New("insert failed")
	}
	s.rows = append(s.rows, recs...)
	return recs, nil
}

func (s *fakeStore) DeleteGeneratedByStudentID(_ context.Context, _ *gorm.DB, studentID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	kept := s.rows[:0]
	var n int64
	for _, r := range s.rows {
		if r.StudentID == studentID && !r.IsDreamCollege {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return n, nil
}

type recordingSink struct {
	events  []Event
	closed  int
	sendErr error
}

func (s *recordingSink) Send(ev Event) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed++
	return nil
}

func (s *recordingSink) count(tp EventType) int {
	n := 0
	for _, ev := range s.events {
		if ev.Type == tp {
			n++
		}
	}
	return n
}
