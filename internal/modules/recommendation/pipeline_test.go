package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/collegeprep-backend/internal/domain"
)

func modelResponse(n int, fenced bool) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(`{"college_name":"College %d","fit_category":"target","match_score":%d.5,"admission_chance":0.4,"match_reasons":["reason"]}`, i, i%2))
	}
	body := "[" + strings.Join(items, ",\n") + ",\n]"
	if fenced {
		return "```json\n" + body + "\n```"
	}
	return body
}

func TestPipelineRunElevenRecords(t *testing.T) {
	student := uuid.New()
	store := &fakeStore{rows: []*types.Recommendation{
		{StudentID: student, CollegeName: "stale"},
		{StudentID: student, CollegeName: "dream", IsDreamCollege: true},
	}}
	var prompt string
	gen := GeneratorFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return modelResponse(11, true), nil
	})
	sink := &recordingSink{}
	p := NewPipeline(gen, store, Config{BatchSize: 5}, mustTestLogger(t))

	res, err := p.Run(context.Background(), student, Profile{
		"gradeLevel":         "11th Grade",
		"countryOfResidence": "Canada",
		"intended_majors":    []any{"Computer Science"},
	}, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Inserted != 11 || res.Candidates != 11 || res.Rejected != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(prompt, "Country of Residence: Canada") || !strings.Contains(prompt, "GPA: N/A") {
		t.Fatalf("prompt missing profile summary:\n%s", prompt)
	}

	var currents []int
	for _, ev := range sink.events {
		if ev.Type == EventProgress {
			currents = append(currents, ev.Current)
			if ev.Total != 11 {
				t.Fatalf("progress total: want=11 got=%d", ev.Total)
			}
		}
	}
	if fmt.Sprint(currents) != "[5 10 11]" {
		t.Fatalf("progress currents: want [5 10 11] got %v", currents)
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != EventComplete || last.Count != 11 {
		t.Fatalf("last event: want complete count=11 got %+v", last)
	}
	if sink.count(EventComplete)+sink.count(EventError) != 1 || sink.closed != 1 {
		t.Fatalf("want exactly one terminal event and one close, events=%+v closed=%d", sink.events, sink.closed)
	}

	if len(store.rows) != 12 {
		t.Fatalf("want dream college + 11 generated rows, got %d", len(store.rows))
	}
	for _, r := range store.rows {
		if r.CollegeName == "stale" {
			t.Fatalf("stale generated row survived")
		}
		if r.CollegeName != "dream" && (r.IsDreamCollege || r.StudentID != student || r.MatchScore > 0.99) {
			t.Fatalf("bad persisted row: %+v", r)
		}
	}
}

func TestPipelineRunUnparseableResponse(t *testing.T) {
	student := uuid.New()
	store := &fakeStore{}
	gen := GeneratorFunc(func(context.Context, string) (string, error) {
		return "I think you would enjoy studying in Canada. Good luck with your applications!", nil
	})
	sink := &recordingSink{}
	p := NewPipeline(gen, store, Config{}, mustTestLogger(t))

	_, err := p.Run(context.Background(), student, Profile{}, sink)
	if !errors.Is(err, ErrUnparseableResponse) {
		t.Fatalf("want ErrUnparseableResponse got %v", err)
	}
	if len(sink.events) != 2 || sink.events[0].Type != EventStatus || sink.events[1].Type != EventError {
		t.Fatalf("want status then error, got %+v", sink.events)
	}
	if sink.events[1].Message != "Failed to parse AI response" {
		t.Fatalf("error message: got %q", sink.events[1].Message)
	}
	if store.creates != 0 || len(store.rows) != 0 {
		t.Fatalf("no rows may be written, creates=%d rows=%d", store.creates, len(store.rows))
	}
	if store.deletes != 1 {
		t.Fatalf("clear must still run before generation, deletes=%d", store.deletes)
	}
	if sink.closed != 1 {
		t.Fatalf("stream must be closed once, got %d", sink.closed)
	}
}

func TestPipelineRunUpstreamError(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	sink := &recordingSink{}
	p := NewPipeline(gen, &fakeStore{}, Config{}, mustTestLogger(t))

	_, err := p.Run(context.Background(), uuid.New(), Profile{}, sink)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("want UpstreamError got %v", err)
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != EventError || last.Message != "Failed to generate recommendations" {
		t.Fatalf("unexpected terminal event: %+v", last)
	}
}

func TestPipelineRunPersistenceError(t *testing.T) {
	store := &fakeStore{failAt: 2}
	gen := GeneratorFunc(func(context.Context, string) (string, error) { return modelResponse(8, false), nil })
	sink := &recordingSink{}
	p := NewPipeline(gen, store, Config{BatchSize: 5}, mustTestLogger(t))

	res, err := p.Run(context.Background(), uuid.New(), Profile{}, sink)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("want PersistenceError got %v", err)
	}
	if res.Inserted != 5 || len(store.rows) != 5 {
		t.Fatalf("first batch must stay in place, inserted=%d rows=%d", res.Inserted, len(store.rows))
	}
	if sink.count(EventProgress) != 1 || sink.count(EventError) != 1 || sink.count(EventComplete) != 0 {
		t.Fatalf("unexpected events: %+v", sink.events)
	}
	if sink.events[len(sink.events)-1].Message != "Failed to save recommendations" {
		t.Fatalf("unexpected message: %+v", sink.events[len(sink.events)-1])
	}
}

func TestPipelineRunDropsInvalidCandidates(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, string) (string, error) {
		return `[{"college_name":"A","fit_category":"reach","match_score":3},{"college_name":"B"},{"fit_category":"safety"},"x"]`, nil
	})
	sink := &recordingSink{}
	store := &fakeStore{}
	p := NewPipeline(gen, store, Config{}, mustTestLogger(t))

	res, err := p.Run(context.Background(), uuid.New(), Profile{}, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Inserted != 1 || res.Rejected != 3 || len(store.rows) != 1 || store.rows[0].MatchScore != 0.99 {
		t.Fatalf("unexpected result=%+v rows=%d", res, len(store.rows))
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != EventComplete || last.Count != 1 {
		t.Fatalf("unexpected terminal event: %+v", last)
	}
}

func TestPipelineRunZeroValid(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, string) (string, error) { return `[{"city":"Paris"}]`, nil })
	sink := &recordingSink{}
	p := NewPipeline(gen, &fakeStore{}, Config{}, mustTestLogger(t))

	if _, err := p.Run(context.Background(), uuid.New(), Profile{}, sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.count(EventProgress) != 0 {
		t.Fatalf("no progress expected for empty set")
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != EventComplete || last.Count != 0 {
		t.Fatalf("want complete with count 0, got %+v", last)
	}
}

func TestPipelineRunPanicBecomesErrorEvent(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, string) (string, error) { panic("nil map") })
	sink := &recordingSink{}
	p := NewPipeline(gen, &fakeStore{}, Config{}, mustTestLogger(t))

	_, err := p.Run(context.Background(), uuid.New(), Profile{}, sink)
	if err == nil {
		t.Fatalf("want error from panic")
	}
	if sink.count(EventError) != 1 || sink.closed != 1 {
		t.Fatalf("want one error event and one close, events=%+v closed=%d", sink.events, sink.closed)
	}
}

func TestPipelineObserversSeeEveryEvent(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, string) (string, error) { return modelResponse(6, false), nil })
	sink := &recordingSink{}
	var observed []EventType
	p := NewPipeline(gen, &fakeStore{}, Config{BatchSize: 5}, mustTestLogger(t))

	if _, err := p.Run(context.Background(), uuid.New(), Profile{}, sink, func(ev Event) { observed = append(observed, ev.Type) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(observed) != len(sink.events) {
		t.Fatalf("observer saw %d events, sink %d", len(observed), len(sink.events))
	}
}

func TestUserMessage(t *testing.T) {
	cases := map[string]error{
		"Failed to parse AI response":                            fmt.Errorf("wrap: %w", ErrUnparseableResponse),
		"Failed to generate recommendations":                     &UpstreamError{Err: errors.New("x")},
		"Failed to save recommendations":                         &PersistenceError{Op: "insert", Err: errors.New("x")},
		"Something went wrong while generating recommendations": errors.New("other"),
	}
	for want, err := range cases {
		if got := UserMessage(err); got != want {
			t.Fatalf("UserMessage(%v): want=%q got=%q", err, want, got)
		}
	}
}
