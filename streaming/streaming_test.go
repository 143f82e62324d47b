package streaming

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

type sleepy struct{}

func (sleepy) Convert(ctx context.Context, latex string, display bool) (string, error) {
	time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
	if latex == "bad" {
		return "", errors.New("undefined")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "<svg>" + latex + "</svg>", nil
}

func TestRenderAllOrdered(t *testing.T) {
	var jobs []Job
	for i := range 50 {
		jobs = append(jobs, Job{ID: fmt.Sprint(i), LaTeX: fmt.Sprintf("x_%d", i)})
	}
	jobs[7].LaTeX = "bad"
	res, err := RenderAll(context.Background(), sleepy{}, jobs, StreamConfig{Concurrency: 8, BufferSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(res), len(jobs))
	}
	for i, r := range res {
		if r.Index != i || r.Job.ID != jobs[i].ID {
			t.Fatalf("result %d has index %d id %s", i, r.Index, r.Job.ID)
		}
		if i == 7 {
			if r.Err == nil {
				t.Error("job 7 should fail")
			}
			continue
		}
		if r.Err != nil || r.SVG != "<svg>"+jobs[i].LaTeX+"</svg>" {
			t.Errorf("result %d = %q, %v", i, r.SVG, r.Err)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	res, err := RenderAll(context.Background(), sleepy{}, nil, StreamConfig{})
	if err != nil || len(res) != 0 {
		t.Fatalf("got %v, %v", res, err)
	}
}

func TestCloseStops(t *testing.T) {
	jobs := make(chan Job)
	s := Render(context.Background(), sleepy{}, jobs, StreamConfig{Concurrency: 2})
	jobs <- Job{LaTeX: "a"}
	if r := <-s.Results(); r.SVG != "<svg>a</svg>" {
		t.Fatalf("got %q", r.SVG)
	}
	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	if _, ok := <-s.Results(); ok {
		t.Error("results still open after Close")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{{LaTeX: "a"}, {LaTeX: "b"}, {LaTeX: "c"}}
	res, err := RenderAll(ctx, sleepy{}, jobs, StreamConfig{Concurrency: 1})
	if len(res) < len(jobs) && !errors.Is(err, context.Canceled) {
		t.Errorf("got %d results and err %v", len(res), err)
	}
}
