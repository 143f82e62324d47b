package recovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestStrictStrategy(t *testing.T) {
	s := NewStrictStrategy()
	if a := s.OnError(context.Background(), errors.New("boom"), Location{Component: "parser"}); a != ActionFail {
		t.Fatalf("expected fail, got %v", a)
	}
}

func TestLenientStrategy(t *testing.T) {
	s := NewLenientStrategy()
	loc := Location{Line: 1, Column: 4, Component: "parser", Name: `\foo`}
	if a := s.OnError(context.Background(), errors.New("undefined"), loc); a != ActionWarn {
		t.Fatalf("expected warn, got %v", a)
	}
	errs := s.Collected()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !strings.Contains(errs[0].Error(), "[parser] line 1, column 4") {
		t.Fatalf("unexpected message: %v", errs[0])
	}
	s.Reset()
	if len(s.Collected()) != 0 {
		t.Fatal("expected no errors after Reset")
	}
}

func TestLenientStrategy_Concurrent(t *testing.T) {
	s := NewLenientStrategy()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.OnError(context.Background(), errors.New("x"), Location{Component: "parser"})
			}
		}()
	}
	wg.Wait()
	if n := len(s.Collected()); n != 400 {
		t.Fatalf("expected 400 errors, got %d", n)
	}
}
