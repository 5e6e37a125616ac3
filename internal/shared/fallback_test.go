package shared_test

import (
	"context"
	"errors"
	"testing"

	"spot_explorer/internal/shared"
)

func constTier(name, v string, err error) shared.Tier[string] {
	return shared.Tier[string]{
		Name:  name,
		Fetch: func(context.Context) (string, error) { return v, err },
		Empty: func(s string) bool { return s == "" },
	}
}

func TestFirstOf_StopsAtFirstNonEmpty(t *testing.T) {
	called := false
	third := shared.Tier[string]{
		Name:  "third",
		Fetch: func(context.Context) (string, error) { called = true; return "late", nil },
	}

	v, out := shared.FirstOf(context.Background(),
		constTier("first", "", errors.New("boom")),
		constTier("second", "hit", nil),
		third,
	)

	if v != "hit" || out.Status != shared.StatusFound || out.Source != "second" {
		t.Fatalf("unexpected result %q %+v", v, out)
	}
	if called {
		t.Fatalf("third tier should not run")
	}
	if len(out.Attempts) != 2 || out.Attempts[0].Status != shared.StatusFailed {
		t.Fatalf("unexpected attempts: %+v", out.Attempts)
	}
}

func TestFirstOf_AllFailed(t *testing.T) {
	v, out := shared.FirstOf(context.Background(),
		constTier("a", "", errors.New("x")),
		constTier("b", "", errors.New("y")),
	)
	if v != "" || out.Status != shared.StatusFailed {
		t.Fatalf("want failed, got %q %+v", v, out)
	}
	if out.Err() == nil || out.Err().Error() != "y" {
		t.Fatalf("want last error y, got %v", out.Err())
	}
}

func TestFirstOf_EmptyWhenAnyTierAnsweredEmpty(t *testing.T) {
	_, out := shared.FirstOf(context.Background(),
		constTier("a", "", errors.New("x")),
		constTier("b", "", nil),
	)
	if out.Status != shared.StatusEmpty {
		t.Fatalf("want empty, got %s", out.Status)
	}
}

func TestFirstOf_PanicIsFailure(t *testing.T) {
	p := shared.Tier[string]{
		Name:  "panics",
		Fetch: func(context.Context) (string, error) { panic("nil map") },
	}
	v, out := shared.FirstOf(context.Background(), p, constTier("ok", "fine", nil))
	if v != "fine" || out.Attempts[0].Status != shared.StatusFailed {
		t.Fatalf("panic not contained: %q %+v", v, out)
	}
}

func TestFirstOf_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, out := shared.FirstOf(ctx, constTier("a", "v", nil))
	if out.Status != shared.StatusFailed || !errors.Is(out.Err(), context.Canceled) {
		t.Fatalf("want cancelled failure, got %+v", out)
	}
}
