package shared

import (
	"context"
	"fmt"
)

type Status string

const (
	StatusFound  Status = "found"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Tier is one strategy in an ordered fallback chain.
type Tier[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
	// Empty reports whether a successful fetch still produced nothing usable.
	// nil means "never empty".
	Empty func(T) bool
}

type Attempt struct {
	Tier   string
	Status Status
	Err    error
}

// Outcome summarizes a chain run. Source is the tier that produced the value.
type Outcome struct {
	Status   Status
	Source   string
	Attempts []Attempt
}

// FirstOf runs tiers in order and returns the first non-empty value.
// A panicking tier counts as failed. Status is failed only when every
// attempted tier failed.
func FirstOf[T any](ctx context.Context, tiers ...Tier[T]) (T, Outcome) {
	var zero T
	out := Outcome{Status: StatusEmpty}
	failed := 0

	for _, t := range tiers {
		if err := ctx.Err(); err != nil {
			out.Attempts = append(out.Attempts, Attempt{Tier: t.Name, Status: StatusFailed, Err: err})
			failed++
			break
		}
		v, err := runTier(ctx, t)
		switch {
		case err != nil:
			out.Attempts = append(out.Attempts, Attempt{Tier: t.Name, Status: StatusFailed, Err: err})
			failed++
		case t.Empty != nil && t.Empty(v):
			out.Attempts = append(out.Attempts, Attempt{Tier: t.Name, Status: StatusEmpty})
		default:
			out.Attempts = append(out.Attempts, Attempt{Tier: t.Name, Status: StatusFound})
			out.Status = StatusFound
			out.Source = t.Name
			return v, out
		}
	}

	if failed > 0 && failed == len(out.Attempts) {
		out.Status = StatusFailed
	}
	return zero, out
}

func runTier[T any](ctx context.Context, t Tier[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tier %s panicked: %v", t.Name, r)
		}
	}()
	return t.Fetch(ctx)
}

// Err returns the last attempt error, if any.
func (o Outcome) Err() error {
	for i := len(o.Attempts) - 1; i >= 0; i-- {
		if o.Attempts[i].Err != nil {
			return o.Attempts[i].Err
		}
	}
	return nil
}
