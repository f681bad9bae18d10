package maintenancecmd

import (
	"context"
	"testing"
)

type countingPruner struct {
	calls int
}

func (p *countingPruner) Prune() int {
	p.calls++
	return 3
}

func TestPruneHandlerRunsFromCron(t *testing.T) {
	pruner := &countingPruner{}
	handler := NewPruneRateLimitsHandler(pruner, nil, "")

	if got := handler.CronOptions().Expression; got != DefaultPruneExpression {
		t.Fatalf("expected default expression, got %q", got)
	}
	if err := handler.CronHandler()(); err != nil {
		t.Fatalf("cron run: %v", err)
	}
	if err := handler.Execute(context.Background(), PruneRateLimitsCommand{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if pruner.calls != 2 {
		t.Fatalf("expected two prune calls, got %d", pruner.calls)
	}
}

func TestPruneHandlerHonoursExpression(t *testing.T) {
	handler := NewPruneRateLimitsHandler(&countingPruner{}, nil, " @hourly ")
	if got := handler.CronOptions().Expression; got != "@hourly" {
		t.Fatalf("expected configured expression, got %q", got)
	}
}
