package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"taskhub/pkg/metrics"
)

func TestSlowQueryTracerLogsSlowQueries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tracer := NewSlowQueryTracer(zap.New(core), 50*time.Millisecond)

	now := time.Unix(0, 0)
	tracer.now = func() time.Time { return now }

	before := testutil.ToFloat64(metrics.SlowQueryCount.WithLabelValues("SELECT"))

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "select * from notifications"})
	now = now.Add(80 * time.Millisecond)
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 1")})

	if logs.Len() != 1 {
		t.Fatalf("expected 1 slow-query log, got %d", logs.Len())
	}
	if got := testutil.ToFloat64(metrics.SlowQueryCount.WithLabelValues("SELECT")) - before; got != 1 {
		t.Errorf("expected slow query counter +1, got %v", got)
	}
}

func TestSlowQueryTracerIgnoresFastQueries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tracer := NewSlowQueryTracer(zap.New(core), 50*time.Millisecond)

	now := time.Unix(0, 0)
	tracer.now = func() time.Time { return now }

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "select 1"})
	now = now.Add(10 * time.Millisecond)
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	if logs.Len() != 0 {
		t.Errorf("expected no logs, got %d", logs.Len())
	}
}

func TestCommandOf(t *testing.T) {
	if got := commandOf("  insert into x values (1)"); got != "INSERT" {
		t.Errorf("got %q", got)
	}
	if got := commandOf(""); got != "unknown" {
		t.Errorf("got %q", got)
	}
}
