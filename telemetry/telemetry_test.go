package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Fatalf("expected empty corr, got %q", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Fatalf("GetCorrelation = %q, want abc-123", got)
	}
}

func TestSetupLoggerJSONWithCorr(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupLogger(&buf, "debug", "json")

	ctx := WithCorrelation(context.Background(), "corr-1")
	LoggerWithCorr(ctx).Debug("hello", slog.String("guild", "g1"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one json record, got %q: %v", buf.String(), err)
	}
	if rec["corr"] != "corr-1" || rec["guild"] != "g1" || rec["msg"] != "hello" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestSetupLoggerUnknownLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupLogger(&buf, "loud", "text")
	if !strings.Contains(buf.String(), "unknown LOG_LEVEL") {
		t.Fatalf("expected warning about unknown level, got %q", buf.String())
	}
	slog.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug must be filtered at default info level")
	}
}

func TestSetGatewayUp(t *testing.T) {
	SetGatewayUp(true)
	if v := testutil.ToFloat64(GatewayUp); v != 1 {
		t.Fatalf("gateway gauge = %v, want 1", v)
	}
	if !GatewayConnected() {
		t.Fatal("GatewayConnected should follow SetGatewayUp")
	}
	SetGatewayUp(false)
	if v := testutil.ToFloat64(GatewayUp); v != 0 {
		t.Fatalf("gateway gauge = %v, want 0", v)
	}
	if GatewayConnected() {
		t.Fatal("GatewayConnected should be false after disconnect")
	}
}

func TestTimeFuncNilObserver(t *testing.T) {
	d := TimeFunc(nil, func() { time.Sleep(5 * time.Millisecond) })
	if d < 5*time.Millisecond {
		t.Fatalf("TimeFunc measured %v, want >= 5ms", d)
	}
}
