package processor

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestParseDuration_HeaderLine(t *testing.T) {
	got, err := ParseDuration("  Duration: 00:05:23.45, start: 0.000000, bitrate: 317 kb/s\n")
	if err != nil {
		t.Fatalf("ParseDuration() error: %v", err)
	}
	want := 5*60 + 23.45
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("ParseDuration() = %v, want %v", got, want)
	}
}

func TestParseDuration_ProgressFallback(t *testing.T) {
	trace := "size= 1024kB time=00:00:10.00 bitrate= 838.9kbits/s\n" +
		"size= 2048kB time=00:01:02.50 bitrate= 268.4kbits/s\n"

	got, err := ParseDuration(trace)
	if err != nil {
		t.Fatalf("ParseDuration() error: %v", err)
	}
	if math.Abs(got-62.5) > 1e-9 {
		t.Fatalf("ParseDuration() = %v, want 62.5 (last progress stamp)", got)
	}
}

func TestParseDuration_Missing(t *testing.T) {
	_, err := ParseDuration("no duration markers here\n")

	var parseErr *TraceParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected TraceParseError, got %v", err)
	}
}

func TestProbeDuration(t *testing.T) {
	tool := &fakeTool{out: "Duration: 01:02:03.50, start: 0.0\n"}

	got, err := ProbeDuration(context.Background(), tool, "in.mkv")
	if err != nil {
		t.Fatalf("ProbeDuration() error: %v", err)
	}
	want := 1*3600 + 2*60 + 3.5
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("ProbeDuration() = %v, want %v", got, want)
	}
}

func TestProbeDuration_ToolFailure(t *testing.T) {
	tool := &fakeTool{err: errors.New("exec: not found")}

	_, err := ProbeDuration(context.Background(), tool, "in.mkv")

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
}

func TestProbeDuration_UnparsableTrace(t *testing.T) {
	// A trace with no duration must fail loudly, never default to zero.
	tool := &fakeTool{out: "in.mkv: Invalid data found when processing input\n"}

	_, err := ProbeDuration(context.Background(), tool, "in.mkv")

	var parseErr *TraceParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected TraceParseError, got %v", err)
	}
}
