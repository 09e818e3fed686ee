package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":         ErrorQuota,
		"429 rate":                   ErrorRate,
		"Rate limit reached":         ErrorRate,
		"groq key missing for alias": ErrorQuota,
		"failed to generate":         ErrorPermanent,
		"maximum context length hit": ErrorContext,
		"prompt too long":            ErrorContext,
		"timeout":                    ErrorTransient,
		"groq chat error 503: busy":  ErrorTransient,
		"bad request":                ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestClassifyContextErrors(t *testing.T) {
	if got := ClassifyError(fmt.Errorf("send: %w", context.Canceled)); got != ErrorCanceled {
		t.Fatalf("canceled: got %s", got)
	}
	if got := ClassifyError(fmt.Errorf("send: %w", context.DeadlineExceeded)); got != ErrorTransient {
		t.Fatalf("deadline: got %s", got)
	}
	if ErrorCanceled.Fallthrough() || ErrorPermanent.Fallthrough() {
		t.Fatalf("canceled and permanent errors must not fall through")
	}
	if !ErrorRate.Fallthrough() {
		t.Fatalf("rate errors fall through")
	}
}
