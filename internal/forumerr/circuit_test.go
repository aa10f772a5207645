package forumerr

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("encoder", WithMaxFailures(2), WithResetTimeout(50*time.Millisecond))

	failing := func() error { return errors.New("encoder timeout") }

	_ = cb.Execute(failing)
	_ = cb.Execute(failing)

	if cb.State() != StateOpen {
		t.Fatalf("expected circuit to be open after 2 failures, got %s", cb.State())
	}

	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("encoder", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond))

	_ = cb.Execute(func() error { return errors.New("fail") })
	if cb.State() != StateOpen {
		t.Fatal("expected circuit to open after first failure")
	}

	time.Sleep(20 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after reset timeout, got %s", cb.State())
	}

	err := cb.Execute(func() error { return nil })
	if err != nil {
		t.Fatalf("expected half-open trial to succeed, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected circuit to close after successful trial, got %s", cb.State())
	}
}

func TestExecuteWithResultFallsBackWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker("encoder", WithMaxFailures(1), WithResetTimeout(time.Minute))
	_ = cb.Execute(func() error { return errors.New("fail") })

	result, err := ExecuteWithResult(cb,
		func() ([]float32, error) { return []float32{1}, nil },
		func() ([]float32, error) { return nil, errors.New("fallback used") },
	)
	if err == nil {
		t.Fatal("expected fallback error when circuit is open")
	}
	if result != nil {
		t.Errorf("expected nil result from fallback, got %v", result)
	}
}
