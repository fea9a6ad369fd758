package relay

import (
	"errors"
	"testing"
)

func TestIsTerminalErrorClassification(t *testing.T) {
	cases := []struct {
		err      error
		terminal bool
	}{
		{errors.New("invalid account data"), true},
		{errors.New("proof verification failed"), true},
		{errors.New("connection refused"), false},
		{errors.New("timeout waiting for confirmation"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := isTerminalError(c.err); got != c.terminal {
			t.Errorf("isTerminalError(%v) = %v, want %v", c.err, got, c.terminal)
		}
	}
}

func TestIsAlreadyProcessedClassification(t *testing.T) {
	if !IsAlreadyProcessed(errors.New("transaction already processed")) {
		t.Fatal("expected already-processed error to be classified as idempotent success")
	}
	if !IsAlreadyProcessed(errors.New("DoubleSpend")) {
		t.Fatal("expected DoubleSpend error to be classified as idempotent success")
	}
	if IsAlreadyProcessed(errors.New("insufficient funds")) {
		t.Fatal("unrelated error misclassified as already-processed")
	}
}
