package connector

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_AreDistinguishableViaErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("gmail: rate limited: %w", ErrTransient)

	if !errors.Is(wrapped, ErrTransient) {
		t.Fatal("expected wrapped error to match ErrTransient via errors.Is")
	}
	if errors.Is(wrapped, ErrPermanent) {
		t.Fatal("expected wrapped ErrTransient to not match ErrPermanent")
	}
}

func TestSentinelErrors_AreDistinctValues(t *testing.T) {
	all := []error{ErrAuth, ErrNotFound, ErrTransient, ErrPermanent}
	for i := range all {
		for j := range all {
			if i == j {
				continue
			}
			if errors.Is(all[i], all[j]) {
				t.Fatalf("expected sentinel errors to be distinct, %v matched %v", all[i], all[j])
			}
		}
	}
}
