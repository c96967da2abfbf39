package main

import (
	"errors"
	"testing"

	"github.com/ignite/inbox-agent/internal/store"
)

func TestTriageExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", store.ErrNotFound, exitStorageError},
		{"wrapped storage error", &store.StorageError{Op: "put decision", Err: store.ErrNotFound}, exitStorageError},
		{"anything else", errors.New("boom"), exitStorageError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := triageExitCode(tc.err); got != tc.want {
				t.Errorf("triageExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
