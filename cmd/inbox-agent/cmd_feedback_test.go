package main

import (
	"testing"

	"github.com/ignite/inbox-agent/internal/domain"
)

func TestIsValidBucket(t *testing.T) {
	valid := []domain.Bucket{
		domain.BucketPriorityInbox,
		domain.BucketRegularInbox,
		domain.BucketAutoArchive,
		domain.BucketSpamFolder,
	}
	for _, b := range valid {
		if !isValidBucket(b) {
			t.Errorf("isValidBucket(%q) = false, want true", b)
		}
	}

	invalid := []domain.Bucket{"", "bogus_bucket", "priority_inbox"}
	for _, b := range invalid {
		if isValidBucket(b) {
			t.Errorf("isValidBucket(%q) = true, want false", b)
		}
	}
}
