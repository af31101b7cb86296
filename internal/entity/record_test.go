package entity

import (
	"errors"
	"testing"
)

func TestIdentityRejectsSeparatorInPartitionKey(t *testing.T) {
	a := NewIdentity("lat", "a-b")
	b := NewIdentity("lat-a", "b")

	if err := a.Validate(); err != nil {
		t.Fatalf("word with separator must be valid: %v", err)
	}
	if err := b.Validate(); !errors.Is(err, ErrInvalidWordItem) {
		t.Fatalf("expected invalid partition key, got %v", err)
	}
	if err := ValidatePartitionKey(""); !errors.Is(err, ErrInvalidWordItem) {
		t.Fatalf("expected empty partition key to be rejected, got %v", err)
	}
	if got := a.String(); got != "lat-a-b" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestWordItemValidateChecksPartitionKey(t *testing.T) {
	if err := NewWordItem("lat-a", "b").Validate(); !errors.Is(err, ErrInvalidWordItem) {
		t.Fatalf("expected invalid word item, got %v", err)
	}
	if err := NewWordItem(" LAT ", "mare").Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
