package graph

import (
	"testing"

	"codegraph/internal/core/errors"
)

func TestStoreAddGetLatest(t *testing.T) {
	s := NewStore()
	if s.Latest() != nil {
		t.Error("empty store should have no latest result")
	}

	first := &ScanResult{ID: "scan-1", Root: "/repo"}
	second := &ScanResult{ID: "scan-2", Root: "/repo"}
	s.Add(first)
	s.Add(second)

	got, err := s.Get("scan-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != first {
		t.Error("Get returned a different result")
	}

	if s.Latest() != second {
		t.Error("Latest should return the most recent result")
	}

	// Both snapshots coexist; adding a scan never mutates an earlier one.
	list := s.List()
	if len(list) != 2 || list[0] != first || list[1] != second {
		t.Errorf("List = %v, want insertion order", list)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore()
	_, err := s.Get("missing")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("error = %v, want CodeNotFound", err)
	}
}
