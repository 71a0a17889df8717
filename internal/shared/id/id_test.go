package id

import (
	"strings"
	"testing"
)

func TestSessionIDPrefix(t *testing.T) {
	sid := NewSessionID()
	if !strings.HasPrefix(sid.String(), "sess_") {
		t.Errorf("expected sess_ prefix, got %s", sid)
	}
	if !IsValid(sid.String(), SessionPrefix) {
		t.Errorf("generated id should validate: %s", sid)
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[SessionID]bool)
	for i := 0; i < 1000; i++ {
		sid := NewSessionID()
		if seen[sid] {
			t.Fatalf("duplicate id generated: %s", sid)
		}
		seen[sid] = true
	}
}

func TestIsValidRejectsWrongPrefix(t *testing.T) {
	rid := NewRequestID()
	if IsValid(rid.String(), SessionPrefix) {
		t.Error("request id should not validate as session id")
	}
	if IsValid("sess_notaulid", SessionPrefix) {
		t.Error("malformed ULID should not validate")
	}
	if IsValid("", SessionPrefix) {
		t.Error("empty string should not validate")
	}
}
