package util

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationBuilder(t *testing.T) {
	v := &ValidationBuilder{}
	if v.HasErrors() {
		t.Error("empty builder should have no errors")
	}
	if err := v.Build(); err != nil {
		t.Errorf("Build() = %v, want nil", err)
	}

	v.Add(true, "should not appear")
	v.Add(false, "first problem")
	v.AddErrorf("second problem: %s", "details")

	if !v.HasErrors() {
		t.Error("builder should have errors")
	}
	err := v.Build()
	if err == nil {
		t.Fatal("Build() = nil, want error")
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("error should unwrap to ErrValidationFailed, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "first problem") || !strings.Contains(msg, "second problem: details") {
		t.Errorf("error message missing entries: %q", msg)
	}
	if strings.Contains(msg, "should not appear") {
		t.Errorf("conditional message leaked into error: %q", msg)
	}
}

func TestValidationErrorSingle(t *testing.T) {
	err := (&ValidationError{Errors: []string{"only one"}}).Error()
	if err != "validation failed: only one" {
		t.Errorf("single-message format = %q", err)
	}
}
