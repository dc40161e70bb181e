package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/gopipe/errors"
)

type pipelineSection struct {
	Name     string `mapstructure:"name" validate:"omitempty,max=8"`
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info"`
}

type document struct {
	Service  string          `mapstructure:"service" validate:"required"`
	Pipeline pipelineSection `mapstructure:"pipeline"`
}

func TestValidatorRequired(t *testing.T) {
	if New().Required("name", "John").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("name", "").HasErrors() {
		t.Error("expected error for empty required field")
	}
	if !New().Required("name", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"sync", "async"}
	if New().OneOf("mode", "", allowed).HasErrors() {
		t.Error("empty value should be skipped")
	}
	if New().OneOf("mode", "sync", allowed).HasErrors() {
		t.Error("expected allowed value to pass")
	}
	v := New().OneOf("mode", "parallel", allowed)
	if !v.HasErrors() {
		t.Fatal("expected error for disallowed value")
	}
	if !strings.Contains(v.Errors()[0].Message, "sync, async") {
		t.Errorf("unexpected message %q", v.Errors()[0].Message)
	}
}

func TestValidatorMaxLengthAndCustom(t *testing.T) {
	v := New().MaxLength("name", "abcdef", 3).Custom(false, "history", "must not be empty")
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", v.Errors())
	}
}

func TestValidatorValidate_NilWhenClean(t *testing.T) {
	if err := New().Required("name", "ok").Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidatorValidate_CodedError(t *testing.T) {
	err := New().Required("name", "").Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	e, ok := errors.AsError(err)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Code != errors.ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %s", e.Code)
	}
	fields, ok := e.Details["fields"].([]FieldError)
	if !ok || len(fields) != 1 || fields[0].Field != "name" {
		t.Errorf("unexpected details %v", e.Details)
	}
}

func TestValidate_StructTags(t *testing.T) {
	ok := document{Service: "svc", Pipeline: pipelineSection{Name: "short", LogLevel: "debug"}}
	if err := Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := document{Pipeline: pipelineSection{Name: "much-too-long", LogLevel: "loud"}}
	err := Validate(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"service: is required",
		"pipeline.name: must be at most 8",
		"pipeline.log_level: must be one of: debug info",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG code, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"UsePipeError": "use_pipe_error",
		"Name":         "name",
		"name":         "name",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
