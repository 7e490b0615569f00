package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCodeThroughFmtWrapping(t *testing.T) {
	cause := stdErrors.New("dial tcp: connection refused")
	err := fmt.Errorf("查询余额: %w", Wrap(CodeChainFailure, cause, "调用 balanceOf 失败"))

	if got := CodeOf(err); got != CodeChainFailure {
		t.Fatalf("unexpected code %s", got)
	}
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if !stdErrors.Is(err, New(CodeChainFailure, "")) {
		t.Fatalf("expected errors.Is to match on code")
	}
	e, _ := From(err)
	if e.Cause() != cause.Error() {
		t.Fatalf("unexpected cause text %q", e.Cause())
	}
}

func TestDefaultsFromRegistry(t *testing.T) {
	err := New(CodeStorageFailure, "")
	if err.Message() != "storage failure" {
		t.Fatalf("expected default message, got %q", err.Message())
	}
	if !err.Retryable() || !err.ShouldAlert() {
		t.Fatalf("storage failures should be retryable and alerting")
	}
	if RetryableError(New(CodeChainFailure, "x")) {
		t.Fatalf("chain failures must not be retried automatically")
	}
	if got := SeverityOf(stdErrors.New("plain")); got != SeverityCritical {
		t.Fatalf("unknown errors should be critical, got %s", got)
	}
}

func TestOptionsOverrideAttributes(t *testing.T) {
	err := New(CodeValidation, "金额格式错误",
		WithSeverity(SeverityWarning),
		WithRetryable(true),
		WithMetadata("field", "amount"),
	)
	if err.Severity() != SeverityWarning || !err.Retryable() {
		t.Fatalf("options not applied: %+v", err)
	}
	md := err.Metadata()
	md["field"] = "changed"
	if err.Metadata()["field"] != "amount" {
		t.Fatalf("metadata must be returned as a copy")
	}
}

func TestRegisterCustomCode(t *testing.T) {
	const code Code = "TEST_CUSTOM"
	Register(code, Attributes{Message: "custom", Severity: SeverityInfo})
	if AttributesOf(code).Message != "custom" {
		t.Fatalf("custom code not registered")
	}
	if AttributesOf("MISSING").Message != AttributesOf(CodeUnknown).Message {
		t.Fatalf("unregistered codes should fall back to UNKNOWN")
	}
}
