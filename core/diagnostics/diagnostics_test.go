package diagnostics

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestListRecordsAndCounts(t *testing.T) {
	var l List
	l.Warn(CodeMalformedNumber, "retail.rate", "could not parse %q, using 0", "abc")
	l.Info(CodeChannelUnavailable, "market", "no usable price, channel excluded")

	var more List
	more.Warn(CodeMissingPrice, "血晶", "no price, using 0")
	l.Extend(more)

	if len(l) != 3 {
		t.Fatalf("Expected 3 diagnostics, got %d", len(l))
	}
	if l.Count(SeverityWarning) != 2 || l.Count(SeverityInfo) != 1 {
		t.Errorf("Unexpected counts: %d warnings, %d info", l.Count(SeverityWarning), l.Count(SeverityInfo))
	}
	if !l.Has(CodeMissingPrice) || l.Has(CodeRateUndefined) {
		t.Error("Has reported the wrong codes")
	}

	want := `malformed_number [retail.rate]: could not parse "abc", using 0`
	if got := l[0].String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if got := (Diagnostic{Code: CodeRateUndefined, Message: "none"}).String(); got != "rate_undefined: none" {
		t.Errorf("Unexpected string %q", got)
	}
}

func TestListLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var l List
	l.Warn(CodeNegativeValue, "秘銀礦", "clamped to 0")
	l.Info(CodeInvalidQuantity, "quantity", "raised to 1")
	l.Log(zap.New(core))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[1].Level != zapcore.DebugLevel {
		t.Errorf("Unexpected levels %s, %s", entries[0].Level, entries[1].Level)
	}
	if entries[0].ContextMap()["code"] != string(CodeNegativeValue) {
		t.Errorf("Expected code field, got %v", entries[0].ContextMap())
	}

	// nil logger is a no-op
	l.Log(nil)
}
