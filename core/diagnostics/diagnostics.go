// Package diagnostics records fail-soft degradations made while evaluating.
// The engine never fails on malformed or missing user data; instead it
// substitutes a neutral value and records what it did here so that callers
// can surface it.
package diagnostics

import (
	"fmt"

	"go.uber.org/zap"
)

// Severity of a diagnostic
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Code identifies the kind of degradation
type Code string

const (
	// CodeMalformedNumber means a numeric string could not be parsed and 0 was used
	CodeMalformedNumber Code = "malformed_number"

	// CodeMissingPrice means a material had no price and 0 was used
	CodeMissingPrice Code = "missing_price"

	// CodeNegativeValue means a negative quantity or price was clamped to 0
	CodeNegativeValue Code = "negative_value"

	// CodeInvalidQuantity means a production quantity below 1 was raised to 1
	CodeInvalidQuantity Code = "invalid_quantity"

	// CodeRateUndefined means no positive exchange rate was available
	CodeRateUndefined Code = "rate_undefined"

	// CodeChannelUnavailable means a channel had no usable price
	CodeChannelUnavailable Code = "channel_unavailable"

	// CodeSkippedRow means a recipe book row lacked a key column and was ignored
	CodeSkippedRow Code = "skipped_row"

	// CodeMissingColumn means an optional recipe book column was absent and 0 was used
	CodeMissingColumn Code = "missing_column"
)

// Diagnostic is a single recorded degradation
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`

	// Subject names the input the diagnostic is about (material, field, channel)
	Subject string `json:"subject,omitempty"`

	Message string `json:"message"`
}

// String renders the diagnostic on one line
func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Code, d.Subject, d.Message)
}

// List is an ordered collection of diagnostics. The zero value is ready to use.
type List []Diagnostic

// Warn appends a warning
func (l *List) Warn(code Code, subject, format string, args ...interface{}) {
	*l = append(*l, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Info appends an informational note
func (l *List) Info(code Code, subject, format string, args ...interface{}) {
	*l = append(*l, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Extend appends all of other
func (l *List) Extend(other List) {
	*l = append(*l, other...)
}

// Has reports whether a diagnostic with code exists
func (l List) Has(code Code) bool {
	for _, d := range l {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics with the given severity
func (l List) Count(s Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Log writes each diagnostic to logger, warnings at warn level.
func (l List) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}
	for _, d := range l {
		fields := []zap.Field{
			zap.String("code", string(d.Code)),
			zap.String("subject", d.Subject),
		}
		if d.Severity == SeverityWarning {
			logger.Warn(d.Message, fields...)
		} else {
			logger.Debug(d.Message, fields...)
		}
	}
}
