package injection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLogSeverity_String tests level names
func TestLogSeverity_String(t *testing.T) {
	assert.Equal(t, "ERROR", SeverityError.String())
	assert.Equal(t, "WARN", SeverityWarn.String())
	assert.Equal(t, "INFO", SeverityInfo.String())
	assert.Equal(t, "DEBUG", SeverityDebug.String())
	assert.Equal(t, "UNKNOWN", LogSeverity(42).String())
}

// TestParseSeverity tests config string mapping, defaulting to Warn
func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityNone, ParseSeverity("none"))
	assert.Equal(t, SeverityError, ParseSeverity("error"))
	assert.Equal(t, SeverityWarn, ParseSeverity("warn"))
	assert.Equal(t, SeverityWarn, ParseSeverity("warning"))
	assert.Equal(t, SeverityInfo, ParseSeverity("info"))
	assert.Equal(t, SeverityDebug, ParseSeverity("debug"))
	assert.Equal(t, SeverityWarn, ParseSeverity("garbage"))
	assert.Equal(t, SeverityWarn, ParseSeverity(""))
}
