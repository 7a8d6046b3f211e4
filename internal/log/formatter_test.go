package log

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(data logrus.Fields) *logrus.Entry {
	l := logrus.New()
	e := logrus.NewEntry(l)
	e.Time = time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	e.Level = logrus.InfoLevel
	e.Message = "registrar: started"
	e.Data = data
	return e
}

func TestFormatter_Format_SubstitutesTimeLevelMsgAndFields(t *testing.T) {
	f := &formatter{pattern: "%time [%level] %field: %msg", time: "2006-01-02"}
	line, err := f.Format(newEntry(logrus.Fields{"call_id": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, "2026-07-30 [info] call_id=abc: registrar: started\n", string(line))
}

func TestFormatter_Format_AppendsTrailingNewline(t *testing.T) {
	f := &formatter{pattern: "%msg", time: "2006-01-02"}
	line, err := f.Format(newEntry(nil))
	require.NoError(t, err)
	assert.True(t, len(line) > 0 && line[len(line)-1] == '\n', "Format must terminate the line so entries don't run together")
}

func TestBuildFields_OrdersKeysDeterministically(t *testing.T) {
	entry := newEntry(logrus.Fields{"zeta": 1, "alpha": 2, "mu": "three"})
	assert.Equal(t, "alpha=2,mu=three,zeta=1", buildFields(entry))
}

func TestBuildFields_EmptyDataYieldsEmptyString(t *testing.T) {
	assert.Equal(t, "", buildFields(newEntry(nil)))
}

func TestCallerFunc_FallsBackToUnknownWithoutCaller(t *testing.T) {
	// ReportCaller defaults to false on a fresh logrus.Logger, so
	// entry.HasCaller() is false and the runtime.Caller fallback takes
	// over; it still must not panic and must return some parseable name.
	assert.NotPanics(t, func() {
		_ = callerFunc(newEntry(nil))
		_ = callerLocation(newEntry(nil))
	})
}
