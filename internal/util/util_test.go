package util

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFormatThousands(t *testing.T) {
	tests := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		123456:     "123,456",
		1234567:    "1,234,567",
		-9876543:   "-9,876,543",
		-100:       "-100",
		1000000000: "1,000,000,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatThousands(in), "input %d", in)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "호로라...", TruncateString("호로라이브", 3))
}

func TestSplitCommaSeparated(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitCommaSeparated(" a, ,b ,"))
	assert.Empty(t, SplitCommaSeparated(""))
}

func TestNextQuotaReset(t *testing.T) {
	// 2024-07-01 10:00 UTC is 03:00 PDT, next reset is 2024-07-02 00:00 PDT
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	reset := NextQuotaReset(now)

	assert.Equal(t, time.Date(2024, 7, 2, 7, 0, 0, 0, time.UTC), reset.UTC())
	assert.True(t, reset.After(now))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 1, 2, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	assert.Equal(t, "2024-01-03", FormatDate(ts))
}

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "analyzer.log")

	logger, err := NewLogger("debug", path, "json")
	require.NoError(t, err)
	logger.Info("hello", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	assert.FileExists(t, path)
}

func TestNewLoggerTo_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, "warn", "console")

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "kept")
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute, nil).WithClock(func() time.Time { return now })

	cb.RecordFailure(0)
	assert.True(t, cb.CanExecute())

	cb.RecordFailure(0)
	assert.False(t, cb.CanExecute())
	status := cb.GetStatus()
	require.NotNil(t, status.NextRetryTime)
	assert.Equal(t, now.Add(time.Minute), *status.NextRetryTime)

	now = now.Add(time.Minute)
	assert.Equal(t, CircuitStateHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, cb.GetState())
	assert.Zero(t, cb.GetStatus().FailureCount)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(5, time.Second, nil).WithClock(func() time.Time { return now })

	cb.OpenUntil(now.Add(time.Hour))
	assert.False(t, cb.CanExecute())

	now = now.Add(time.Hour)
	assert.Equal(t, CircuitStateHalfOpen, cb.GetState())

	cb.RecordFailure(10 * time.Second)
	assert.Equal(t, CircuitStateOpen, cb.GetState())

	cb.Reset()
	assert.True(t, cb.CanExecute())
}
