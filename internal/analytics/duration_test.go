package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00:00"},
		{name: "minutes and seconds", seconds: 95, want: "0:01:35"},
		{name: "over an hour", seconds: 3661, want: "1:01:01"},
		{name: "fraction truncated", seconds: 59.9, want: "0:00:59"},
		{name: "hours are unbounded", seconds: 100 * 3600, want: "100:00:00"},
		{name: "negative", seconds: -1, want: NotAvailable},
		{name: "nan", seconds: math.NaN(), want: NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestFormatOptionalDuration(t *testing.T) {
	assert.Equal(t, NotAvailable, FormatOptionalDuration(nil))

	secs := int64(3661)
	assert.Equal(t, "1:01:01", FormatOptionalDuration(&secs))
}
