package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParse_RoundTrip(t *testing.T) {
	in := time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)
	s := Format(in)
	assert.Equal(t, "2026:07:30:14:05:09", s)

	out, err := Parse(s)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
}

func TestParse_RejectsWrongWidth(t *testing.T) {
	_, err := Parse("2026:07:30:14:05:9")
	assert.Error(t, err)

	_, err = Parse("2026:07:30:14:05:009")
	assert.Error(t, err)
}

func TestFormatOrZero(t *testing.T) {
	assert.Equal(t, "0", FormatOrZero(Zero))
	assert.Equal(t, "0", FormatOrZero(time.Time{}))

	in := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Format(in), FormatOrZero(in))
}

func TestNow_TruncatedToSecond(t *testing.T) {
	now := Now()
	assert.Equal(t, 0, now.Nanosecond())
	assert.Equal(t, time.UTC, now.Location())
}
