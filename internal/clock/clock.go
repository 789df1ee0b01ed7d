// Package clock formats and parses the wire timestamp format spec §6
// mandates (YYYY:MM:DD:HH:MM:SS, UTC, exact width) and provides Now, the
// second-resolution UTC clock components stamp writes with. Now is a plain
// function; this package offers no way to substitute a fixed time in tests.
package clock

import (
	"fmt"
	"time"
)

const layout = "2006:01:02:15:04:05"

// Now returns the current UTC time truncated to second resolution, matching
// the wire format's precision so a round-trip through the wire never drifts.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Format renders t in the wire's fixed-width UTC format.
func Format(t time.Time) string {
	return t.UTC().Format(layout)
}

// Parse reads the wire's fixed-width UTC format. It rejects any input that
// is not exactly the expected width — spec §6: "Parsers accept exact width."
func Parse(s string) (time.Time, error) {
	if len(s) != len(layout) {
		return time.Time{}, fmt.Errorf("clock: timestamp %q has wrong width, want %d chars", s, len(layout))
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock: parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Zero is the sentinel timestamp used for a peer `get` miss reply
// ("0" VALUE="" TIMESTAMP=0 in wire form, see spec §4.5).
var Zero = time.Time{}

// FormatOrZero renders t, or the literal "0" if t is the zero Time — the
// miss-timestamp wire representation a peer `get` reply uses in place of a
// real timestamp (spec §4.5).
func FormatOrZero(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return Format(t)
}
