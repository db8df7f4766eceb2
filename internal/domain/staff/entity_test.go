package staff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestShiftWindowBounds(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("day shift", func(t *testing.T) {
		w := ShiftWindow{Location: jakarta, StartMinute: 9 * 60, EndMinute: 17 * 60}
		start, end := w.Bounds(day)
		assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, jakarta), start)
		assert.Equal(t, time.Date(2025, 3, 10, 17, 0, 0, 0, jakarta), end)
		assert.False(t, w.IsOvernight())
	})

	t.Run("overnight shift ends next day", func(t *testing.T) {
		w := ShiftWindow{Location: jakarta, StartMinute: 22 * 60, EndMinute: 6 * 60}
		start, end := w.Bounds(day)
		assert.True(t, w.IsOvernight())
		assert.Equal(t, time.Date(2025, 3, 10, 22, 0, 0, 0, jakarta), start)
		assert.Equal(t, time.Date(2025, 3, 11, 6, 0, 0, 0, jakarta), end)
	})

	t.Run("nil location is UTC", func(t *testing.T) {
		w := ShiftWindow{StartMinute: 8 * 60, EndMinute: 16 * 60}
		start, _ := w.Bounds(day)
		assert.Equal(t, time.UTC, start.Location())
	})
}

func TestShiftWindowBreakBounds(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	w := ShiftWindow{StartMinute: 9 * 60, EndMinute: 17 * 60}
	_, _, ok := w.BreakBounds(day)
	assert.False(t, ok)

	w.BreakStartMinute = intPtr(12 * 60)
	w.BreakEndMinute = intPtr(13 * 60)
	start, end, ok := w.BreakBounds(day)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC), end)

	night := ShiftWindow{StartMinute: 22 * 60, EndMinute: 6 * 60, BreakStartMinute: intPtr(2 * 60), BreakEndMinute: intPtr(2*60 + 30)}
	start, end, ok = night.BreakBounds(day)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 11, 2, 30, 0, 0, time.UTC), end)
}

func TestShiftWindowLogDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	w := ShiftWindow{Location: jakarta, StartMinute: 9 * 60, EndMinute: 17 * 60}
	// 20:00 UTC is 03:00 the next day in Jakarta
	ts := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), w.LogDate(ts))

	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, jakarta), w.EndOfDay(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestShiftWindowLogDateOvernight(t *testing.T) {
	night := ShiftWindow{Location: time.UTC, StartMinute: 22 * 60, EndMinute: 6 * 60}
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	tests := []struct {
		name string
		ts   time.Time
		want time.Time
	}{
		{"evening start", day.Add(22*time.Hour + 5*time.Minute), day},
		{"late clock-in after midnight", next.Add(30 * time.Minute), day},
		{"last minute of the shift", next.Add(5*time.Hour + 59*time.Minute), day},
		{"at shift end", next.Add(6 * time.Hour), next},
		{"afternoon", next.Add(15 * time.Hour), next},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, night.LogDate(tt.ts))
		})
	}
}
