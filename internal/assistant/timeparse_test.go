package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTime_Keywords(t *testing.T) {
	ref := time.Date(2025, 6, 10, 17, 42, 31, 999, time.UTC)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"today", "show my tasks today", time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
		{"tomorrow", "tomorrow", time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)},
		{"day after tomorrow", "free up the day after tomorrow", time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)},
		{"case insensitive", "TOMORROW", time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveTime(tc.text, ref)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveTime_TomorrowIgnoresRefTimeOfDay(t *testing.T) {
	// The keyword path always lands on 09:00:00 regardless of ref's clock.
	for _, hour := range []int{0, 8, 13, 23} {
		ref := time.Date(2030, 1, 31, hour, 59, 58, 123456, time.UTC)
		got, ok := ResolveTime("tomorrow", ref)
		require.True(t, ok)
		assert.Equal(t, time.Date(2030, 2, 1, 9, 0, 0, 0, time.UTC), got)
	}
}

func TestResolveTime_KeywordWinsOverExplicitTime(t *testing.T) {
	// "tomorrow at 10am" resolves via the keyword table to 09:00; the
	// explicit clock time is discarded. Inherited behavior, kept on purpose.
	ref := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	got, ok := ResolveTime("tomorrow at 10am", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC), got)
}

func TestResolveTime_FuzzyFallback(t *testing.T) {
	ref := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	got, ok := ResolveTime("dentist at 5pm", ref)
	require.True(t, ok)
	assert.Equal(t, 17, got.Hour())
	assert.Equal(t, ref.Day(), got.Day())
}

func TestResolveTime_Unparseable(t *testing.T) {
	ref := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	_, ok := ResolveTime("walk the dog", ref)
	assert.False(t, ok)
}
