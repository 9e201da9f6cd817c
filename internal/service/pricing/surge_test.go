package pricing

import (
	"testing"
	"time"

	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSchedule(t *testing.T, opts ...SurgeOption) *SurgeSchedule {
	t.Helper()
	windows, err := ParseSurgeWindows(DefaultSurgeSchedule)
	require.NoError(t, err)
	s, err := NewSurgeSchedule(windows, opts...)
	require.NoError(t, err)
	return s
}

func TestSurgeSchedule_Hours(t *testing.T) {
	s := defaultSchedule(t)

	tests := []struct {
		hour int
		want string
	}{
		{0, "1.3"},
		{4, "1.3"},
		{5, "1"},
		{6, "1"},
		{7, "1.5"},
		{9, "1.5"},
		{10, "1"},
		{14, "1"},
		{16, "1"},
		{17, "1.5"},
		{20, "1.5"},
		{21, "1"},
		{22, "1"},
		{23, "1.3"},
	}

	for _, tt := range tests {
		at := time.Date(2026, 3, 9, tt.hour, 30, 0, 0, time.UTC)
		got := s.MultiplierAt(at)
		assert.Equal(t, tt.want, got.String(), "hour %d", tt.hour)
	}
}

func TestSurgeSchedule_ClockAndLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	// 02:00 UTC is 07:30 in Kolkata
	clock := func() time.Time { return time.Date(2026, 3, 9, 2, 0, 0, 0, time.UTC) }

	assert.Equal(t, "1.3", defaultSchedule(t, WithClock(clock)).Current().String())
	assert.Equal(t, "1.5", defaultSchedule(t, WithClock(clock), WithLocation(kolkata)).Current().String())
}

func TestSurgeSchedule_Disabled(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC) }
	s := defaultSchedule(t, WithClock(clock), Disabled())
	assert.True(t, s.Current().Equal(ride.DefaultSurge))
}

func TestParseSurgeWindows(t *testing.T) {
	windows, err := ParseSurgeWindows(" 7-10:1.5 , 23-5:1.30,")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, 23, windows[1].From)
	assert.Equal(t, 5, windows[1].To)
	assert.Equal(t, "1.3", windows[1].Multiplier.String())

	empty, err := ParseSurgeWindows("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, raw := range []string{
		"7-10",
		"7:1.5",
		"seven-10:1.5",
		"7-10:x",
		"7-25:1.5",
		"7-7:1.5",
		"7-10:0",
		"7-10:-1",
		"7-10:1.255",
	} {
		_, err := ParseSurgeWindows(raw)
		assert.Error(t, err, raw)
	}
}

func TestNewSurgeSchedule_RejectsBadWindow(t *testing.T) {
	windows, err := ParseSurgeWindows("7-10:1.5")
	require.NoError(t, err)
	windows[0].To = 30

	_, err = NewSurgeSchedule(windows)
	assert.Error(t, err)
}
