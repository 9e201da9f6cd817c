package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/perpexbistro/ride-hailing/internal/domain/ride"
	"github.com/shopspring/decimal"
)

// DefaultSurgeSchedule is the peak-hour table used when none is configured
const DefaultSurgeSchedule = "7-10:1.5,17-21:1.5,23-5:1.3"

// SurgeWindow applies Multiplier from hour From up to, not including, hour To.
// A window with From > To wraps past midnight.
type SurgeWindow struct {
	From       int
	To         int
	Multiplier decimal.Decimal
}

func (w SurgeWindow) contains(hour int) bool {
	if w.From <= w.To {
		return hour >= w.From && hour < w.To
	}
	return hour >= w.From || hour < w.To
}

// ParseSurgeWindows reads "from-to:multiplier" entries separated by commas,
// e.g. "7-10:1.5,23-5:1.3". An empty string yields no windows.
func ParseSurgeWindows(raw string) ([]SurgeWindow, error) {
	var windows []SurgeWindow
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		hours, mult, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("surge window %q: missing multiplier", entry)
		}
		fromRaw, toRaw, ok := strings.Cut(hours, "-")
		if !ok {
			return nil, fmt.Errorf("surge window %q: hours must be from-to", entry)
		}

		from, err := strconv.Atoi(strings.TrimSpace(fromRaw))
		if err != nil {
			return nil, fmt.Errorf("surge window %q: %w", entry, err)
		}
		to, err := strconv.Atoi(strings.TrimSpace(toRaw))
		if err != nil {
			return nil, fmt.Errorf("surge window %q: %w", entry, err)
		}
		multiplier, err := decimal.NewFromString(strings.TrimSpace(mult))
		if err != nil {
			return nil, fmt.Errorf("surge window %q: %w", entry, err)
		}

		w := SurgeWindow{From: from, To: to, Multiplier: multiplier}
		if err := w.validate(); err != nil {
			return nil, fmt.Errorf("surge window %q: %w", entry, err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (w SurgeWindow) validate() error {
	if w.From < 0 || w.From > 23 || w.To < 0 || w.To > 24 || w.From == w.To {
		return fmt.Errorf("hours must lie in 0-24 and differ")
	}
	if !w.Multiplier.IsPositive() {
		return ride.ErrInvalidSurge
	}
	if !w.Multiplier.Equal(w.Multiplier.Truncate(ride.SurgePrecision)) {
		return ride.ErrSurgePrecision
	}
	return nil
}

// SurgeSchedule prices demand by the local hour at which a ride is requested.
// Hours outside every window, or a disabled schedule, get ride.DefaultSurge.
type SurgeSchedule struct {
	windows  []SurgeWindow
	location *time.Location
	enabled  bool
	now      func() time.Time
}

// SurgeOption configures a SurgeSchedule
type SurgeOption func(*SurgeSchedule)

// WithClock replaces time.Now
func WithClock(now func() time.Time) SurgeOption {
	return func(s *SurgeSchedule) {
		s.now = now
	}
}

// WithLocation sets the zone whose wall clock selects the window. Defaults to UTC.
func WithLocation(loc *time.Location) SurgeOption {
	return func(s *SurgeSchedule) {
		if loc != nil {
			s.location = loc
		}
	}
}

// Disabled turns every lookup into ride.DefaultSurge
func Disabled() SurgeOption {
	return func(s *SurgeSchedule) {
		s.enabled = false
	}
}

// NewSurgeSchedule builds a schedule. The first matching window wins.
func NewSurgeSchedule(windows []SurgeWindow, opts ...SurgeOption) (*SurgeSchedule, error) {
	for _, w := range windows {
		if err := w.validate(); err != nil {
			return nil, fmt.Errorf("surge window %d-%d: %w", w.From, w.To, err)
		}
	}

	s := &SurgeSchedule{
		windows:  windows,
		location: time.UTC,
		enabled:  true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MultiplierAt returns the surge in effect at t
func (s *SurgeSchedule) MultiplierAt(t time.Time) decimal.Decimal {
	if !s.enabled {
		return ride.DefaultSurge
	}
	hour := t.In(s.location).Hour()
	for _, w := range s.windows {
		if w.contains(hour) {
			return w.Multiplier
		}
	}
	return ride.DefaultSurge
}

// Current returns the surge in effect now
func (s *SurgeSchedule) Current() decimal.Decimal {
	return s.MultiplierAt(s.now())
}
