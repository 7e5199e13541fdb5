package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_RejectsEmptyAndInverted(t *testing.T) {
	_, err := New(day(2), day(2))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = New(day(3), day(2))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = New(time.Time{}, day(2))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlaps_InclusiveBounds(t *testing.T) {
	base, err := New(day(10), day(15))
	require.NoError(t, err)

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"touching at checkout", DateRange{day(15), day(20)}, true},
		{"touching at checkin", DateRange{day(5), day(10)}, true},
		{"inside", DateRange{day(11), day(12)}, true},
		{"covering", DateRange{day(1), day(30)}, true},
		{"before", DateRange{day(1), day(9)}, false},
		{"after", DateRange{day(16), day(20)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestUnits(t *testing.T) {
	dr, err := New(day(1), day(1).Add(49*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, dr.Units(24*time.Hour))
	assert.Equal(t, 49, dr.Units(time.Hour))
	assert.Equal(t, 0, dr.Units(0))
}
