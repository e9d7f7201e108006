//go:build unit

package delivery_test

import (
	"fmt"
	"testing"
	"time"

	"delivery-scheduler/internal/domain/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newYork = delivery.MustLoadZone(delivery.DefaultZoneName)

func nyTime(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, minute, 0, 0, newYork.Location())
}

func TestSlotForHour(t *testing.T) {
	tests := []struct {
		hours []int
		want  delivery.Slot
	}{
		{hours: []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, want: delivery.Slot{Hour: 9, DaysAway: 1}},
		{hours: []int{17, 18, 19, 20}, want: delivery.Slot{Hour: 16, DaysAway: 1}},
		{hours: []int{21, 22, 23}, want: delivery.Slot{Hour: 9, DaysAway: 2}},
	}
	for _, tt := range tests {
		for _, h := range tt.hours {
			t.Run(fmt.Sprintf("hour %d", h), func(t *testing.T) {
				got, err := delivery.SlotForHour(h)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	}

	for h := 9; h <= 16; h++ {
		t.Run(fmt.Sprintf("hour %d keeps its own hour", h), func(t *testing.T) {
			got, err := delivery.SlotForHour(h)
			require.NoError(t, err)
			assert.Equal(t, delivery.Slot{Hour: h, DaysAway: 1}, got)
		})
	}

	for _, h := range []int{-1, 24, 99} {
		t.Run(fmt.Sprintf("hour %d is rejected", h), func(t *testing.T) {
			_, err := delivery.SlotForHour(h)
			assert.ErrorIs(t, err, delivery.ErrHourOutOfRange)
		})
	}
}

func TestComputeWindow(t *testing.T) {
	calc := delivery.NewCalculator(newYork)

	t.Run("civil hour 12 during daylight saving", func(t *testing.T) {
		received := time.Date(2021, 3, 30, 16, 25, 5, 0, time.UTC)

		w, err := calc.ComputeWindow(received, 2)
		require.NoError(t, err)

		assert.Equal(t, "2021-03-31T12:00:00-04:00", w.Start().Format(time.RFC3339))
		assert.Equal(t, "2021-03-31T14:00:00-04:00", w.End().Format(time.RFC3339))
		assert.Equal(t, 2*time.Hour, w.Duration())
	})

	t.Run("source timezone does not matter", func(t *testing.T) {
		utc := time.Date(2021, 3, 30, 16, 25, 5, 0, time.UTC)
		kolkata := utc.In(time.FixedZone("IST", 5*3600+1800))

		a, err := calc.ComputeWindow(utc, 2)
		require.NoError(t, err)
		b, err := calc.ComputeWindow(kolkata, 2)
		require.NoError(t, err)

		assert.True(t, a.Start().Equal(b.Start()))
		assert.True(t, a.End().Equal(b.End()))
	})

	t.Run("rfc 2822 zone name keeps its offset", func(t *testing.T) {
		received, err := delivery.ParseReceivedTimestamp("Tue, 30 Mar 2021 12:25:05 EDT", newYork)
		require.NoError(t, err)

		w, err := calc.ComputeWindow(received, 2)
		require.NoError(t, err)

		assert.Equal(t, "2021-03-31T12:00:00-04:00", w.Start().Format(time.RFC3339))
	})

	t.Run("zero zone falls back to the default zone", func(t *testing.T) {
		w, err := delivery.NewCalculator(delivery.Zone{}).ComputeWindow(time.Date(2021, 3, 30, 16, 25, 5, 0, time.UTC), 2)
		require.NoError(t, err)

		assert.Equal(t, "2021-03-31T12:00:00-04:00", w.Start().Format(time.RFC3339))
	})

	t.Run("civil hour 22 lands at 09:00 two days later", func(t *testing.T) {
		received := time.Date(2021, 3, 31, 2, 30, 0, 0, time.UTC) // 22:30 EDT on 03-30

		w, err := calc.ComputeWindow(received, 2)
		require.NoError(t, err)

		assert.Equal(t, "2021-04-01T09:00:00-04:00", w.Start().Format(time.RFC3339))
		assert.Equal(t, "2021-04-01T11:00:00-04:00", w.End().Format(time.RFC3339))
	})

	t.Run("civil date is taken after midnight crossing", func(t *testing.T) {
		received := time.Date(2021, 1, 15, 3, 0, 0, 0, time.UTC) // 22:00 EST on 01-14

		w, err := calc.ComputeWindow(received, 2)
		require.NoError(t, err)

		assert.Equal(t, "2021-01-16T09:00:00-05:00", w.Start().Format(time.RFC3339))
	})

	t.Run("every civil hour maps to its bucket", func(t *testing.T) {
		for hour := 0; hour <= 23; hour++ {
			received := nyTime(t, 2021, time.June, 15, hour, 37)
			w, err := calc.ComputeWindow(received, 2)
			require.NoError(t, err, "hour %d", hour)

			var want time.Time
			switch {
			case hour <= 8:
				want = nyTime(t, 2021, time.June, 16, 9, 0)
			case hour <= 16:
				want = nyTime(t, 2021, time.June, 16, hour, 0)
			case hour <= 20:
				want = nyTime(t, 2021, time.June, 16, 16, 0)
			default:
				want = nyTime(t, 2021, time.June, 17, 9, 0)
			}
			assert.True(t, want.Equal(w.Start()), "hour %d: want %s, got %s", hour, want, w.Start())
			assert.True(t, w.Start().After(received), "hour %d: start must be in the future", hour)
		}
	})

	t.Run("bucket boundaries", func(t *testing.T) {
		tests := []struct {
			hour int
			want time.Time
		}{
			{hour: 8, want: nyTime(t, 2021, time.June, 16, 9, 0)},
			{hour: 9, want: nyTime(t, 2021, time.June, 16, 9, 0)},
			{hour: 16, want: nyTime(t, 2021, time.June, 16, 16, 0)},
			{hour: 17, want: nyTime(t, 2021, time.June, 16, 16, 0)},
			{hour: 20, want: nyTime(t, 2021, time.June, 16, 16, 0)},
			{hour: 21, want: nyTime(t, 2021, time.June, 17, 9, 0)},
		}
		for _, tt := range tests {
			t.Run(fmt.Sprintf("hour %d", tt.hour), func(t *testing.T) {
				for _, minute := range []int{0, 59} {
					w, err := calc.ComputeWindow(nyTime(t, 2021, time.June, 15, tt.hour, minute), 2)
					require.NoError(t, err)
					assert.True(t, tt.want.Equal(w.Start()), "minute %d: want %s, got %s", minute, tt.want, w.Start())
				}
			})
		}
	})

	t.Run("length is exact across daylight saving transitions", func(t *testing.T) {
		received := []time.Time{
			nyTime(t, 2021, time.March, 13, 22, 30),   // +48h spans spring forward
			nyTime(t, 2021, time.March, 13, 12, 0),    // +24h spans spring forward
			nyTime(t, 2021, time.November, 6, 22, 15), // +48h spans fall back
			nyTime(t, 2021, time.November, 6, 3, 0),   // +24h spans fall back
		}
		for _, r := range received {
			for _, length := range []int{1, 2, 3} {
				w, err := calc.ComputeWindow(r, length)
				require.NoError(t, err)
				assert.Equal(t, time.Duration(length)*time.Hour, w.End().Sub(w.Start()), "received %s", r)
			}
		}
	})

	t.Run("day offset is added on the absolute instant", func(t *testing.T) {
		// 09:00 EST + 48h is 10:00 EDT after the spring-forward transition.
		w, err := calc.ComputeWindow(nyTime(t, 2021, time.March, 13, 22, 30), 2)
		require.NoError(t, err)

		assert.Equal(t, "2021-03-15T10:00:00-04:00", w.Start().Format(time.RFC3339))
		assert.Equal(t, 48*time.Hour, w.Start().Sub(time.Date(2021, 3, 13, 9, 0, 0, 0, time.FixedZone("", -5*3600))))
	})

	t.Run("results are returned in the target zone", func(t *testing.T) {
		w, err := calc.ComputeWindow(time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC), 2)
		require.NoError(t, err)
		assert.Equal(t, newYork.Location(), w.Start().Location())
		assert.Equal(t, newYork.Location(), w.End().Location())
	})

	t.Run("identical inputs give identical windows", func(t *testing.T) {
		received := time.Date(2021, 3, 30, 16, 25, 5, 0, time.UTC)

		first, err := calc.ComputeWindow(received, 2)
		require.NoError(t, err)
		second, err := calc.ComputeWindow(received, 2)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("non-positive window length is rejected", func(t *testing.T) {
		for _, length := range []int{0, -2} {
			_, err := calc.ComputeWindow(time.Now(), length)
			assert.ErrorIs(t, err, delivery.ErrInvalidWindowLength)
		}
	})
}

func TestNewWindow(t *testing.T) {
	start := time.Date(2021, 6, 16, 9, 0, 0, 0, time.UTC)

	_, err := delivery.NewWindow(start, start)
	assert.ErrorIs(t, err, delivery.ErrInvalidWindow)

	_, err = delivery.NewWindow(start, start.Add(-time.Hour))
	assert.ErrorIs(t, err, delivery.ErrInvalidWindow)

	w, err := delivery.NewWindow(start, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, w.IsZero())
	assert.Equal(t, 2*time.Hour, w.Duration())
}
