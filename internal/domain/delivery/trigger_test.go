//go:build unit

package delivery_test

import (
	"testing"
	"time"

	"delivery-scheduler/internal/domain/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceivedTimestamp(t *testing.T) {
	want := time.Date(2021, 3, 30, 16, 25, 5, 0, time.UTC)

	zoned := []string{
		"2021-03-30T16:25:05Z",
		"2021-03-30T16:25:05.000Z",
		"2021-03-30T12:25:05-04:00",
		"Tue, 30 Mar 2021 16:25:05 +0000",
		"Tue, 30 Mar 2021 12:25:05 -0400",
		"30 Mar 2021 16:25:05 +0000",
		"Tue, 30 Mar 2021 16:25:05 GMT",
		"Tue, 30 Mar 2021 16:25:05 UT",
		"Tue, 30 Mar 2021 16:25:05 UTC",
		"Tue, 30 Mar 2021 12:25:05 EDT",
		"Tue, 30 Mar 2021 11:25:05 EST",
		"Tue, 30 Mar 2021 11:25:05 CDT",
		"Tue, 30 Mar 2021 10:25:05 CST",
		"Tue, 30 Mar 2021 10:25:05 MDT",
		"Tue, 30 Mar 2021 09:25:05 MST",
		"Tue, 30 Mar 2021 09:25:05 PDT",
		"Tue, 30 Mar 2021 08:25:05 PST",
		"Tue Mar 30 2021 12:25:05 GMT-0400 (Eastern Daylight Time)",
		"  2021-03-30T16:25:05Z  ",
	}
	for _, s := range zoned {
		t.Run(s, func(t *testing.T) {
			got, err := delivery.ParseReceivedTimestamp(s, newYork)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}

	t.Run("date-time without offset is civil time", func(t *testing.T) {
		got, err := delivery.ParseReceivedTimestamp("2021-03-30T12:25:05", newYork)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "want %s, got %s", want, got)
	})

	t.Run("bare date is midnight UTC", func(t *testing.T) {
		got, err := delivery.ParseReceivedTimestamp("2021-03-30", newYork)
		require.NoError(t, err)
		assert.True(t, time.Date(2021, 3, 30, 0, 0, 0, 0, time.UTC).Equal(got))
	})

	t.Run("empty value", func(t *testing.T) {
		_, err := delivery.ParseReceivedTimestamp("   ", newYork)
		assert.ErrorIs(t, err, delivery.ErrMissingTimestamp)
	})

	t.Run("unknown zone name is rejected", func(t *testing.T) {
		_, err := delivery.ParseReceivedTimestamp("Tue, 30 Mar 2021 12:25:05 XYZ", newYork)
		assert.ErrorIs(t, err, delivery.ErrInvalidTimestamp)
	})

	t.Run("garbage value", func(t *testing.T) {
		_, err := delivery.ParseReceivedTimestamp("yesterday-ish", newYork)
		assert.ErrorIs(t, err, delivery.ErrInvalidTimestamp)
	})
}

func TestTriggerPayloadValidate(t *testing.T) {
	valid := delivery.TriggerPayload{
		ReceivedTimestamp: "2021-03-30T16:25:05Z",
		CustomerName:      "Ada Lovelace",
		CustomerEmail:     "ada@example.com",
		CustomerNumber:    "+1 555 0100",
	}

	tests := []struct {
		name   string
		mutate func(p *delivery.TriggerPayload)
		errIs  error
	}{
		{name: "valid payload", mutate: func(_ *delivery.TriggerPayload) {}},
		{name: "phone is optional", mutate: func(p *delivery.TriggerPayload) { p.CustomerNumber = "" }},
		{name: "missing timestamp", mutate: func(p *delivery.TriggerPayload) { p.ReceivedTimestamp = "" }, errIs: delivery.ErrMissingTimestamp},
		{name: "missing name", mutate: func(p *delivery.TriggerPayload) { p.CustomerName = " " }, errIs: delivery.ErrMissingCustomer},
		{name: "missing email", mutate: func(p *delivery.TriggerPayload) { p.CustomerEmail = "" }, errIs: delivery.ErrInvalidCustomerEmail},
		{name: "malformed email", mutate: func(p *delivery.TriggerPayload) { p.CustomerEmail = "not-an-email" }, errIs: delivery.ErrInvalidCustomerEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.errIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.errIs)
		})
	}
}

func TestTriggerPayloadNormalized(t *testing.T) {
	p := delivery.TriggerPayload{
		ReceivedTimestamp: " 2021-03-30T16:25:05Z ",
		CustomerName:      " Ada ",
		CustomerEmail:     " Ada@Example.COM ",
		CustomerNumber:    " 555 ",
	}

	got := p.Normalized()
	assert.Equal(t, delivery.TriggerPayload{
		ReceivedTimestamp: "2021-03-30T16:25:05Z",
		CustomerName:      "Ada",
		CustomerEmail:     "ada@example.com",
		CustomerNumber:    "555",
	}, got)
}
