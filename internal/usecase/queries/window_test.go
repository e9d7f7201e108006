//go:build unit

package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-scheduler/internal/domain/delivery"
	"delivery-scheduler/internal/pkg/errs"
	"delivery-scheduler/internal/usecase/queries"
	queriesmock "delivery-scheduler/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newWindowQueries() queries.WindowQueries {
	return queries.NewWindowQueries(delivery.NewCalculator(delivery.MustLoadZone(delivery.DefaultZoneName)), 2)
}

func TestWindowPreview(t *testing.T) {
	ny := delivery.MustLoadZone(delivery.DefaultZoneName).Location()

	t.Run("default length", func(t *testing.T) {
		view, err := newWindowQueries().Preview(context.Background(), "2021-03-30T16:25:05Z", 0)

		require.NoError(t, err)
		assert.True(t, view.Start.Equal(time.Date(2021, 3, 31, 12, 0, 0, 0, ny)))
		assert.True(t, view.End.Equal(time.Date(2021, 3, 31, 14, 0, 0, 0, ny)))
		assert.Equal(t, 2, view.Hours)
		assert.Equal(t, delivery.DefaultZoneName, view.TimeZone)
	})

	t.Run("explicit length", func(t *testing.T) {
		view, err := newWindowQueries().Preview(context.Background(), "2021-03-30T16:25:05Z", 4)

		require.NoError(t, err)
		assert.Equal(t, 4*time.Hour, view.End.Sub(view.Start))
	})

	invalid := []struct {
		name       string
		receivedAt string
		hours      int
	}{
		{name: "missing timestamp", receivedAt: " ", hours: 2},
		{name: "unparseable timestamp", receivedAt: "soon", hours: 2},
		{name: "negative length", receivedAt: "2021-03-30T16:25:05Z", hours: -1},
		{name: "length over a day", receivedAt: "2021-03-30T16:25:05Z", hours: queries.MaxPreviewHours + 1},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			view, err := newWindowQueries().Preview(context.Background(), tc.receivedAt, tc.hours)

			assert.Nil(t, view)
			assert.True(t, errs.Is(err, queries.ErrInvalidWindowQuery))
		})
	}
}

func TestNotificationListByRun(t *testing.T) {
	runID := uuid.New()

	t.Run("disabled log", func(t *testing.T) {
		_, err := queries.NewNotificationQueries(nil).ListByRun(context.Background(), runID)
		assert.True(t, errs.Is(err, queries.ErrNotificationLogDisabled))
	})

	t.Run("empty run yields empty slice", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockNotificationReadStore(ctrl)
		store.EXPECT().FindByRunID(gomock.Any(), runID).Return(nil, nil)

		jobs, err := queries.NewNotificationQueries(store).ListByRun(context.Background(), runID)

		require.NoError(t, err)
		assert.NotNil(t, jobs)
		assert.Empty(t, jobs)
	})

	t.Run("store error is passed through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := queriesmock.NewMockNotificationReadStore(ctrl)
		storeErr := errors.New("db down")
		store.EXPECT().FindByRunID(gomock.Any(), runID).Return(nil, storeErr)

		_, err := queries.NewNotificationQueries(store).ListByRun(context.Background(), runID)

		assert.ErrorIs(t, err, storeErr)
	})
}
