package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-relay/errors"
	"chat-relay/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Archiver_Runs_Immediately_Then_On_Cadence(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	messages := mocks.NewMockIMessageRepository(ctrl)

	runs := 0
	messages.EXPECT().
		ArchiveBefore(gomock.Any()).
		DoAndReturn(func(time.Time) (int, error) {
			runs++
			return 1, nil
		}).
		MinTimes(2)

	worker := NewArchiveWorker(slog.Default(), messages, 50*time.Millisecond, 24*time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req.NoError(worker.Run(ctx))

	// First pass at startup, at least one more from the ticker
	req.GreaterOrEqual(runs, 2)
}

func Test_Archiver_Passes_Retention_Cutoff(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	messages := mocks.NewMockIMessageRepository(ctrl)

	retention := 24 * time.Hour
	messages.EXPECT().
		ArchiveBefore(gomock.Any()).
		DoAndReturn(func(cutoff time.Time) (int, error) {
			expected := time.Now().UTC().Add(-retention)
			req.WithinDuration(expected, cutoff, time.Minute)
			return 0, nil
		}).
		MinTimes(1)

	worker := NewArchiveWorker(slog.Default(), messages, time.Hour, retention)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req.NoError(worker.Run(ctx))
}

func Test_Archiver_Survives_Failed_Runs(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	messages := mocks.NewMockIMessageRepository(ctrl)

	// Given a store that fails on the first pass and recovers afterwards
	first := messages.EXPECT().
		ArchiveBefore(gomock.Any()).
		Return(0, errors.ErrArchivalFailed)
	messages.EXPECT().
		ArchiveBefore(gomock.Any()).
		Return(3, nil).
		MinTimes(1).
		After(first)

	worker := NewArchiveWorker(slog.Default(), messages, 50*time.Millisecond, 24*time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// Then the failed run is retried on the next tick, not escalated
	req.NoError(worker.Run(ctx))
}
