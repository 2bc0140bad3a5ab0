package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/service/worker"
)

type stubTrigger struct {
	calls  atomic.Int64
	report *model.RunReport
	err    error
}

func (s *stubTrigger) RunSync(ctx context.Context, force bool) (*model.RunReport, error) {
	s.calls.Add(1)
	return s.report, s.err
}

func TestSyncWorker(t *testing.T) {
	t.Run("runs immediately and then on every tick", func(t *testing.T) {
		trigger := &stubTrigger{
			report: &model.RunReport{Status: types.RunStatusSuccess},
		}

		w := worker.NewSyncWorker(trigger, 20*time.Millisecond)
		gt.NoError(t, w.Start(context.Background())).Required()

		time.Sleep(110 * time.Millisecond)
		w.Stop()

		gt.B(t, trigger.calls.Load() >= 3).True()
	})

	t.Run("busy rejection does not stop the worker", func(t *testing.T) {
		trigger := &stubTrigger{
			report: &model.RunReport{Status: types.RunStatusBusy},
			err:    goerr.New("sync run already in progress"),
		}

		w := worker.NewSyncWorker(trigger, 20*time.Millisecond)
		gt.NoError(t, w.Start(context.Background())).Required()

		time.Sleep(70 * time.Millisecond)
		w.Stop()

		gt.B(t, trigger.calls.Load() >= 2).True()
	})

	t.Run("trigger failures keep the loop alive", func(t *testing.T) {
		trigger := &stubTrigger{err: goerr.New("store unavailable")}

		w := worker.NewSyncWorker(trigger, 20*time.Millisecond)
		gt.NoError(t, w.Start(context.Background())).Required()

		time.Sleep(70 * time.Millisecond)
		w.Stop()

		gt.B(t, trigger.calls.Load() >= 2).True()
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		trigger := &stubTrigger{
			report: &model.RunReport{Status: types.RunStatusSuccess},
		}

		ctx, cancel := context.WithCancel(context.Background())
		w := worker.NewSyncWorker(trigger, time.Hour)
		gt.NoError(t, w.Start(ctx)).Required()

		cancel()
		time.Sleep(20 * time.Millisecond)

		before := trigger.calls.Load()
		time.Sleep(40 * time.Millisecond)
		gt.Number(t, trigger.calls.Load()).Equal(before)
	})
}
