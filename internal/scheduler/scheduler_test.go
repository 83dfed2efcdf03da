package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/breadlog/internal/config"
	"github.com/mamadbah2/breadlog/internal/domain/models"
	"github.com/mamadbah2/breadlog/internal/repository/kv"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/service/production"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

var fixedNow = time.Date(2024, 5, 6, 20, 0, 0, 0, time.UTC)

type fakeArchive struct{ saved []models.DailyReport }

func (f *fakeArchive) SaveDailyReport(_ context.Context, r models.DailyReport) error {
	f.saved = append(f.saved, r)
	return nil
}

type fakePublisher struct{ err error }

func (f *fakePublisher) Publish(context.Context, reporting.DayReport) error { return f.err }

type fakeNotifier struct{ subjects, texts []string }

func (f *fakeNotifier) SendReport(_ context.Context, subject, text string) error {
	f.subjects = append(f.subjects, subject)
	f.texts = append(f.texts, text)
	return nil
}

func newScheduler(t *testing.T, sinks Sinks) (*Scheduler, *production.Service) {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := ledger.NewStore(kv.NewMemoryBackend(), nil)
	drafts := production.NewService(store, nil, clock)
	reports := reporting.NewService(store, nil, clock)

	cfg := config.ReportingConfig{CronSchedule: "0 20 * * *", WeeklyCronSchedule: "0 20 * * 0", Timezone: "UTC"}
	s, err := NewScheduler(cfg, drafts, reports, sinks, nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	return s, drafts
}

func TestRunDailyFlushesAndDelivers(t *testing.T) {
	archive := &fakeArchive{}
	notifier := &fakeNotifier{}
	s, drafts := newScheduler(t, Sinks{Archive: archive, Publisher: &fakePublisher{}, Notifier: notifier})

	produced, sold := "100", "80"
	if _, err := drafts.UpdateBatch(context.Background(), "2024-05-06", 1, production.BatchPatch{Produced: &produced, Sold: &sold}); err != nil {
		t.Fatalf("UpdateBatch returned error: %v", err)
	}

	if err := s.RunDaily(context.Background(), fixedNow); err != nil {
		t.Fatalf("RunDaily returned error: %v", err)
	}
	if len(archive.saved) != 1 || archive.saved[0].TotalProduced != 100 || archive.saved[0].TotalSold != 80 {
		t.Fatalf("unexpected archive %+v", archive.saved)
	}
	if len(notifier.texts) != 1 || !strings.Contains(notifier.texts[0], "Total Vendido: 80") {
		t.Fatalf("unexpected notifications %v", notifier.texts)
	}
}

func TestRunDailySkipsEmptyDay(t *testing.T) {
	notifier := &fakeNotifier{}
	s, _ := newScheduler(t, Sinks{Notifier: notifier})

	if err := s.RunDaily(context.Background(), fixedNow); err != nil {
		t.Fatalf("RunDaily returned error: %v", err)
	}
	if len(notifier.texts) != 0 {
		t.Fatalf("no report expected for a day without ledger")
	}
}

func TestRunDailyJoinsSinkErrors(t *testing.T) {
	boom := errors.New("sheets down")
	archive := &fakeArchive{}
	s, drafts := newScheduler(t, Sinks{Archive: archive, Publisher: &fakePublisher{err: boom}})

	if _, err := drafts.Save(context.Background(), "2024-05-06"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	err := s.RunDaily(context.Background(), fixedNow)
	if !errors.Is(err, boom) {
		t.Fatalf("expected publisher error, got %v", err)
	}
	if len(archive.saved) != 1 {
		t.Fatalf("archive must still run when another sink fails")
	}
}

func TestRunWeekly(t *testing.T) {
	notifier := &fakeNotifier{}
	s, _ := newScheduler(t, Sinks{Notifier: notifier})

	if err := s.RunWeekly(context.Background(), fixedNow); err != nil {
		t.Fatalf("RunWeekly returned error: %v", err)
	}
	if len(notifier.subjects) != 1 || notifier.subjects[0] != "Tendência semanal 2024-05-06" {
		t.Fatalf("unexpected subjects %v", notifier.subjects)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, _ := newScheduler(t, Sinks{})
	s.cfg.CronSchedule = "not a cron"
	if err := s.Start(); err == nil {
		t.Fatalf("expected an invalid schedule error")
	}
}

type fakeLocker struct {
	held     bool
	released int
}

func (f *fakeLocker) Lock(context.Context, string, time.Duration) (func(context.Context) error, error) {
	if f.held {
		return nil, kv.ErrLockHeld
	}
	return func(context.Context) error { f.released++; return nil }, nil
}

func TestRunDailyHonoursLock(t *testing.T) {
	archive := &fakeArchive{}
	locker := &fakeLocker{held: true}
	s, drafts := newScheduler(t, Sinks{Archive: archive})
	s.WithLocker(locker)

	if _, err := drafts.Save(context.Background(), "2024-05-06"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := s.RunDaily(context.Background(), fixedNow); err != nil {
		t.Fatalf("RunDaily returned error: %v", err)
	}
	if len(archive.saved) != 0 {
		t.Fatalf("a held lock must skip the report")
	}

	locker.held = false
	if err := s.RunDaily(context.Background(), fixedNow); err != nil {
		t.Fatalf("RunDaily returned error: %v", err)
	}
	if len(archive.saved) != 1 || locker.released != 1 {
		t.Fatalf("expected one archived report and a released lock, got %d/%d", len(archive.saved), locker.released)
	}
}
