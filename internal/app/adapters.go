package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stitchcast/internal/backend"
	"stitchcast/internal/journal"
	"stitchcast/internal/logging"
	"stitchcast/internal/notifications"
	"stitchcast/internal/reconcile"
	"stitchcast/internal/store"
)

const journalQueueSize = 256

// backendReporter forwards veto messages to the backend as error-report.
type backendReporter struct {
	sender reconcile.CommandSender
	logger *slog.Logger
}

func (r backendReporter) ReportError(message string) {
	if err := r.sender.Send(backend.ErrorReport{Message: message}); err != nil {
		r.logger.Debug("error report not delivered", logging.Error(err))
	}
}

// journalRecorder appends transitions to the journal off the loop goroutine
// and pushes a notification for every veto.
type journalRecorder struct {
	journal   *journal.Journal
	notifier  notifications.Service
	sessionID string
	logger    *slog.Logger

	entries chan journal.Entry
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func newJournalRecorder(j *journal.Journal, notifier notifications.Service, sessionID string, logger *slog.Logger) *journalRecorder {
	r := &journalRecorder{
		journal:   j,
		notifier:  notifier,
		sessionID: sessionID,
		logger:    logging.NewComponentLogger(logger, "journal"),
		entries:   make(chan journal.Entry, journalQueueSize),
	}
	r.wg.Add(1)
	go r.drain()
	return r
}

// Record is called on the loop goroutine and never blocks it.
func (r *journalRecorder) Record(t reconcile.Transition) {
	entry := journal.Entry{
		SessionID: r.sessionID,
		At:        time.Now().UTC(),
		Mode:      string(t.Mode),
		Outcome:   string(t.Outcome),
		Signal:    string(t.Signal),
		Detail:    t.Detail,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.entries <- entry:
	default:
		logging.WarnWithContext(r.logger, "journal queue full, dropping transition", "journal_dropped",
			logging.Mode(entry.Mode),
			logging.String("outcome", entry.Outcome),
			logging.String(logging.FieldImpact, "history will miss this transition"),
		)
	}
}

func (r *journalRecorder) drain() {
	defer r.wg.Done()
	for entry := range r.entries {
		if r.journal != nil {
			if _, err := r.journal.Append(context.Background(), entry); err != nil {
				logging.WarnWithContext(r.logger, "journal append failed", "journal_append_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "history will miss this transition"),
					logging.String(logging.FieldErrorHint, "check the state directory is writable"),
				)
			}
		}
		if entry.Outcome == string(reconcile.OutcomeVetoed) && r.notifier != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := r.notifier.Publish(ctx, notifications.EventTransitionVetoed, notifications.Payload{
				"mode":    entry.Mode,
				"message": entry.Detail,
			})
			cancel()
			if err != nil {
				r.logger.Debug("veto notification failed", logging.Error(err))
			}
		}
	}
}

// Close stops accepting transitions and waits for queued ones to be written.
func (r *journalRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.entries)
	r.mu.Unlock()
	r.wg.Wait()
}

// announcingUploader publishes video_received before handing off to the uploader.
type announcingUploader struct {
	next     reconcile.Uploader
	notifier notifications.Service
	logger   *slog.Logger
	wg       *sync.WaitGroup
}

func (u announcingUploader) Upload(d store.Dispatcher, name string, data []byte, location string) {
	if u.notifier != nil {
		size := len(data)
		u.wg.Add(1)
		go func() {
			defer u.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := u.notifier.Publish(ctx, notifications.EventVideoReceived, notifications.Payload{"name": name, "bytes": size}); err != nil {
				u.logger.Debug("video notification failed", logging.Error(err))
			}
		}()
	}
	u.next.Upload(d, name, data, location)
}
