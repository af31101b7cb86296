package repository

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
)

// StoreError is one backend failure kept by a store for later inspection.
type StoreError struct {
	Store  string
	Op     string
	Target string
	Err    error
	At     time.Time
}

func (e StoreError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Store, e.Op, e.Target, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// ErrorLog accumulates store failures. The zero value is not usable; call NewErrorLog.
type ErrorLog struct {
	store  string
	logger logrus.FieldLogger
	now    func() time.Time

	mu      sync.Mutex
	entries []StoreError
}

// NewErrorLog creates an error log for the named store.
func NewErrorLog(store string, logger logrus.FieldLogger) *ErrorLog {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ErrorLog{
		store:  store,
		logger: logger.WithField("store", store),
		now:    time.Now,
	}
}

// Record appends err and returns it unchanged so callers can write `return log.Record(...)`.
// Not-found errors are expected outcomes and are neither kept nor logged.
func (l *ErrorLog) Record(op, target string, err error) error {
	if err == nil || errors.Is(err, entity.ErrWordItemNotFound) {
		return err
	}
	entry := StoreError{Store: l.store, Op: op, Target: target, Err: err, At: l.now()}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{"op": op, "target": target}).WithError(err).Warn("store operation failed")
	return err
}

// Entries returns a copy of the accumulated failures.
func (l *ErrorLog) Entries() []StoreError {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]StoreError(nil), l.entries...)
}

// Len returns the number of accumulated failures.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset drops every accumulated failure.
func (l *ErrorLog) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
