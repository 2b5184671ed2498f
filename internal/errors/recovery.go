package errors

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/universal-console/serialconsole/internal/logging"
)

// Guard runs fn and converts a panic into a subscriber error. The returned
// error is nil only when fn returned nil without panicking.
func Guard(logger *logging.Logger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrorBuilder(ErrorTypeSubscriber, "events").
				WithLogger(logger).
				WithSeverity(SeverityHigh).
				WithOperation(name).
				WithMessage(fmt.Sprintf("%s panicked: %v", name, r)).
				WithStackTrace().
				Build()
		}
	}()
	return fn()
}

// SafeInvoke runs fn under Guard and logs a returned error. It reports
// whether fn completed cleanly.
func SafeInvoke(logger *logging.Logger, name string, fn func() error) bool {
	err := Guard(logger, name, fn)
	if err == nil {
		return true
	}
	if logger != nil {
		logger.Warn("Handler failed", "handler", name, "error", err.Error())
	}
	return false
}

// RecoverySession holds a notification that stays on screen until the
// operator acts on it.
type RecoverySession struct {
	ID           string
	StartTime    time.Time
	Notification Notification
}

// RecoveryManager tracks the sticky notification shown after the link gives
// up reconnecting.
type RecoveryManager struct {
	activeSession *RecoverySession
	sessionMutex  sync.RWMutex
}

// NewRecoveryManager creates a new recovery manager.
func NewRecoveryManager() *RecoveryManager {
	return &RecoveryManager{}
}

// StartSession replaces any active session with one for n.
func (rm *RecoveryManager) StartSession(n Notification) *RecoverySession {
	rm.sessionMutex.Lock()
	defer rm.sessionMutex.Unlock()

	session := &RecoverySession{
		ID:           uuid.NewString(),
		StartTime:    time.Now(),
		Notification: n,
	}
	rm.activeSession = session
	return session
}

// EndSession clears the active recovery session.
func (rm *RecoveryManager) EndSession() {
	rm.sessionMutex.Lock()
	defer rm.sessionMutex.Unlock()

	rm.activeSession = nil
}

// IsActive returns true if there is an active recovery session.
func (rm *RecoveryManager) IsActive() bool {
	rm.sessionMutex.RLock()
	defer rm.sessionMutex.RUnlock()

	return rm.activeSession != nil
}

// Active returns the current session, or nil
func (rm *RecoveryManager) Active() *RecoverySession {
	rm.sessionMutex.RLock()
	defer rm.sessionMutex.RUnlock()

	return rm.activeSession
}

// GetRecoveryActions returns the actions of the active session.
func (rm *RecoveryManager) GetRecoveryActions() []Action {
	rm.sessionMutex.RLock()
	defer rm.sessionMutex.RUnlock()

	if rm.activeSession == nil {
		return nil
	}
	return rm.activeSession.Notification.Actions
}
