package errors

import (
	stderrors "errors"
	"time"

	"github.com/universal-console/serialconsole/internal/interfaces"
)

// Notification is an error prepared for display by a renderer.
type Notification struct {
	Timestamp time.Time
	Kind      interfaces.NoticeKind
	Message   string
	Type      ErrorType
	Actions   []Action
	Sticky    bool
}

// Handler turns errors into operator notifications.
type Handler struct {
	now func() time.Time
}

// NewHandler creates a new error handler.
func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

// Notify transforms err into a Notification. Errors outside the taxonomy
// become plain error notices.
func (h *Handler) Notify(err error) Notification {
	n := Notification{
		Timestamp: h.now(),
		Kind:      interfaces.NoticeError,
	}
	if err == nil {
		return n
	}

	var ce *ContextualError
	if !stderrors.As(err, &ce) {
		n.Message = err.Error()
		return n
	}

	n.Message = ce.GetUserMessage()
	n.Type = ce.Type
	n.Actions = ce.GetRecoveryActions()
	n.Sticky = !ce.IsRecoverable()

	switch ce.Severity {
	case SeverityLow, SeverityMedium:
		n.Kind = interfaces.NoticeWarning
	}
	if n.Sticky {
		n.Kind = interfaces.NoticeError
	}

	// Every notification can at least be dismissed
	if len(n.Actions) == 0 {
		n.Actions = []Action{{Name: "Dismiss", Key: "esc"}}
	}
	return n
}

// Alert converts n for display by a renderer
func (n Notification) Alert() interfaces.Alert {
	return interfaces.Alert{
		Kind:    n.Kind,
		Message: n.Message,
		Actions: n.Actions,
		Sticky:  n.Sticky,
	}
}
