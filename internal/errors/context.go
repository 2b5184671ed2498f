// Package errors provides the error taxonomy of the serial console client.
// Every failure the client can hit is non-fatal; the types here carry enough
// context to log the failure and, when needed, tell the operator what to do.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
)

// ErrorType categorizes errors for handling and presentation
type ErrorType string

const (
	ErrorTypeTransport          ErrorType = "transport"
	ErrorTypeProbeTimeout       ErrorType = "probe_timeout"
	ErrorTypeReconnectExhausted ErrorType = "reconnect_exhausted"
	ErrorTypeSendFailure        ErrorType = "send_failure"
	ErrorTypeConfiguration      ErrorType = "configuration"
	ErrorTypeProtocol           ErrorType = "protocol"
	ErrorTypeRender             ErrorType = "render"
	ErrorTypeSubscriber         ErrorType = "subscriber"
)

// Sentinels matched by errors.Is against a ContextualError of the same type.
var (
	ErrTransport          = stderrors.New("transport error")
	ErrProbeTimeout       = stderrors.New("probe timeout")
	ErrReconnectExhausted = stderrors.New("reconnect attempts exhausted")
	ErrSendFailure        = stderrors.New("send failed: not connected")
	ErrConfiguration      = stderrors.New("invalid configuration")
	ErrSubscriberPanic    = stderrors.New("subscriber panicked")
)

var sentinels = map[ErrorType]error{
	ErrorTypeTransport:          ErrTransport,
	ErrorTypeProbeTimeout:       ErrProbeTimeout,
	ErrorTypeReconnectExhausted: ErrReconnectExhausted,
	ErrorTypeSendFailure:        ErrSendFailure,
	ErrorTypeConfiguration:      ErrConfiguration,
	ErrorTypeSubscriber:         ErrSubscriberPanic,
}

// ErrorSeverity indicates the impact level of an error
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

// Action is a suggested operator action, bound to a key in the UI
type Action = interfaces.KeyAction

// ContextualError provides enhanced error information with diagnostic context
type ContextualError struct {
	Type        ErrorType              `json:"type"`
	Severity    ErrorSeverity          `json:"severity"`
	Message     string                 `json:"message"`
	UserMessage string                 `json:"userMessage,omitempty"`
	Component   string                 `json:"component"`
	Operation   string                 `json:"operation,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	StackTrace  []string               `json:"stackTrace,omitempty"`
	Cause       error                  `json:"-"`
	Recoverable bool                   `json:"recoverable"`
	Actions     []Action               `json:"actions,omitempty"`
}

// Error implements the error interface
func (e *ContextualError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Type, e.Message)
}

// Unwrap provides access to the underlying error
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error's type
func (e *ContextualError) Is(target error) bool {
	sentinel, ok := sentinels[e.Type]
	return ok && sentinel == target
}

// GetUserMessage returns an operator-facing message
func (e *ContextualError) GetUserMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// IsRecoverable indicates if the client keeps working without operator action
func (e *ContextualError) IsRecoverable() bool {
	return e.Recoverable
}

// GetRecoveryActions returns suggested actions for the operator
func (e *ContextualError) GetRecoveryActions() []Action {
	if len(e.Actions) > 0 {
		return e.Actions
	}

	switch e.Type {
	case ErrorTypeReconnectExhausted, ErrorTypeTransport:
		return []Action{
			{Name: "Reconnect", Key: "F9"},
			{Name: "Quit", Key: "F10"},
		}
	case ErrorTypeRender:
		return []Action{
			{Name: "Switch renderer", Key: "F6"},
		}
	case ErrorTypeConfiguration:
		return []Action{
			{Name: "Edit configuration", Key: ""},
		}
	default:
		return nil
	}
}

// ErrorBuilder provides a fluent interface for creating contextual errors
type ErrorBuilder struct {
	err          *ContextualError
	logger       *logging.Logger
	captureStack bool
}

// NewErrorBuilder creates a new error builder with default settings
func NewErrorBuilder(errorType ErrorType, component string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &ContextualError{
			Type:        errorType,
			Severity:    SeverityMedium,
			Component:   component,
			Context:     make(map[string]interface{}),
			Timestamp:   time.Now(),
			Recoverable: true,
		},
		logger: logging.GetGlobalLogger().WithComponent(component),
	}
}

// WithLogger replaces the logger used by Build
func (eb *ErrorBuilder) WithLogger(logger *logging.Logger) *ErrorBuilder {
	if logger != nil {
		eb.logger = logger
	}
	return eb
}

// WithSeverity sets the error severity level
func (eb *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	eb.err.Severity = severity
	return eb
}

// WithMessage sets the technical error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.err.Message = message
	return eb
}

// WithUserMessage sets an operator-facing message
func (eb *ErrorBuilder) WithUserMessage(userMessage string) *ErrorBuilder {
	eb.err.UserMessage = userMessage
	return eb
}

// WithOperation sets the operation that failed
func (eb *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	eb.err.Operation = operation
	return eb
}

// WithCause sets the underlying error
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.err.Cause = cause
	return eb
}

// WithContext adds contextual information to the error
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.err.Context[key] = value
	return eb
}

// WithRecoverable sets whether the error is recoverable
func (eb *ErrorBuilder) WithRecoverable(recoverable bool) *ErrorBuilder {
	eb.err.Recoverable = recoverable
	return eb
}

// WithActions sets custom recovery actions
func (eb *ErrorBuilder) WithActions(actions []Action) *ErrorBuilder {
	eb.err.Actions = actions
	return eb
}

// WithStackTrace enables stack trace capture
func (eb *ErrorBuilder) WithStackTrace() *ErrorBuilder {
	eb.captureStack = true
	return eb
}

// Build creates the contextual error and logs it at a level matching its
// severity
func (eb *ErrorBuilder) Build() *ContextualError {
	if eb.captureStack {
		eb.err.StackTrace = captureStackTrace(3)
	}
	if eb.err.Message == "" {
		if sentinel, ok := sentinels[eb.err.Type]; ok {
			eb.err.Message = sentinel.Error()
		} else {
			eb.err.Message = string(eb.err.Type)
		}
	}

	logFields := map[string]interface{}{
		"error_type":  eb.err.Type,
		"severity":    eb.err.Severity,
		"recoverable": eb.err.Recoverable,
	}
	if eb.err.Operation != "" {
		logFields["operation"] = eb.err.Operation
	}
	for k, v := range eb.err.Context {
		logFields["ctx_"+k] = v
	}

	logMessage := eb.err.Message
	if eb.err.Cause != nil {
		logMessage = fmt.Sprintf("%s: %v", eb.err.Message, eb.err.Cause)
	}

	loggerWithFields := eb.logger.WithFields(logFields)

	switch eb.err.Severity {
	case SeverityCritical, SeverityHigh:
		loggerWithFields.Error(logMessage)
	case SeverityMedium:
		loggerWithFields.Warn(logMessage)
	case SeverityLow:
		loggerWithFields.Debug(logMessage)
	}

	return eb.err
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) []string {
	var traces []string
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		funcName := "unknown"
		if fn != nil {
			funcName = fn.Name()
		}

		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}

		traces = append(traces, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return traces
}

// Component-specific error builders
func NewTransportError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeTransport, component).WithSeverity(SeverityMedium)
}

func NewProbeTimeoutError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeProbeTimeout, component).WithSeverity(SeverityMedium)
}

func NewReconnectExhaustedError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeReconnectExhausted, component).
		WithSeverity(SeverityHigh).
		WithRecoverable(false).
		WithUserMessage("Connection failed. Please try reconnecting manually.")
}

func NewSendFailureError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeSendFailure, component).WithSeverity(SeverityLow)
}

func NewConfigurationError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeConfiguration, component).WithSeverity(SeverityMedium)
}

func NewProtocolError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeProtocol, component).WithSeverity(SeverityMedium)
}

func NewRenderError(component string) *ErrorBuilder {
	return NewErrorBuilder(ErrorTypeRender, component).WithSeverity(SeverityHigh)
}

// ErrorChain collects related errors, e.g. profile validation failures
type ErrorChain struct {
	errors []error
	logger *logging.Logger
}

// NewErrorChain creates a new error chain
func NewErrorChain(logger *logging.Logger) *ErrorChain {
	return &ErrorChain{
		errors: make([]error, 0),
		logger: logger,
	}
}

// Add appends an error to the chain
func (ec *ErrorChain) Add(err error) *ErrorChain {
	if err != nil {
		ec.errors = append(ec.errors, err)
		if ec.logger != nil {
			ec.logger.Debug("Error added to chain", "error", err.Error(), "chain_length", len(ec.errors))
		}
	}
	return ec
}

// HasErrors returns true if the chain contains any errors
func (ec *ErrorChain) HasErrors() bool {
	return len(ec.errors) > 0
}

// GetErrors returns all errors in the chain
func (ec *ErrorChain) GetErrors() []error {
	return ec.errors
}

// Join returns the chain as a single error, or nil when empty
func (ec *ErrorChain) Join() error {
	if !ec.HasErrors() {
		return nil
	}
	return stderrors.Join(ec.errors...)
}
