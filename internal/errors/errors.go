// Package errors provides a rooted error taxonomy with both a log-facing
// message (the full, technical Error() string) and a user-facing message
// suitable for CLI output and worker error events.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Kind roots every error in one of the five taxonomy branches named by the
// error handling design: Audio, Model, Transcription, Diarization, System.
type Kind string

const (
	KindAudio         Kind = "audio"
	KindModel         Kind = "model"
	KindTranscription Kind = "transcription"
	KindDiarization   Kind = "diarization"
	KindSystem        Kind = "system"
	KindGeneric       Kind = "generic"
)

// CategorizedError is an interface for errors that can specify their own kind.
type CategorizedError interface {
	error
	ErrorKind() Kind
}

// Priority constants for error prioritization.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with additional context and metadata.
type EnhancedError struct {
	Err         error          // Original error
	component   string         // Component where error occurred (lazily detected)
	Kind        Kind           // Root taxonomy branch
	Subkind     string         // e.g. "FileNotFound", "Failed", "Cancelled"
	UserMessage string         // Pre-rendered user-facing message, if set explicitly
	Priority    string         // Explicit priority override (optional)
	Context     map[string]any // Additional context data
	Timestamp   time.Time      // When the error occurred
	mu          sync.RWMutex
	detected    bool
}

func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Kind == ee2.Kind && ee.Subkind == ee2.Subkind
	}
	return Is(ee.Err, target)
}

func (ee *EnhancedError) ErrorKind() Kind {
	return ee.Kind
}

// GetComponent returns the component name, detecting it lazily if needed.
func (ee *EnhancedError) GetComponent() string {
	ee.mu.RLock()
	if ee.detected || ee.component != "" {
		component := ee.component
		ee.mu.RUnlock()
		return component
	}
	ee.mu.RUnlock()

	ee.mu.Lock()
	defer ee.mu.Unlock()
	if ee.component == "" && !ee.detected {
		ee.component = detectComponent()
		ee.detected = true
		if ee.component == "" {
			ee.component = ComponentUnknown
		}
	}
	return ee.component
}

// Message returns the user-facing message: the explicit UserMessage if set,
// otherwise a pattern-matched friendly rendering of the underlying error.
func (ee *EnhancedError) Message() string {
	if ee.UserMessage != "" {
		return ee.UserMessage
	}
	return FriendlyMessage(ee.Err)
}

func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	if ee.Context == nil {
		return nil
	}
	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// ErrorBuilder provides a fluent interface for creating enhanced errors.
type ErrorBuilder struct {
	err         error
	component   string
	kind        Kind
	subkind     string
	userMessage string
	priority    string
	context     map[string]any
}

// New creates a new error builder around a plain error.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new formatted error builder.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Kind sets the root taxonomy branch and, optionally, the leaf subkind.
func (eb *ErrorBuilder) Kind(kind Kind, subkind string) *ErrorBuilder {
	eb.kind = kind
	eb.subkind = subkind
	return eb
}

// UserFacing sets an explicit user-facing message, overriding pattern-based
// rendering in Message().
func (eb *ErrorBuilder) UserFacing(message string) *ErrorBuilder {
	eb.userMessage = message
	return eb
}

func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.priority = priority
	default:
		if priority != "" {
			eb.priority = PriorityMedium
		}
	}
	return eb
}

func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// FileContext adds file-specific context.
func (eb *ErrorBuilder) FileContext(filePath string, fileSize int64) *ErrorBuilder {
	if filePath != "" {
		eb.Context("file_extension", getFileExtension(filePath))
	}
	if fileSize > 0 {
		eb.Context("file_size_category", categorizeFileSize(fileSize))
	}
	return eb
}

// Build creates the EnhancedError.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:         eb.err,
		component:   eb.component,
		Kind:        eb.kind,
		Subkind:     eb.subkind,
		UserMessage: eb.userMessage,
		Priority:    eb.priority,
		Context:     eb.context,
		Timestamp:   time.Now(),
		detected:    eb.component != "",
	}
	if ee.component == "" {
		ee.component = ComponentUnknown
		ee.detected = true
	}
	if ee.Kind == "" {
		ee.Kind = KindGeneric
	}
	return ee
}

// Component registry for call-stack based component detection.
var (
	componentRegistry = make(map[string]string)
	registryMutex     sync.RWMutex
)

func RegisterComponent(packagePattern, componentName string) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	componentRegistry[packagePattern] = componentName
}

func init() {
	RegisterComponent("modelregistry", "modelregistry")
	RegisterComponent("audioio", "audioio")
	RegisterComponent("capture", "capture")
	RegisterComponent("transcriber", "transcriber")
	RegisterComponent("diarizer", "diarizer")
	RegisterComponent("fusion", "fusion")
	RegisterComponent("pipeline", "pipeline")
	RegisterComponent("batch", "batch")
	RegisterComponent("worker", "worker")
	RegisterComponent("output", "output")
	RegisterComponent("conf", "configuration")
}

func quickComponentLookup(depth int) string {
	pc, _, _, ok := runtime.Caller(depth)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	funcName := fn.Name()
	if strings.Contains(funcName, "github.com/tphakala/dictea-go/internal/errors") {
		return ""
	}
	return lookupComponent(funcName)
}

func detectComponent() string {
	for _, depth := range []int{4, 5, 6, 7} {
		if component := quickComponentLookup(depth); component != "" && component != ComponentUnknown {
			return component
		}
	}
	return detectComponentFull()
}

func detectComponentFull() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	if n == len(pcs) {
		pcs = make([]uintptr, 32)
		n = runtime.Callers(2, pcs)
	}
	for i := range n {
		fn := runtime.FuncForPC(pcs[i])
		if fn == nil {
			continue
		}
		funcName := fn.Name()
		if strings.Contains(funcName, "github.com/tphakala/dictea-go/internal/errors") {
			continue
		}
		if component := lookupComponent(funcName); component != ComponentUnknown {
			return component
		}
	}
	return ComponentUnknown
}

func lookupComponent(funcName string) string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	for pattern, component := range componentRegistry {
		if strings.Contains(funcName, pattern) {
			return component
		}
	}
	parts := strings.Split(funcName, "/")
	if len(parts) > 0 {
		lastPart := parts[len(parts)-1]
		if dotIndex := strings.Index(lastPart, "."); dotIndex > 0 {
			return lastPart[:dotIndex]
		}
	}
	return ComponentUnknown
}

func getFileExtension(path string) string {
	if lastDot := strings.LastIndex(path, "."); lastDot > 0 && lastDot < len(path)-1 {
		return strings.ToLower(path[lastDot+1:])
	}
	return "none"
}

func categorizeFileSize(size int64) string {
	switch {
	case size < 1024:
		return "tiny"
	case size < 1024*1024:
		return "small"
	case size < 10*1024*1024:
		return "medium"
	case size < 100*1024*1024:
		return "large"
	default:
		return "very-large"
	}
}

// FriendlyMessage translates a generic error into a user-facing message by
// pattern-matching the lower-cased error text, per the propagation policy:
// unclassified errors yield "An error occurred: <detail>".
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no space left"):
		return "No space left on device."
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "memory"):
		return "The system ran out of memory."
	case strings.Contains(msg, "connection"), strings.Contains(msg, "network"):
		return "A network connection error occurred."
	case strings.Contains(msg, "permission"):
		return "Permission denied."
	default:
		return fmt.Sprintf("An error occurred: %s", err.Error())
	}
}

// Standard library passthroughs, so this package can be used as a drop-in
// replacement for the standard errors package throughout the module.

func NewStd(text string) error {
	return stderrors.New(text)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsKind reports whether err is an EnhancedError of the given root kind.
func IsKind(err error, kind Kind) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && enhancedErr.Kind == kind
}
