package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/arm-control/acc/internal/auth"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp  time.Time              `json:"ts"`
	User       string                 `json:"user"`
	Controller string                 `json:"controller"`
	Action     string                 `json:"action"`
	Params     map[string]interface{} `json:"params,omitempty"`
	Outcome    string                 `json:"outcome"`
	Code       string                 `json:"code"`
	LatencyMs  float64                `json:"latencyMs"`
}

// Options configure log rotation.
type Options struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger writes audit records as JSON lines to a rotating file.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// NewLogger creates an audit logger writing to <dir>/audit.jsonl.
func NewLogger(dir string, opts Options) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &Logger{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "audit.jsonl"),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		},
	}, nil
}

// LogAction records a command or lifecycle action with its outcome.
func (l *Logger) LogAction(ctx context.Context, action, controller, result string, latency time.Duration) {
	entry := Entry{
		Timestamp:  time.Now().UTC(),
		User:       userFromContext(ctx),
		Controller: controller,
		Action:     action,
		Outcome:    result,
		Code:       codeFromResult(result),
		LatencyMs:  float64(latency.Microseconds()) / 1000.0,
	}
	l.writeEntry(entry)
}

// LogCommand records a command ingress with its payload parameters.
func (l *Logger) LogCommand(ctx context.Context, action, controller string, params map[string]interface{}, err error, latency time.Duration) {
	outcome := "SUCCESS"
	if err != nil {
		outcome = "ERROR"
	}

	entry := Entry{
		Timestamp:  time.Now().UTC(),
		User:       userFromContext(ctx),
		Controller: controller,
		Action:     action,
		Params:     params,
		Outcome:    outcome,
		Code:       codeFromError(err),
		LatencyMs:  float64(latency.Microseconds()) / 1000.0,
	}
	l.writeEntry(entry)
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}

func (l *Logger) writeEntry(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal audit entry: %v\n", err)
		return
	}
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write audit entry: %v\n", err)
	}
}

// userFromContext extracts the authenticated subject, "unknown" when the
// API runs without auth.
func userFromContext(ctx context.Context) string {
	if claims, ok := ctx.Value(auth.ClaimsKey).(*auth.Claims); ok && claims.Subject != "" {
		return claims.Subject
	}
	return "unknown"
}

func codeFromResult(result string) string {
	switch result {
	case "SUCCESS", "NOT_FOUND", "BAD_REQUEST", "UNAVAILABLE", "ERROR",
		"INVALID_TRANSITION", "ALREADY_LOADED", "CLAIM_FAILED", "UNKNOWN_TYPE":
		return result
	default:
		return "UNKNOWN"
	}
}

func codeFromError(err error) string {
	if err == nil {
		return "SUCCESS"
	}
	for _, code := range []string{"NO_SUBSCRIBER", "NOT_FOUND", "BAD_REQUEST", "INVALID_TRANSITION", "UNAVAILABLE"} {
		if strings.Contains(err.Error(), code) {
			return code
		}
	}
	return "ERROR"
}
