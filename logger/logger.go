package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// LogEntry defines the structure of a log line
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service"`
	Hostname  string                 `json:"hostname"`
	RequestID string                 `json:"request_id,omitempty"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Error     *ErrorObject           `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// ErrorObject for structured error logging
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack,omitempty"`
}

type Logger struct {
	service  string
	hostname string
	debug    bool
	stacks   bool

	mu  sync.Mutex
	out io.Writer
}

type Option func(*Logger)

// WithOutput redirects log lines, mainly for tests.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.out = w }
}

// WithDebug enables DEBUG lines and error stacks.
func WithDebug(enabled bool) Option {
	return func(l *Logger) {
		l.debug = enabled
		l.stacks = enabled
	}
}

func NewLogger(service string, opts ...Option) *Logger {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = getFallbackHostname()
	}
	l := &Logger{service: service, hostname: hostname, out: os.Stdout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Nop discards everything.
func Nop() *Logger {
	return NewLogger("nop", WithOutput(io.Discard))
}

func (l *Logger) Info(requestID, action, message string, extra map[string]interface{}) {
	l.log("INFO", action, message, requestID, nil, extra)
}

func (l *Logger) Warn(requestID, action, message string, extra map[string]interface{}) {
	l.log("WARN", action, message, requestID, nil, extra)
}

func (l *Logger) Debug(requestID, action, message string, extra map[string]interface{}) {
	if !l.debug {
		return
	}
	l.log("DEBUG", action, message, requestID, nil, extra)
}

func (l *Logger) Error(requestID, action, message string, err error, extra map[string]interface{}) {
	errorObj := &ErrorObject{}
	if err != nil {
		errorObj.Msg = err.Error()
	}
	if l.stacks {
		errorObj.Stack = string(debug.Stack())
	}
	l.log("ERROR", action, message, requestID, errorObj, extra)
}

func (l *Logger) log(level, action, message, requestID string, errObj *ErrorObject, extra map[string]interface{}) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Service:   l.service,
		Hostname:  l.hostname,
		RequestID: requestID,
		Action:    action,
		Message:   message,
		Error:     errObj,
		Extra:     extra,
	}

	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal log entry: %v\n", err)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(b, '\n'))
}

// Fallback if os.Hostname() fails
func getFallbackHostname() string {
	addrs, _ := net.InterfaceAddrs()
	if len(addrs) > 0 {
		return addrs[0].String()
	}
	return "unknown-host"
}
