package logging

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// LogstashWriter ships log lines to a Logstash tcp input using the
// json_lines codec. It never blocks the caller on network failures: while
// Logstash is unreachable lines are dropped until the retry window passes.
type LogstashWriter struct {
	addr          string
	service       string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration
	now           func() time.Time

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	closed    bool
}

type Option func(*LogstashWriter)

// WithDialTimeout defaults to 2 seconds.
func WithDialTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.dialTimeout = d }
}

// WithWriteTimeout defaults to 1 second.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.writeTimeout = d }
}

// WithRetryInterval sets the cool-down after a failed dial or write. Defaults
// to 5 seconds.
func WithRetryInterval(d time.Duration) Option {
	return func(w *LogstashWriter) { w.retryInterval = d }
}

// WithService tags every event with a service name.
func WithService(name string) Option {
	return func(w *LogstashWriter) { w.service = strings.TrimSpace(name) }
}

func NewLogstashWriter(addr string, opts ...Option) (*LogstashWriter, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}
	w := &LogstashWriter{
		addr:          addr,
		service:       "codecamp-lms",
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

type logstashEvent struct {
	Timestamp string `json:"@timestamp"`
	Service   string `json:"service"`
	Message   string `json:"message"`
}

// Write sends p as one event per line. It always reports success to the log
// package unless the writer was closed.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	payload, err := w.encode(p)
	if err != nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if err := w.connectLocked(); err != nil {
		return len(p), nil
	}
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	if _, err := w.conn.Write(payload); err != nil {
		w.dropConnLocked()
		w.backoffLocked()
	}
	return len(p), nil
}

func (w *LogstashWriter) encode(p []byte) ([]byte, error) {
	ts := w.now().UTC().Format(time.RFC3339Nano)
	var out []byte
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b, err := json.Marshal(logstashEvent{Timestamp: ts, Service: w.service, Message: line})
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
		out = append(out, '\n')
	}
	return out, nil
}

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.dropConnLocked()
}

func (w *LogstashWriter) connectLocked() error {
	if w.conn != nil {
		return nil
	}
	if !w.nextRetry.IsZero() && time.Now().Before(w.nextRetry) {
		return errRetryCooldown
	}
	conn, err := net.DialTimeout("tcp", w.addr, w.dialTimeout)
	if err != nil {
		w.backoffLocked()
		return err
	}
	w.conn = conn
	w.nextRetry = time.Time{}
	return nil
}

func (w *LogstashWriter) dropConnLocked() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *LogstashWriter) backoffLocked() {
	if w.retryInterval <= 0 {
		w.nextRetry = time.Time{}
		return
	}
	w.nextRetry = time.Now().Add(w.retryInterval)
}

var errRetryCooldown = errors.New("logstash: retry cooldown in effect")
