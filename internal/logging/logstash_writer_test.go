package logging

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"
)

func TestLogstashWriter_SendsJSONLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []logstashEvent, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		var events []logstashEvent
		for scanner.Scan() {
			var ev logstashEvent
			if err := json.Unmarshal(scanner.Bytes(), &ev); err == nil {
				events = append(events, ev)
			}
			if len(events) == 2 {
				break
			}
		}
		received <- events
	}()

	w, err := NewLogstashWriter(ln.Addr().String(), WithService("lms-test"))
	if err != nil {
		t.Fatalf("NewLogstashWriter: %v", err)
	}
	w.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	n, err := w.Write([]byte("first line\nsecond line\n"))
	if err != nil || n != len("first line\nsecond line\n") {
		t.Fatalf("Write returned %d, %v", n, err)
	}

	select {
	case events := <-received:
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Message != "first line" || events[1].Message != "second line" {
			t.Fatalf("unexpected messages %+v", events)
		}
		if events[0].Service != "lms-test" || events[0].Timestamp != "2024-01-02T03:04:05Z" {
			t.Fatalf("unexpected event metadata %+v", events[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for events")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := w.Write([]byte("late")); err != io.ErrClosedPipe {
		t.Fatalf("expected ErrClosedPipe after close, got %v", err)
	}
}

func TestLogstashWriter_DropsWhileUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	w, err := NewLogstashWriter(addr, WithDialTimeout(100*time.Millisecond), WithRetryInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewLogstashWriter: %v", err)
	}
	if n, err := w.Write([]byte("lost")); err != nil || n != 4 {
		t.Fatalf("expected silent drop, got %d, %v", n, err)
	}
	if w.nextRetry.IsZero() {
		t.Fatalf("expected retry window after failed dial")
	}
	if err := w.connectLocked(); err != errRetryCooldown {
		t.Fatalf("expected cooldown, got %v", err)
	}
}

func TestNewLogstashWriter_RequiresAddress(t *testing.T) {
	if _, err := NewLogstashWriter("  "); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
