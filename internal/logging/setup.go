package logging

import (
	"io"
	"log"
	"os"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup points the standard logger at stderr, mirrored to Logstash when
// logstashAddr is set. The returned closer releases the Logstash connection.
func Setup(service, logstashAddr string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if logstashAddr == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}
	writer, err := NewLogstashWriter(logstashAddr, WithService(service))
	if err != nil {
		log.Printf("logging: logstash disabled: %v", err)
		return nopCloser{}
	}
	log.SetOutput(io.MultiWriter(os.Stderr, writer))
	log.Printf("logging: mirroring logs to logstash at %s", logstashAddr)
	return writer
}
