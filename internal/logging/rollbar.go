package logging

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/rollbar/rollbar-go"
)

// ErrorReporter forwards unexpected failures to an external tracker.
type ErrorReporter interface {
	ReportRequest(r *http.Request, err error)
	Report(ctx context.Context, err error, extras map[string]interface{})
	Close() error
}

type RollbarReporter struct {
	client *rollbar.Client
}

// NewErrorReporter returns a Rollbar reporter when token is set and a
// reporter that only logs otherwise.
func NewErrorReporter(token, environment, codeVersion, serverHost string) ErrorReporter {
	if strings.TrimSpace(token) == "" {
		return logReporter{}
	}
	client := rollbar.New(token, environment, codeVersion, serverHost, "")
	return &RollbarReporter{client: client}
}

func (r *RollbarReporter) ReportRequest(req *http.Request, err error) {
	r.client.RequestError(rollbar.ERR, req, err)
}

func (r *RollbarReporter) Report(ctx context.Context, err error, extras map[string]interface{}) {
	r.client.ErrorWithExtrasAndContext(ctx, rollbar.ERR, err, extras)
}

func (r *RollbarReporter) Close() error {
	return r.client.Close()
}

type logReporter struct{}

func (logReporter) ReportRequest(req *http.Request, err error) {
	log.Printf("error: %s %s: %v", req.Method, req.URL.Path, err)
}

func (logReporter) Report(ctx context.Context, err error, extras map[string]interface{}) {
	log.Printf("error: %v %v", err, extras)
}

func (logReporter) Close() error { return nil }
