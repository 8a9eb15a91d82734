package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	requestSummaryKey  = "log.request.body"
	responseSummaryKey = "log.response.body"

	maxLoggedBody = 2048
	redacted      = "redacted"
	binaryBody    = "binary"
)

// secretFieldParts marks request fields that never reach the log: account
// passwords, OTP codes, and bearer or temp tokens.
var secretFieldParts = []string{"password", "otp", "token"}

type accessLogEntry struct {
	Time      string `json:"time"`
	Principal string `json:"principal_id"`
	Kind      string `json:"principal_kind,omitempty"`
	Batch     string `json:"batch,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Request   struct {
		Method string      `json:"method"`
		URI    string      `json:"uri"`
		Body   interface{} `json:"body,omitempty"`
	} `json:"request"`
	Response struct {
		Status int         `json:"status"`
		Body   interface{} `json:"body,omitempty"`
		Error  string      `json:"error,omitempty"`
	} `json:"response"`
}

func skipAccessLog(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/health" || strings.HasPrefix(path, "/swagger/")
}

// registerLogging writes one JSON line per request with credential fields
// scrubbed from both bodies.
func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skipAccessLog,
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := accessLogEntry{
				Time:      v.StartTime.Format(time.RFC3339),
				Principal: "anonymous",
				LatencyMS: v.Latency.Milliseconds(),
			}
			if p, ok := CurrentPrincipal(c); ok {
				entry.Principal = p.ID.String()
				entry.Kind = string(p.Kind)
				if p.IsStudent() {
					entry.Batch = p.Student.Batch
				}
			}
			entry.Request.Method = v.Method
			entry.Request.URI = v.URI
			entry.Request.Body = c.Get(requestSummaryKey)
			entry.Response.Status = v.Status
			entry.Response.Body = c.Get(responseSummaryKey)
			if v.Error != nil {
				entry.Response.Error = v.Error.Error()
			}

			line, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			log.Println(string(line))
			return nil
		},
	}))

	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: skipAccessLog,
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			if s := sanitizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); s != nil {
				c.Set(requestSummaryKey, s)
			}
			if s := sanitizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); s != nil {
				c.Set(responseSummaryKey, s)
			}
		},
	}))
}

// sanitizeBody turns a raw body into something safe to log. Secrets are
// replaced, binary content is collapsed and large documents are previewed.
func sanitizeBody(body []byte, contentType string) interface{} {
	if len(body) == 0 {
		return nil
	}
	mediaType := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case strings.HasPrefix(mediaType, echo.MIMEMultipartForm):
		return scrubMultipart(body, contentType)
	case strings.HasPrefix(mediaType, echo.MIMEApplicationJSON) || json.Valid(body):
		var doc interface{}
		if err := json.Unmarshal(body, &doc); err == nil {
			return capSize(scrubValue(doc, ""))
		}
	case strings.HasPrefix(mediaType, echo.MIMEApplicationForm):
		if values, err := url.ParseQuery(string(body)); err == nil && len(values) > 0 {
			return capSize(scrubForm(values))
		}
	}

	if looksBinary(body) {
		return binaryBody
	}
	text := string(body)
	if isSecretField(strings.ToLower(text)) {
		return redacted
	}
	return truncateText(text, maxLoggedBody)
}

func isSecretField(lowerName string) bool {
	for _, part := range secretFieldParts {
		if strings.Contains(lowerName, part) {
			return true
		}
	}
	return false
}

func scrubForm(values url.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for key, vals := range values {
		field := strings.ToLower(key)
		if isSecretField(field) {
			out[key] = redacted
			continue
		}
		for _, v := range vals {
			appendField(out, key, scrubString(v, field))
		}
	}
	return out
}

func scrubValue(value interface{}, field string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, child := range v {
			name := strings.ToLower(key)
			if isSecretField(name) {
				out[key] = redacted
				continue
			}
			out[key] = scrubValue(child, name)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = scrubValue(v[i], field)
		}
		return out
	case string:
		return scrubString(v, field)
	}
	return value
}

func scrubString(value, field string) string {
	switch {
	case field != "" && isSecretField(field):
		return redacted
	case looksBinary([]byte(value)):
		return binaryBody
	}
	return truncateText(value, maxLoggedBody)
}

// scrubMultipart logs form fields of a multipart upload and replaces file
// parts such as submission attachments or roster CSVs with a marker.
func scrubMultipart(body []byte, contentType string) interface{} {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return binaryBody
	}

	fields := map[string]interface{}{}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return binaryBody
		}
		name := part.FormName()
		if name != "" {
			var value interface{} = binaryBody
			if part.FileName() == "" {
				if data, err := io.ReadAll(part); err == nil {
					value = scrubString(string(data), strings.ToLower(name))
				}
			}
			appendField(fields, name, value)
		}
		_ = part.Close()
	}
	if len(fields) == 0 {
		return binaryBody
	}
	return capSize(fields)
}

func appendField(fields map[string]interface{}, key string, value interface{}) {
	existing, ok := fields[key]
	if !ok {
		fields[key] = value
		return
	}
	if list, isList := existing.([]interface{}); isList {
		fields[key] = append(list, value)
		return
	}
	fields[key] = []interface{}{existing, value}
}

// capSize replaces documents whose encoding exceeds maxLoggedBody with a
// bounded preview.
func capSize(value interface{}) interface{} {
	encoded, err := json.Marshal(value)
	if err != nil || len(encoded) <= maxLoggedBody {
		return value
	}
	return map[string]interface{}{
		"_truncated": true,
		"_preview":   previewLimits{depth: 3, keys: 6, items: 3, text: 256}.of(value, 0),
	}
}

type previewLimits struct {
	depth int
	keys  int
	items int
	text  int
}

func (l previewLimits) of(value interface{}, depth int) interface{} {
	if depth >= l.depth {
		return "...(omitted)..."
	}
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, l.keys+1)
		for i, k := range keys {
			if i == l.keys {
				out["_omitted_fields"] = len(keys) - i
				break
			}
			out[k] = l.of(v[k], depth+1)
		}
		return out
	case []interface{}:
		if len(v) == 0 {
			return []interface{}{}
		}
		out := map[string]interface{}{"_total_items": len(v)}
		var sample []interface{}
		for i := 0; i < len(v) && i < l.items; i++ {
			sample = append(sample, l.of(v[i], depth+1))
		}
		out["_sample"] = sample
		if len(v) > len(sample) {
			out["_omitted_items"] = len(v) - len(sample)
		}
		return out
	case string:
		return truncateText(v, l.text)
	}
	return value
}

func looksBinary(data []byte) bool {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return true
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return true
		}
		data = data[size:]
	}
	return false
}

func truncateText(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := value[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "...(truncated)"
}
