package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeBodyRedactsSecrets(t *testing.T) {
	body := []byte(`{"enrollmentNumber":"CC-1","otp":"123456","newPassword":"N3w#Passw0rd","tempToken":"abc","nested":{"token":"xyz","name":"Ada"}}`)

	got := sanitizeBody(body, "application/json")

	assert.Equal(t, map[string]interface{}{
		"enrollmentNumber": "CC-1",
		"otp":              "redacted",
		"newPassword":      "redacted",
		"tempToken":        "redacted",
		"nested": map[string]interface{}{
			"token": "redacted",
			"name":  "Ada",
		},
	}, got)
}

func TestSanitizeBodyFormAndText(t *testing.T) {
	form := sanitizeBody([]byte("email=a%40b.c&password=secret"), "application/x-www-form-urlencoded")
	assert.Equal(t, map[string]interface{}{"email": "a@b.c", "password": "redacted"}, form)

	assert.Equal(t, "redacted", sanitizeBody([]byte("otp was 123456"), "text/plain"))
	assert.Equal(t, "hello", sanitizeBody([]byte("hello"), "text/plain"))
	assert.Nil(t, sanitizeBody(nil, "application/json"))
}

func TestSanitizeBodyTruncatesLargeJSON(t *testing.T) {
	items := make([]byte, 0, 4096)
	items = append(items, '[')
	for i := 0; i < 600; i++ {
		if i > 0 {
			items = append(items, ',')
		}
		items = append(items, []byte(`"abcdef"`)...)
	}
	items = append(items, ']')

	got, ok := sanitizeBody(items, "application/json").(map[string]interface{})

	if assert.True(t, ok) {
		assert.Equal(t, true, got["_truncated"])
		preview := got["_preview"].(map[string]interface{})
		assert.Equal(t, 600, preview["_total_items"])
	}
}
