package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>{{.Name}} LMS API</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: #10243e; color: #fff; min-height: 100vh; display: flex; flex-direction: column; }
header { flex: 1; padding: 60px 20px; text-align: center; }
a { color: #7fd1ff; }
footer { text-align: center; padding: 20px; font-size: 14px; opacity: 0.8; }
</style>
</head>
<body>
<header>
  <h1>{{.Name}} Learning Platform</h1>
  <p>Classes, assignments and submissions for bootcamp students and instructors.</p>
  <p><a href="/swagger/index.html">API documentation</a> &middot; <a href="/health">Health</a></p>
</header>
<footer>Powered by the {{.Name}} LMS API</footer>
</body>
</html>`))

// RegisterPages serves the landing page at the site root.
func RegisterPages(e *echo.Echo, appName string) {
	name := strings.TrimSpace(appName)
	if name == "" {
		name = "CodeCamp"
	}
	e.GET("/", func(c echo.Context) error {
		var sb strings.Builder
		if err := landingPage.Execute(&sb, struct{ Name string }{name}); err != nil {
			return err
		}
		return c.HTML(http.StatusOK, sb.String())
	})
}
