package http

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
)

var defaultSpecPath = filepath.Join("docs", "swagger.yaml")

// apiDoc converts the YAML description to JSON on first use and keeps the
// result for the life of the process.
type apiDoc struct {
	path    string
	version string

	once sync.Once
	body []byte
	err  error
}

func (d *apiDoc) load() ([]byte, error) {
	d.once.Do(func() {
		data, err := os.ReadFile(d.path)
		if err != nil {
			d.err = pkgerrors.Wrap(err, "read api description")
			return
		}
		raw, err := yaml.YAMLToJSON(data)
		if err != nil {
			d.err = pkgerrors.Wrap(err, "convert api description")
			return
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			d.err = pkgerrors.Wrap(err, "decode api description")
			return
		}
		if d.version != "" {
			info, _ := doc["info"].(map[string]interface{})
			if info == nil {
				info = map[string]interface{}{}
			}
			info["version"] = d.version
			doc["info"] = info
		}
		d.body, d.err = json.Marshal(doc)
	})
	return d.body, d.err
}

// RegisterSwagger serves the API description at /swagger/doc.json, stamped
// with the running build version, and the UI under /swagger.
func RegisterSwagger(e *echo.Echo, specPath, version string) {
	if specPath == "" {
		specPath = defaultSpecPath
	}
	doc := &apiDoc{path: specPath, version: version}
	e.GET("/swagger/doc.json", func(c echo.Context) error {
		body, err := doc.load()
		if err != nil {
			c.Logger().Errorf("swagger: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to load API description")
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, body)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
