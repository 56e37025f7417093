package router

import (
	"fmt"
	"net/http"
	"os"

	"feedback-hub/backend/api"
	"feedback-hub/backend/pkg/validator"

	"github.com/gin-gonic/gin"
)

// AddOpenAPIValidation validates API requests against the embedded schema,
// or against schemaPath when one is given, and serves the schema at
// /api/docs/openapi.yaml.
func (r *Router) AddOpenAPIValidation(schemaPath string) error {
	var (
		v      *validator.OpenAPIValidator
		schema []byte
		err    error
	)

	if schemaPath != "" {
		schema, err = os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read OpenAPI schema: %w", err)
		}
		v, err = validator.NewOpenAPIValidatorFromFile(schemaPath)
	} else {
		schema = api.OpenAPI
		v, err = validator.NewOpenAPIValidator(schema)
	}
	if err != nil {
		return err
	}

	r.Engine.Use(v.Middleware())
	r.Engine.GET("/api/docs/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", schema)
	})

	source := schemaPath
	if source == "" {
		source = "embedded"
	}
	r.Logger.Info("OpenAPI validation enabled", "schema", source, "url", "/api/docs/openapi.yaml")
	return nil
}
