package validator

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	apperrors "feedback-hub/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates requests and responses against OpenAPI specification
type OpenAPIValidator struct {
	swagger    *openapi3.T
	router     routers.Router
	schemaPath string
	mutex      sync.RWMutex
}

// NewOpenAPIValidator creates a validator from an in-memory document.
func NewOpenAPIValidator(data []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI schema: %w", err)
	}
	return newValidator(loader.Context, swagger, "")
}

// NewOpenAPIValidatorFromFile creates a validator from a schema on disk. The
// file can later be re-read with ReloadSchema.
func NewOpenAPIValidatorFromFile(schemaPath string) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI schema from %s: %w", schemaPath, err)
	}
	return newValidator(loader.Context, swagger, schemaPath)
}

func newValidator(ctx context.Context, swagger *openapi3.T, schemaPath string) (*OpenAPIValidator, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := swagger.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	router, err := gorillamux.NewRouter(swagger)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	return &OpenAPIValidator{
		swagger:    swagger,
		router:     router,
		schemaPath: schemaPath,
	}, nil
}

// Document returns the loaded OpenAPI document.
func (v *OpenAPIValidator) Document() *openapi3.T {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.swagger
}

// ReloadSchema reloads the OpenAPI schema from disk
func (v *OpenAPIValidator) ReloadSchema() error {
	if v.schemaPath == "" {
		return fmt.Errorf("schema was not loaded from a file")
	}
	if _, err := os.Stat(v.schemaPath); err != nil {
		return fmt.Errorf("failed to stat OpenAPI schema: %w", err)
	}

	fresh, err := NewOpenAPIValidatorFromFile(v.schemaPath)
	if err != nil {
		return err
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.swagger = fresh.swagger
	v.router = fresh.router
	return nil
}

func (v *OpenAPIValidator) findRoute(req *http.Request) (*routers.Route, map[string]string, error) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.router.FindRoute(req)
}

// Middleware returns a Gin middleware function that validates requests against the OpenAPI schema.
// Routes the document does not describe pass through untouched.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route, pathParams, err := v.findRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			_ = c.Error(requestError(err))
			c.Abort()
			return
		}

		c.Next()
	}
}

// requestError maps a kin-openapi failure to the API error envelope.
func requestError(err error) *apperrors.AppError {
	var reqErr *openapi3filter.RequestError
	if stderrors.As(err, &reqErr) {
		details := gin.H{"reason": reqErr.Error()}
		if reqErr.Parameter != nil {
			details["parameter"] = reqErr.Parameter.Name
		}
		return apperrors.BadRequestWithDetails(apperrors.CodeInvalidRequest, "request does not match the API schema", details).WithCause(err)
	}
	return apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "invalid request").WithCause(err)
}

// ValidateResponse checks a rendered response against the schema of the
// route that handled req. Unknown routes are not an error.
func (v *OpenAPIValidator) ValidateResponse(ctx context.Context, req *http.Request, status int, header http.Header, body []byte) error {
	route, pathParams, err := v.findRoute(req)
	if err != nil {
		return nil
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				ExcludeRequestBody: true,
			},
		},
		Status: status,
		Header: header,
	}
	input.SetBodyBytes(body)

	return openapi3filter.ValidateResponse(ctx, input)
}
