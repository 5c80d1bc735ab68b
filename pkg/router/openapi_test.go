package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"counseling-platform/backend/pkg/config"
	"counseling-platform/backend/pkg/di"
	"counseling-platform/backend/pkg/health"
	"counseling-platform/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const intakeSchema = `{
  "openapi": "3.0.3",
  "info": {"title": "counseling-platform", "version": "1.0.0"},
  "paths": {
    "/api/v1/requests": {
      "post": {
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["user_id", "problem_description"],
                "properties": {
                  "user_id": {"type": "integer"},
                  "problem_description": {"type": "string"}
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "created"}
        }
      }
    }
  }
}`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(intakeSchema), 0o644))
	return path
}

func newBareRouter() *Router {
	gin.SetMode(gin.TestMode)
	return &Router{
		Engine: gin.New(),
		Container: &di.Container{
			Health: health.NewChecker(logger.GetGlobal(), time.Minute),
		},
		Logger: logger.GetGlobal(),
		Config: config.Get(),
	}
}

func TestOpenAPIValidationRejectsInvalidBody(t *testing.T) {
	r := newBareRouter()
	require.NoError(t, r.AddOpenAPIValidation(writeSchema(t)))
	r.SetupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests",
		strings.NewReader(`{"user_id": 7}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")
}

func TestOpenAPIValidationAfterRoutesIsAnError(t *testing.T) {
	r := newBareRouter()
	r.SetupRoutes()

	err := r.AddOpenAPIValidation(writeSchema(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before routes")
}
