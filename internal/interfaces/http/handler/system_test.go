package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/citypaints/erp-sync/internal/interfaces/http/router"
)

func systemEngine() *gin.Engine {
	engine := gin.New()
	router.New(engine).
		Register(NewSystemHandler()).
		Setup()
	return engine
}

func TestHealth(t *testing.T) {
	rec := perform(t, systemEngine(), http.MethodGet, "/api/v1/system/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestGetSystemInfo(t *testing.T) {
	rec := perform(t, systemEngine(), http.MethodGet, "/api/v1/system/info")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "ERP Sync API", data["name"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}
