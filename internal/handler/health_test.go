package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"splat-service/internal/domain"
)

func TestHealth_ReportsDevice(t *testing.T) {
	f := setupRouter(t)
	f.rt.On("Info", mock.Anything).Return(&domain.DeviceInfo{Device: "cuda:0", CUDAAvailable: true}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["cuda_available"])
	assert.Equal(t, "cuda:0", resp["device"])
	assert.Equal(t, true, resp["aws_configured"])
}

func TestHealth_RuntimeUnreachableDegrades(t *testing.T) {
	f := setupRouter(t)
	f.rt.On("Info", mock.Anything).Return(nil, fmt.Errorf("connection refused"))

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, false, resp["cuda_available"])
	assert.Equal(t, "unknown", resp["device"])
}

func TestRoot_ServiceInfo(t *testing.T) {
	f := setupRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/splat")
	assert.Contains(t, w.Body.String(), "/health")
}
