package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func metricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	return router, reader
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_NilMeterProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsWithMeter_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), false))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	rm := collectMetrics(t, reader)
	assert.Nil(t, findMetricByName(rm, "http_server_request_total"))
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/admin/:resource", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for _, path := range []string{"/admin/leases", "/admin/rfqs", "/admin/tender-bonds"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "routes are recorded by pattern")
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	route, ok := sum.DataPoints[0].Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "/admin/:resource", route.AsString())
}

func TestHTTPMetricsWithMeter_StatusCodes(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/ok", "/missing", "/fail"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rm := collectMetrics(t, reader)
	sum, ok := findMetricByName(rm, "http_server_request_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byClass := map[string]int64{}
	for _, dp := range sum.DataPoints {
		class, _ := dp.Attributes.Value("http.status_class")
		byClass[class.AsString()] += dp.Value
	}
	assert.Equal(t, int64(2), byClass["2xx"])
	assert.Equal(t, int64(1), byClass["4xx"])
	assert.Equal(t, int64(1), byClass["5xx"])
}

func TestHTTPMetricsWithMeter_Duration(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, m)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestHTTPMetricsWithMeter_BodySizes(t *testing.T) {
	router, reader := metricsRouter(t)
	router.POST("/admin/:resource", func(c *gin.Context) {
		c.String(http.StatusCreated, strings.Repeat("x", 256))
	})

	body := `{"fields":{"name":"Warehouse lease"}}`
	req := httptest.NewRequest(http.MethodPost, "/admin/leases", strings.NewReader(body))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rm := collectMetrics(t, reader)

	reqSize := findMetricByName(rm, "http_server_request_size_bytes")
	require.NotNil(t, reqSize)
	reqHist := reqSize.Data.(metricdata.Histogram[float64])
	require.Len(t, reqHist.DataPoints, 1)
	assert.Equal(t, float64(len(body)), reqHist.DataPoints[0].Sum)

	respSize := findMetricByName(rm, "http_server_response_size_bytes")
	require.NotNil(t, respSize)
	respHist := respSize.Data.(metricdata.Histogram[float64])
	require.Len(t, respHist.DataPoints, 1)
	assert.Equal(t, float64(256), respHist.DataPoints[0].Sum)
}

func TestHTTPMetricsWithMeter_ActiveRequestsSettle(t *testing.T) {
	router, reader := metricsRouter(t)
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestHTTPMetricsWithMeter_UnmatchedRoute(t *testing.T) {
	router, reader := metricsRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/42", nil))

	rm := collectMetrics(t, reader)
	sum := findMetricByName(rm, "http_server_request_total").Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value("http.route")
	assert.Equal(t, "unknown", route.AsString())
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		201: "2xx",
		302: "3xx",
		404: "4xx",
		429: "4xx",
		500: "5xx",
		503: "5xx",
		100: "other",
	}
	for status, want := range tests {
		assert.Equal(t, want, StatusClass(status), "status %d", status)
	}
}
