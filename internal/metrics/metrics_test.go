package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveAuth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveAuth("token", "success")
	c.ObserveAuth("token", "success")
	c.ObserveAuth("basic", "failure")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.authAttempts.WithLabelValues("token", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authAttempts.WithLabelValues("basic", "failure")))
}

func TestCollector_ObserveCategoryOp(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveCategoryOp("attach", nil)
	c.ObserveCategoryOp("attach", errors.New("boom"))
	c.ObserveCategoryOp("detach", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.categoryOps.WithLabelValues("attach", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.categoryOps.WithLabelValues("attach", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.categoryOps.WithLabelValues("detach", "success")))
}

func TestCollector_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/acronyms/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/acronyms/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, testutil.CollectAndCount(c.httpDuration))

	families, err := reg.Gather()
	require.NoError(t, err)

	var labels map[string]string
	for _, mf := range families {
		if mf.GetName() != "til_http_request_duration_seconds" {
			continue
		}
		labels = map[string]string{}
		for _, lp := range mf.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
	}
	assert.Equal(t, "/api/acronyms/{id}", labels["route"])
	assert.Equal(t, "404", labels["status"])
	assert.Equal(t, "GET", labels["method"])
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObservePokemonLookup("remote", "real")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "til_pokeapi_lookups_total"))
}
