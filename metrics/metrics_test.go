package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstrumentedRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.NotFoundHandler = InstrumentHandler(http.NotFoundHandler())
	r.HandleFunc("/api/invest/plan-info/{amount}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)
	return r
}

func TestInstrumentHandlerCountsRequests(t *testing.T) {
	r := newInstrumentedRouter()

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/invest/plan-info/{amount}", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/invest/plan-info/5", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/invest/plan-info/{amount}", "418"))

	assert.Equal(t, before+1, after)
}

func TestInstrumentHandlerBoundsPathLabels(t *testing.T) {
	r := newInstrumentedRouter()

	// Prime both series so the count below only measures growth.
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/invest/plan-info/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	before := testutil.CollectAndCount(httpRequests)
	unmatched := testutil.ToFloat64(httpRequests.WithLabelValues("GET", UnmatchedRoute, "404"))

	for i := 0; i < 500; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/invest/plan-info/x"+strconv.Itoa(i), nil))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/"+strconv.Itoa(i), nil))
	}

	assert.Equal(t, before, testutil.CollectAndCount(httpRequests))
	assert.Equal(t, unmatched+500, testutil.ToFloat64(httpRequests.WithLabelValues("GET", UnmatchedRoute, "404")))
}

func TestHandlerExposesBusinessCounters(t *testing.T) {
	RecordCallback("credited")
	RecordWithdrawal("insufficient")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `psa_invest_callbacks_total{result="credited"}`))
	assert.True(t, strings.Contains(body, `psa_withdraw_requests_total{result="insufficient"}`))
}
