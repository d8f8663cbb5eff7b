package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MarcoPoloResearchLab/ost/internal/command"
	"github.com/MarcoPoloResearchLab/ost/internal/ost"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/memory"
	"github.com/MarcoPoloResearchLab/ost/internal/wire"
)

type testServer struct {
	handler http.Handler
	changes *ChangeFeed
}

func newTestServer(testContext *testing.T) testServer {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	engine, err := memory.New(nil)
	if err != nil {
		testContext.Fatalf("memory engine: %v", err)
	}
	registry := prometheus.NewRegistry()
	metrics, err := command.NewMetrics(registry)
	if err != nil {
		testContext.Fatalf("metrics: %v", err)
	}
	changes := NewChangeFeed()
	dispatcher, err := command.NewDispatcher(command.DispatcherConfig{Context: engine, Notifier: changes, Metrics: metrics})
	if err != nil {
		testContext.Fatalf("dispatcher: %v", err)
	}
	queue := command.NewQueue()
	stopped := make(chan struct{})
	go func() {
		dispatcher.Run(queue)
		close(stopped)
	}()
	testContext.Cleanup(func() {
		close(queue)
		<-stopped
	})

	handler, err := NewHTTPHandler(Dependencies{
		Queue:     queue,
		Changes:   changes,
		Gatherer:  registry,
		Heartbeat: time.Hour,
	})
	if err != nil {
		testContext.Fatalf("handler: %v", err)
	}
	return testServer{handler: handler, changes: changes}
}

func (s testServer) do(testContext *testing.T, method, path, body string) *httptest.ResponseRecorder {
	testContext.Helper()
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, http.NoBody)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func TestNewHTTPHandlerRequiresQueue(testContext *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{}); !errors.Is(err, errMissingQueue) {
		testContext.Fatalf("expected missing queue error, got %v", err)
	}
}

func TestRoutesServeContextOperations(testContext *testing.T) {
	server := newTestServer(testContext)

	added := server.do(testContext, http.MethodPost, "/api/persons", `{"name":"Zardoz"}`)
	if added.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d", added.Code)
	}
	var serializedPerson string
	if err := wire.DecodeResult(added.Body.String(), &serializedPerson); err != nil {
		testContext.Fatalf("decode add person: %v (%s)", err, added.Body.String())
	}
	person, err := ost.DeserializePerson(serializedPerson)
	if err != nil {
		testContext.Fatalf("deserialize person: %v", err)
	}

	feeding := server.do(testContext, http.MethodPost, "/api/feedings/add",
		`{"person_key":{"id":0},"breast_milk":11,"formula":22,"solids":33}`)
	if !strings.HasPrefix(feeding.Body.String(), `{"Ok":`) {
		testContext.Fatalf("unexpected add feeding reply %s", feeding.Body.String())
	}

	feedings, err := wire.DecodeList(server.do(testContext, http.MethodGet, "/api/feedings", "").Body.String())
	if err != nil || len(feedings) != 1 {
		testContext.Fatalf("expected one feeding, got %v (%v)", feedings, err)
	}
	byKey := server.do(testContext, http.MethodPost, "/api/feedings", `{"event_key":{"t":"Feed","id":0}}`)
	if serialized, ok, err := wire.DecodeOption(byKey.Body.String()); err != nil || !ok || serialized != feedings[0] {
		testContext.Fatalf("unexpected by-key reply %s", byKey.Body.String())
	}

	person.IsActive = false
	renamed := server.do(testContext, http.MethodPost, "/api/person",
		`{"person_key":{"id":0},"serialized_person":`+jsonString(person.Serialize())+`}`)
	if renamed.Body.String() != `{"Ok":null}` {
		testContext.Fatalf("unexpected modify person reply %s", renamed.Body.String())
	}

	event := server.do(testContext, http.MethodPost, "/api/events/add", `{"person_key":{"id":0},"new_event":{"Temperature":37.5}}`)
	if !strings.Contains(event.Body.String(), "Temperature") {
		testContext.Fatalf("unexpected add event reply %s", event.Body.String())
	}
	removed := server.do(testContext, http.MethodPost, "/api/events/remove", `{"event_key":{"t":"Event","id":0}}`)
	if removed.Body.String() != `{"Ok":null}` {
		testContext.Fatalf("unexpected remove reply %s", removed.Body.String())
	}

	reset := server.do(testContext, http.MethodPost, "/api/admin/reset", "")
	if reset.Body.String() != `{"Ok":null}` {
		testContext.Fatalf("unexpected reset reply %s", reset.Body.String())
	}
	if persons := server.do(testContext, http.MethodGet, "/api/persons", ""); persons.Body.String() != "[]" {
		testContext.Fatalf("expected no persons after reset, got %s", persons.Body.String())
	}
}

func TestFailedOperationsStillAnswerOK(testContext *testing.T) {
	server := newTestServer(testContext)
	recorder := server.do(testContext, http.MethodPost, "/api/feedings/add-fake-count", `{"count":3}`)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d", recorder.Code)
	}
	var remote *wire.RemoteError
	if err := wire.DecodeResult(recorder.Body.String(), nil); !errors.As(err, &remote) {
		testContext.Fatalf("expected Err reply, got %s", recorder.Body.String())
	}
}

func TestRoutesRejectInvalidBodies(testContext *testing.T) {
	server := newTestServer(testContext)

	testCases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "malformed json", path: "/api/persons", body: `{"name":`, status: http.StatusBadRequest},
		{name: "unknown event kind", path: "/api/events", body: `{"event_key":{"t":"Bogus","id":1}}`, status: http.StatusBadRequest},
		{name: "oversized body", path: "/api/persons", body: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, status: http.StatusRequestEntityTooLarge},
	}
	for _, testCase := range testCases {
		testContext.Run(testCase.name, func(testContext *testing.T) {
			recorder := server.do(testContext, http.MethodPost, testCase.path, testCase.body)
			if recorder.Code != testCase.status {
				testContext.Fatalf("expected %d, got %d (%s)", testCase.status, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestRoutesRejectMissingPayloadFields(testContext *testing.T) {
	server := newTestServer(testContext)
	server.do(testContext, http.MethodPost, "/api/persons", `{"name":"Zardoz"}`)
	server.do(testContext, http.MethodPost, "/api/events/add", `{"person_key":{"id":0},"new_event":"Bath"}`)
	server.do(testContext, http.MethodPost, "/api/expulsions/add", `{"person_key":{"id":0},"expulsion_degree":"Pee"}`)

	testCases := []struct {
		name string
		path string
		body string
	}{
		{name: "add event without payload", path: "/api/events/add", body: `{"person_key":{"id":0}}`},
		{name: "modify event without payload", path: "/api/event", body: `{"event_key":{"t":"Event","id":0},"time_stamp":"2024-05-06T07:08:09Z"}`},
		{name: "add expulsion without degree", path: "/api/expulsions/add", body: `{"person_key":{"id":0}}`},
		{name: "modify expulsion without degree", path: "/api/expulsion", body: `{"event_key":{"t":"Expulsion","id":0},"time_stamp":"2024-05-06T07:08:09Z"}`},
	}
	for _, testCase := range testCases {
		testContext.Run(testCase.name, func(testContext *testing.T) {
			recorder := server.do(testContext, http.MethodPost, testCase.path, testCase.body)
			if recorder.Code != http.StatusBadRequest {
				testContext.Fatalf("expected 400, got %d (%s)", recorder.Code, recorder.Body.String())
			}
		})
	}

	events, err := wire.DecodeList(server.do(testContext, http.MethodGet, "/api/events", "").Body.String())
	if err != nil || len(events) != 1 || !strings.Contains(events[0], `"Bath"`) {
		testContext.Fatalf("expected the stored bath to remain, got %v (%v)", events, err)
	}
	expulsions, err := wire.DecodeList(server.do(testContext, http.MethodGet, "/api/expulsions", "").Body.String())
	if err != nil || len(expulsions) != 1 || !strings.Contains(expulsions[0], `"Pee"`) {
		testContext.Fatalf("expected the stored expulsion to remain, got %v (%v)", expulsions, err)
	}
}

func TestRequestIDIsAssignedOrEchoed(testContext *testing.T) {
	server := newTestServer(testContext)

	recorder := server.do(testContext, http.MethodGet, "/healthz", "")
	if recorder.Code != http.StatusOK || recorder.Body.String() != `{"status":"ok"}` {
		testContext.Fatalf("unexpected health response %d %s", recorder.Code, recorder.Body.String())
	}
	generated, err := uuid.Parse(recorder.Header().Get(requestIDHeader))
	if err != nil {
		testContext.Fatalf("expected uuid request id, got %q", recorder.Header().Get(requestIDHeader))
	}
	if generated.Version() != 7 {
		testContext.Fatalf("expected version 7 uuid, got %d", generated.Version())
	}

	request := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	request.Header.Set(requestIDHeader, "caller-123")
	echoed := httptest.NewRecorder()
	server.handler.ServeHTTP(echoed, request)
	if echoed.Header().Get(requestIDHeader) != "caller-123" {
		testContext.Fatalf("expected caller request id to be kept, got %q", echoed.Header().Get(requestIDHeader))
	}
}

func TestMetricsEndpointReportsCommands(testContext *testing.T) {
	server := newTestServer(testContext)
	server.do(testContext, http.MethodGet, "/api/persons", "")

	recorder := server.do(testContext, http.MethodGet, "/metrics", "")
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `ost_commands_total{command="get_persons",outcome="read"} 1`) {
		testContext.Fatalf("expected command counter in metrics output:\n%s", recorder.Body.String())
	}
}

func TestDispatchTimesOutWithoutDispatcher(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, err := NewHTTPHandler(Dependencies{Queue: make(chan command.Command), RequestTimeout: 20 * time.Millisecond})
	if err != nil {
		testContext.Fatalf("handler: %v", err)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/persons", http.NoBody))
	if recorder.Code != http.StatusServiceUnavailable {
		testContext.Fatalf("expected 503, got %d", recorder.Code)
	}
}

func jsonString(value string) string {
	encoded, _ := json.Marshal(value)
	return string(encoded)
}
