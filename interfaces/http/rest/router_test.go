package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kgraph/application/editor"
	"kgraph/application/projection"
	"kgraph/infrastructure/persistence"
	"kgraph/infrastructure/persistence/kv"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type dispatched struct {
	State    string          `json:"state"`
	Snapshot editor.Snapshot `json:"snapshot"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	states := persistence.NewStateStore(kv.NewMemoryStore(), logger)
	ed := editor.New(editor.Params{
		States:         states,
		Logger:         logger,
		ViewportWindow: 20 * time.Millisecond,
	})
	t.Cleanup(ed.Close)

	server := httptest.NewServer(NewRouter(ed, logger, true).Setup())
	t.Cleanup(server.Close)
	return server
}

func postEvent(t *testing.T, server *httptest.Server, event map[string]interface{}) dispatched {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/api/v1/events", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)

	var result dispatched
	require.NoError(t, json.Unmarshal(envelope.Data, &result))
	return result
}

func getState(t *testing.T, server *httptest.Server) editor.Snapshot {
	t.Helper()
	resp, err := http.Get(server.URL + "/api/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	var snapshot editor.Snapshot
	require.NoError(t, json.Unmarshal(envelope.Data, &snapshot))
	return snapshot
}

func getElements(t *testing.T, server *httptest.Server, graphID string) projection.Elements {
	t.Helper()
	resp, err := http.Get(server.URL + "/api/v1/graphs/" + graphID + "/elements")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	var elements projection.Elements
	require.NoError(t, json.Unmarshal(envelope.Data, &elements))
	return elements
}

// openGraphWithNode drives the machine to a graph holding one placed,
// selected node with the given ID
func openGraphWithNode(t *testing.T, server *httptest.Server, nodeID string) {
	t.Helper()
	result := postEvent(t, server, map[string]interface{}{"type": "CREATE_GRAPH", "title": "Test Graph"})
	require.Equal(t, "graph_open.node_idle", result.State)

	postEvent(t, server, map[string]interface{}{"type": "START_NODE_CREATE"})
	result = postEvent(t, server, map[string]interface{}{"type": "ADD_NODE", "nodeId": nodeID, "label": "root"})
	require.Equal(t, "graph_open.creating_node", result.State)

	result = postEvent(t, server, map[string]interface{}{
		"type": "POSITION_SET", "nodeId": nodeID, "x": 100.0, "y": 100.0,
	})
	require.Equal(t, "graph_open.node_selected", result.State)
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestGetStateStartsIdle(t *testing.T) {
	server := newTestServer(t)

	snapshot := getState(t, server)

	assert.Equal(t, "app_idle", snapshot.State)
	assert.Empty(t, snapshot.Graphs)
}

func TestCreateGraphViaEvents(t *testing.T) {
	server := newTestServer(t)

	result := postEvent(t, server, map[string]interface{}{"type": "CREATE_GRAPH", "title": "My Graph"})

	assert.Equal(t, "graph_open.node_idle", result.State)
	require.Len(t, result.Snapshot.Graphs, 1)
	assert.Equal(t, "My Graph", result.Snapshot.Graphs[0].Title)
	assert.Equal(t, result.Snapshot.Graphs[0].ID, result.Snapshot.CurrentGraph)
}

func TestUnknownEventTypeRejected(t *testing.T) {
	server := newTestServer(t)

	body := []byte(`{"type":"WARP_DRIVE"}`)
	resp, err := http.Post(server.URL+"/api/v1/events", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMalformedEventBodyRejected(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/v1/events", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestElementsForUnknownGraphIs404(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/graphs/no-such-graph/elements")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNodeLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)
	openGraphWithNode(t, server, "root-node")
	snapshot := getState(t, server)

	elements := getElements(t, server, snapshot.CurrentGraph)

	require.Len(t, elements.Nodes, 1)
	assert.Equal(t, "root-node", elements.Nodes[0].ID)
	assert.True(t, elements.Nodes[0].Selected)
}

func TestViewportRoundTrip(t *testing.T) {
	server := newTestServer(t)
	openGraphWithNode(t, server, "root-node")
	snapshot := getState(t, server)

	body := []byte(`{"zoom":1.5,"pan":{"x":10,"y":-20}}`)
	req, err := http.NewRequest(http.MethodPut,
		server.URL+"/api/v1/graphs/"+snapshot.CurrentGraph+"/viewport", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The durable write goes through the coalescing throttle
	require.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/api/v1/graphs/" + snapshot.CurrentGraph + "/viewport")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var envelope apiResponse
		if json.NewDecoder(resp.Body).Decode(&envelope) != nil {
			return false
		}
		var vp struct {
			Zoom float64 `json:"zoom"`
		}
		return json.Unmarshal(envelope.Data, &vp) == nil && vp.Zoom == 1.5
	}, time.Second, 10*time.Millisecond)
}

func TestAddChildNodeEndpoint(t *testing.T) {
	server := newTestServer(t)
	openGraphWithNode(t, server, "parent-node")
	snapshot := getState(t, server)

	body := []byte(`{"label":"child"}`)
	resp, err := http.Post(server.URL+"/api/v1/nodes/parent-node/children",
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	elements := getElements(t, server, snapshot.CurrentGraph)

	assert.Len(t, elements.Nodes, 2)
	assert.Len(t, elements.Edges, 1)
}

func TestAddChildNodeRejectsEmptyLabel(t *testing.T) {
	server := newTestServer(t)
	openGraphWithNode(t, server, "parent-node")

	resp, err := http.Post(server.URL+"/api/v1/nodes/parent-node/children",
		"application/json", bytes.NewReader([]byte(`{"label":""}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLayoutEndpointPlacesUnplacedNodes(t *testing.T) {
	server := newTestServer(t)
	openGraphWithNode(t, server, "root-node")
	snapshot := getState(t, server)

	resp, err := http.Post(server.URL+"/api/v1/graphs/"+snapshot.CurrentGraph+"/layout",
		"application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	var result struct {
		Placed []string `json:"placed"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &result))
	// Every node already carries a position
	assert.Empty(t, result.Placed)
}

func TestExportFlow(t *testing.T) {
	server := newTestServer(t)
	openGraphWithNode(t, server, "root-node")

	postEvent(t, server, map[string]interface{}{"type": "EXPORT"})

	resp, err := http.Get(server.URL + "/api/v1/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Len(t, doc.Nodes, 1)
}

func TestExportBeforeAnyExportIs404(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
