package logging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kgraph/pkg/utils"
)

func TestRemoteCoreDeliversRecords(t *testing.T) {
	var mu sync.Mutex
	var received []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		mu.Lock()
		received = append(received, rec)
		mu.Unlock()
	}))
	defer server.Close()

	core := NewRemoteCore(server.URL, zapcore.InfoLevel)
	defer core.Close()
	logger := WithRemoteSink(zap.NewNop(), core)

	logger.Info("graph created")
	logger.Debug("not forwarded")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "info", received[0]["level"])
	assert.Equal(t, "graph created", received[0]["message"])
	_, err := utils.ParseRFC3339(received[0]["timestamp"])
	assert.NoError(t, err)
}

func TestRemoteCoreSwallowsDeliveryFailures(t *testing.T) {
	// Endpoint does not exist; logging must still work locally
	core := NewRemoteCore("http://127.0.0.1:1/logs", zapcore.InfoLevel)
	defer core.Close()
	logger := WithRemoteSink(zap.NewNop(), core)

	assert.NotPanics(t, func() {
		for i := 0; i < 500; i++ {
			logger.Warn("undeliverable")
		}
	})
}
