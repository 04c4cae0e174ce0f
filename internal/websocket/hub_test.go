package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp-backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("hub-test-secret")

func startHub(t *testing.T) (*Hub, string, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.Discard())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, testSecret) })
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", cancel
}

func dial(t *testing.T, url string, tenant uuid.UUID) *websocket.Conn {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(), "tenant_id": tenant.String(), "role": "staff",
	}).SignedString(testSecret)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubDeliversToOwnTenantOnly(t *testing.T) {
	hub, url, _ := startHub(t)
	tenant, other := uuid.New(), uuid.New()

	conn := dial(t, url, tenant)
	require.Eventually(t, func() bool { return hub.Clients(tenant) == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.Clients(other))

	hub.Publish(other, "stock.low", map[string]int{"stock": 1})
	hub.Publish(tenant, "invoice.created", map[string]string{"number": "INV-20260310-00001"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "invoice.created", msg.Event)
	assert.Equal(t, "INV-20260310-00001", msg.Data["number"])
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, url, _ := startHub(t)
	tenant := uuid.New()

	conn := dial(t, url, tenant)
	require.Eventually(t, func() bool { return hub.Clients(tenant) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients(tenant) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeWsRejectsBadTokens(t *testing.T) {
	_, url, _ := startHub(t)

	for _, query := range []string{"", "?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+query, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestStoppedHubReleasesConnections(t *testing.T) {
	hub, url, stop := startHub(t)
	tenant := uuid.New()

	conn := dial(t, url, tenant)
	require.Eventually(t, func() bool { return hub.Clients(tenant) == 1 }, time.Second, 10*time.Millisecond)

	stop()
	select {
	case <-hub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	require.NoError(t, conn.Close())

	// A connection arriving after shutdown is closed instead of waiting on the hub.
	late := dial(t, url, tenant)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := late.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
	assert.Zero(t, hub.Clients(tenant))
}
