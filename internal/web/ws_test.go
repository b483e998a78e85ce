package web_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/domain"
	"github.com/vitos/riskbox/internal/usecase"
	"github.com/vitos/riskbox/internal/web"
)

type wsFrame struct {
	Type     string                 `json:"type"`
	Snapshot *usecase.Snapshot      `json:"snapshot"`
	Prompt   *usecase.ConfirmPrompt `json:"prompt"`
}

func dialWS(t *testing.T, server *web.Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial ws: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// readFrame skips frames until one of the wanted type arrives.
func readFrame(t *testing.T, conn *websocket.Conn, wantType string) wsFrame {
	t.Helper()

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("Failed to read ws frame while waiting for %s: %v", wantType, err)
		}
		if frame.Type == wantType {
			return frame
		}
	}
}

func TestWS_SnapshotStream(t *testing.T) {
	server, service, _ := newTestServer(t)
	conn := dialWS(t, server)

	// The connection opens with the current state
	frame := readFrame(t, conn, "snapshot")
	if frame.Snapshot == nil {
		t.Fatal("Snapshot frame without a snapshot")
	}

	// A tick produces a fresh snapshot push
	waitInitialized(t, service)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frame = readFrame(t, conn, "snapshot")
		if frame.Snapshot.Initialized {
			break
		}
	}
	if !frame.Snapshot.Initialized || frame.Snapshot.EntryPrice != 4500 {
		t.Errorf("Pushed snapshot did not carry the new state: %+v", frame.Snapshot)
	}
}

func TestWS_ConfirmRoundTrip(t *testing.T) {
	cfg := usecase.ToolConfig{
		Instrument:         domain.Instrument{Symbol: "ES", TickSize: 0.25, TickValue: 12.5, Currency: "USD"},
		Risk:               usecase.RiskConfig{Mode: usecase.RiskModeFixedCash, Value: 500},
		DefaultStopTicks:   20,
		DefaultTargetTicks: 40,
		ChartWidth:         1600,
	}
	broker := &stubBroker{}
	bridge := usecase.NewConfirmBridge(5*time.Second, zap.NewNop())
	service := usecase.NewToolService(cfg, broker, &stubJournal{}, nil, nil, bridge.Confirm, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go service.Run(ctx)
	t.Cleanup(cancel)

	server := web.NewServer(0, service, &stubJournal{}, nil, bridge, zap.NewNop())
	conn := dialWS(t, server)

	// The initial snapshot frame guarantees the prompt subscription is live
	readFrame(t, conn, "snapshot")
	waitInitialized(t, service)

	// 1. Submit; the service blocks on the confirmation
	service.SubmitMarketOrder(domain.SideLong)

	// 2. The prompt arrives over the socket with the full ticket
	frame := readFrame(t, conn, "confirm")
	if frame.Prompt == nil {
		t.Fatal("Confirm frame without a prompt")
	}
	ticket := frame.Prompt.Ticket
	if ticket.OrderType != domain.OrderTypeMarket || ticket.Quantity != 2 || ticket.Entry != 4500 {
		t.Errorf("Prompt ticket wrong: %+v", ticket)
	}

	// 3. Approve; the order reaches the broker
	reply := map[string]interface{}{"type": "confirm", "id": frame.Prompt.ID, "approved": true}
	if err := conn.WriteJSON(reply); err != nil {
		t.Fatalf("Failed to send approval: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for broker.requestCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if broker.requestCount() != 1 {
		t.Fatalf("Approved order never reached the broker, got %d requests", broker.requestCount())
	}
}

func TestWS_ConfirmDeclineBlocksOrder(t *testing.T) {
	cfg := usecase.ToolConfig{
		Instrument:         domain.Instrument{Symbol: "ES", TickSize: 0.25, TickValue: 12.5, Currency: "USD"},
		Risk:               usecase.RiskConfig{Mode: usecase.RiskModeFixedCash, Value: 500},
		DefaultStopTicks:   20,
		DefaultTargetTicks: 40,
		ChartWidth:         1600,
	}
	broker := &stubBroker{}
	bridge := usecase.NewConfirmBridge(5*time.Second, zap.NewNop())
	service := usecase.NewToolService(cfg, broker, &stubJournal{}, nil, nil, bridge.Confirm, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go service.Run(ctx)
	t.Cleanup(cancel)

	server := web.NewServer(0, service, &stubJournal{}, nil, bridge, zap.NewNop())
	conn := dialWS(t, server)

	readFrame(t, conn, "snapshot")
	waitInitialized(t, service)

	service.SubmitMarketOrder(domain.SideLong)
	frame := readFrame(t, conn, "confirm")

	reply := map[string]interface{}{"type": "confirm", "id": frame.Prompt.ID, "approved": false}
	if err := conn.WriteJSON(reply); err != nil {
		t.Fatalf("Failed to send decline: %v", err)
	}

	// The service must come back to life without submitting: the next
	// command proves the queue drained past the declined submit
	service.ToggleVisibility()
	deadline := time.Now().Add(2 * time.Second)
	for service.Snapshot().Visible && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if service.Snapshot().Visible {
		t.Fatal("Service did not resume after the decline")
	}
	if broker.requestCount() != 0 {
		t.Errorf("Declined order must not reach the broker, got %d requests", broker.requestCount())
	}
}
