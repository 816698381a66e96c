package binance_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tickerdash/internal/market/feed"
	"tickerdash/internal/market/memorystore"
	"tickerdash/internal/market/stream"
	"tickerdash/pkg/binance"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(n int, conn *websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	var conns atomic.Int32

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(int(conns.Add(1)), conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func ticker(symbol, price string) string {
	return `{"e":"24hrTicker","E":1700000000000,"s":"` + symbol + `","P":"1.5","c":"` + price +
		`","o":"100","h":"110","l":"90","v":"1000"}`
}

// go test -v --run TestWSSourceSubscribes
func TestWSSourceSubscribes(t *testing.T) {
	got := make(chan binance.SubscribeRequest, 1)
	server := mockWSServer(t, func(_ int, conn *websocket.Conn) {
		var req binance.SubscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		got <- req
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"result":null,"id":1}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(ticker("BTCUSDT", "101")))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	src := binance.NewWSSource(wsURL(server), []string{"btcusdt@ticker"}, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := src.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case req := <-got:
		if req.Method != "SUBSCRIBE" || len(req.Params) != 1 || req.Params[0] != "btcusdt@ticker" {
			t.Errorf("unexpected subscribe request: %+v", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe request received")
	}

	ack, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read ack: %v", err)
	}
	if events, err := stream.DecodeBinance(ack); err != nil || len(events) != 0 {
		t.Errorf("ack decoded to %v, %v", events, err)
	}

	msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read ticker: %v", err)
	}
	events, err := stream.DecodeBinance(msg)
	if err != nil || len(events) != 1 || events[0].Symbol != "BTCUSDT" {
		t.Fatalf("ticker decoded to %v, %v", events, err)
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	_ = conn.Close() // second close is a no-op
}

// go test -v --run TestWSSourceDialError
func TestWSSourceDialError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	src := binance.NewWSSource(wsURL(server), nil, zap.NewNop())
	c := feed.NewClient(src, stream.DecodeBinance, zap.NewNop())

	err := c.Connect(context.Background())
	var connErr *feed.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

// go test -v --run TestFeedSurvivesServerDrop
func TestFeedSurvivesServerDrop(t *testing.T) {
	server := mockWSServer(t, func(n int, conn *websocket.Conn) {
		switch n {
		case 1:
			_ = conn.WriteMessage(websocket.TextMessage, []byte("["+ticker("BTCUSDT", "100")+","+ticker("ETHUSDT", "10")+"]"))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(ticker("BTCUSDT", "105")))
			// abrupt drop without a close frame
			_ = conn.UnderlyingConn().Close()
		default:
			_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(ticker("BTCUSDT", "103")))
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
	})
	defer server.Close()

	store := memorystore.NewTickerStore()
	src := binance.NewWSSource(wsURL(server), nil, zap.NewNop())
	c := feed.NewClient(src, stream.DecodeBinance, zap.NewNop(),
		feed.WithBackoff(feed.NewBackoff(10*time.Millisecond, 50*time.Millisecond, 2)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var duringOutage memorystore.TickerRecord
	var applied atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(ev memorystore.UpdateEvent) {
			if applied.Add(1) == 4 {
				// first event after the reconnect; the store still holds pre-drop state
				duringOutage, _ = store.Get("BTCUSDT")
			}
			_ = store.Apply(ev)
			if applied.Load() == 4 {
				cancel()
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not resume after drop")
	}

	if !duringOutage.LastPrice.Equal(decimal.NewFromInt(105)) {
		t.Errorf("BTC during outage = %s, want 105", duringOutage.LastPrice)
	}
	btc, _ := store.Get("BTCUSDT")
	if !btc.LastPrice.Equal(decimal.NewFromInt(103)) || btc.Direction != memorystore.Down {
		t.Errorf("BTC after reconnect = %s %s, want 103 down", btc.LastPrice, btc.Direction)
	}
	if eth, ok := store.Get("ETHUSDT"); !ok || !eth.LastPrice.Equal(decimal.NewFromInt(10)) {
		t.Errorf("ETH lost across reconnect: %+v", eth)
	}
	if c.Reconnects() < 1 {
		t.Errorf("reconnects = %d", c.Reconnects())
	}
}
