package binance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tickerdash/internal/market/feed"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSSource dials the Binance market stream endpoint.
type WSSource struct {
	url     string
	streams []string
	logger  *zap.Logger
}

// NewWSSource creates a source for url. When streams is not empty a
// SUBSCRIBE request is sent right after every connect.
func NewWSSource(url string, streams []string, logger *zap.Logger) *WSSource {
	return &WSSource{
		url:     url,
		streams: streams,
		logger:  logger,
	}
}

func (s *WSSource) Name() string {
	return "binance"
}

// Dial connects and subscribes; ctx bounds the handshake.
func (s *WSSource) Dial(ctx context.Context) (feed.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.HandshakeTimeout = time.Until(deadline)
	}

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.logger.Error("Failed to connect to WebSocket", zap.String("url", s.url), zap.Error(err))
		return nil, err
	}
	s.logger.Info("WebSocket connected", zap.String("url", s.url))

	if len(s.streams) > 0 {
		subMsg := SubscribeRequest{
			Method: "SUBSCRIBE",
			Params: s.streams,
			ID:     time.Now().UnixMilli(),
		}
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetWriteDeadline(deadline)
		}
		if err := conn.WriteJSON(subMsg); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("websocket subscribe failed: %w", err)
		}
		_ = conn.SetWriteDeadline(time.Time{})
	}

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// Read returns the next data frame. Control frames are handled by gorilla
// (pings are answered automatically). Cancellation is delivered by Close.
func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		msgType, msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType == websocket.TextMessage || msgType == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

// Close sends a normal closure frame and closes the socket once.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
