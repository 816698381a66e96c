package kafkafeed

import (
	"context"
	"net"
	"testing"
	"time"
)

// go test -v --run TestReaderConfig
func TestReaderConfig(t *testing.T) {
	src := NewSource([]string{"localhost:9092"}, "tickers", "tickerdash")
	cfg := src.ReaderConfig()

	if cfg.Topic != "tickers" || cfg.GroupID != "tickerdash" || len(cfg.Brokers) != 1 {
		t.Errorf("unexpected reader config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("reader config invalid: %v", err)
	}
	if src.Name() != "kafka" {
		t.Errorf("name = %q", src.Name())
	}
}

// go test -v --run TestDialUnreachableBroker
func TestDialUnreachableBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewSource([]string{addr}, "tickers", "g").Dial(ctx); err == nil {
		t.Error("expected error for unreachable broker")
	}
	if _, err := NewSource(nil, "tickers", "g").Dial(ctx); err == nil {
		t.Error("expected error without brokers")
	}
}
