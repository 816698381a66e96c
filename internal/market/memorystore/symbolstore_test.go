package memorystore

import (
	"reflect"
	"testing"
)

// go test -v --run TestSymbolStoreAllowed
func TestSymbolStoreAllowed(t *testing.T) {
	s := NewSymbolStore()
	if !s.Allowed("ANY") {
		t.Error("empty watchlist should allow everything")
	}

	s.Add(" btcusdt ")
	if !s.Allowed("BTCUSDT") {
		t.Error("BTCUSDT should be allowed")
	}
	if !s.Allowed("btcusdt") || !s.Allowed(" BTCUSDT ") {
		t.Error("lookup should ignore case and padding")
	}
	if s.Allowed("ETHUSDT") {
		t.Error("ETHUSDT should be filtered")
	}

	s.Replace([]string{"ethusdt", ""})
	if got := s.GetAll(); !reflect.DeepEqual(got, []string{"ETHUSDT"}) {
		t.Errorf("GetAll = %v", got)
	}
}
