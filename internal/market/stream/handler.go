package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tickerdash/internal/market/feed"
	"tickerdash/internal/market/memorystore"
	"tickerdash/pkg/binance"

	"github.com/shopspring/decimal"
)

const binanceTickerEvent = "24hrTicker"

// DecoderFor returns the decoder of a wire schema ("binance" or "generic").
func DecoderFor(schema string) (feed.Decoder, error) {
	switch schema {
	case "binance":
		return DecodeBinance, nil
	case "generic":
		return DecodeGeneric, nil
	default:
		return nil, fmt.Errorf("unknown wire schema %q", schema)
	}
}

// DecodeBinance handles ticker arrays (!ticker@arr), single 24hrTicker
// objects and the combined-stream wrapper. Subscription acknowledgements and
// other event types yield no events. A bad array element is dropped alone.
func DecodeBinance(msg []byte) ([]memorystore.UpdateEvent, error) {
	raw := bytes.TrimSpace(msg)
	if len(raw) == 0 {
		return nil, newParseError("empty message", raw)
	}

	switch raw[0] {
	case '[':
		return decodeArray(raw, decodeBinanceTicker)
	case '{':
	default:
		return nil, newParseError("unexpected message shape", raw)
	}

	// Exact-key lookup: ticker payloads use keys differing only in case.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, newParseError("invalid json: "+err.Error(), raw)
	}

	if data, ok := fields["data"]; ok {
		if _, ok := fields["stream"]; ok {
			return DecodeBinance(data)
		}
	}
	if _, ok := fields["id"]; ok {
		if _, ok := fields["result"]; ok {
			return nil, nil // subscription ack
		}
	}
	if msgField, ok := fields["msg"]; ok {
		return nil, newParseError("server error: "+string(msgField), raw)
	}

	ev, ok, err := decodeBinanceTicker(raw)
	if err != nil || !ok {
		return nil, err
	}
	return []memorystore.UpdateEvent{ev}, nil
}

func decodeBinanceTicker(raw []byte) (memorystore.UpdateEvent, bool, error) {
	var t binance.WSTicker
	if err := json.Unmarshal(raw, &t); err != nil {
		return memorystore.UpdateEvent{}, false, newParseError("invalid ticker: "+err.Error(), raw)
	}
	if t.EventType != "" && t.EventType != binanceTickerEvent {
		return memorystore.UpdateEvent{}, false, nil // not a ticker stream
	}

	ev, err := tickerEvent(t.Symbol, t.LastPrice, t.BaseVolume, t.PriceChangePercent,
		t.OpenPrice, t.HighPrice, t.LowPrice, t.EventTime)
	if err != nil {
		return memorystore.UpdateEvent{}, false, newParseError(err.Error(), raw)
	}
	return ev, true, nil
}

// FromRESTTicker converts one element of the 24hr REST endpoint.
func FromRESTTicker(t binance.RESTTicker) (memorystore.UpdateEvent, error) {
	return tickerEvent(t.Symbol, t.LastPrice, t.Volume, t.PriceChangePercent,
		t.OpenPrice, t.HighPrice, t.LowPrice, t.CloseTime)
}

func tickerEvent(symbol, last, volume, pct, open, high, low string, eventMillis int64) (memorystore.UpdateEvent, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return memorystore.UpdateEvent{}, errors.New("missing symbol")
	}

	var errs []error
	ev := memorystore.UpdateEvent{Symbol: symbol, HasPercentChange: true, HasVolume: true}
	ev.Price = requireDecimal("price", last, &errs)
	ev.Volume = requireDecimal("volume", volume, &errs)
	ev.PercentChange = requireDecimal("percent_change", pct, &errs)
	ev.Open = optionalDecimal("open", open, &errs)
	ev.High = optionalDecimal("high", high, &errs)
	ev.Low = optionalDecimal("low", low, &errs)
	if eventMillis > 0 {
		ev.EventTime = time.UnixMilli(eventMillis)
	}

	if err := errors.Join(errs...); err != nil {
		return memorystore.UpdateEvent{}, fmt.Errorf("%s: %w", symbol, err)
	}
	return ev, nil
}

// DecodeGeneric handles GenericTick objects or arrays of them.
func DecodeGeneric(msg []byte) ([]memorystore.UpdateEvent, error) {
	raw := bytes.TrimSpace(msg)
	if len(raw) == 0 {
		return nil, newParseError("empty message", raw)
	}

	switch raw[0] {
	case '[':
		return decodeArray(raw, decodeGenericTick)
	case '{':
		ev, ok, err := decodeGenericTick(raw)
		if err != nil || !ok {
			return nil, err
		}
		return []memorystore.UpdateEvent{ev}, nil
	default:
		return nil, newParseError("unexpected message shape", raw)
	}
}

func decodeGenericTick(raw []byte) (memorystore.UpdateEvent, bool, error) {
	var t GenericTick
	if err := json.Unmarshal(raw, &t); err != nil {
		return memorystore.UpdateEvent{}, false, newParseError("invalid tick: "+err.Error(), raw)
	}

	symbol := strings.TrimSpace(t.Symbol)
	if symbol == "" {
		return memorystore.UpdateEvent{}, false, newParseError("missing symbol", raw)
	}

	var errs []error
	ev := memorystore.UpdateEvent{Symbol: symbol}
	ev.Price = requireDecimal("price", t.Price.String(), &errs)
	if t.Volume != "" {
		ev.Volume = requireDecimal("volume", t.Volume.String(), &errs)
		ev.HasVolume = true
	}
	if t.PercentChange != "" {
		ev.PercentChange = requireDecimal("percent_change", t.PercentChange.String(), &errs)
		ev.HasPercentChange = true
	}
	ev.Open = optionalDecimal("open", t.Open.String(), &errs)
	ev.High = optionalDecimal("high", t.High.String(), &errs)
	ev.Low = optionalDecimal("low", t.Low.String(), &errs)
	if t.Timestamp > 0 {
		ev.EventTime = time.UnixMilli(t.Timestamp)
	}

	if err := errors.Join(errs...); err != nil {
		return memorystore.UpdateEvent{}, false, newParseError(symbol+": "+err.Error(), raw)
	}
	return ev, true, nil
}

// decodeArray decodes each element on its own so one bad element does not
// drop its neighbours.
func decodeArray(raw []byte, one func([]byte) (memorystore.UpdateEvent, bool, error)) ([]memorystore.UpdateEvent, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, newParseError("invalid json array: "+err.Error(), raw)
	}

	events := make([]memorystore.UpdateEvent, 0, len(items))
	var errs []error
	for _, item := range items {
		ev, ok, err := one(item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, errors.Join(errs...)
}

func requireDecimal(field, s string, errs *[]error) decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		*errs = append(*errs, fmt.Errorf("missing %s", field))
		return decimal.Zero
	}
	return optionalDecimal(field, s, errs)
}

func optionalDecimal(field, s string, errs *[]error) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q", field, s))
		return decimal.Zero
	}
	return d
}
