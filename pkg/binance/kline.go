package binance

import (
	"encoding/json"
	"strconv"
)

// ParseKlineList converts raw kline rows to []Kline.
// A row is [openTime, open, high, low, close, volume, closeTime, ...] with
// times as JSON numbers and prices as strings. Invalid rows are skipped.
func ParseKlineList(raw [][]json.RawMessage) []Kline {
	var out []Kline

	for _, row := range raw {
		if len(row) < 7 {
			continue // skip incomplete row
		}

		openTime, err := parseInt(row[0])
		if err != nil {
			continue
		}
		closeTime, err := parseInt(row[6])
		if err != nil {
			continue
		}

		var vals [5]float64
		ok := true
		for i := range vals {
			v, err := parseFloat(row[i+1])
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		out = append(out, Kline{
			OpenTime:  openTime,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
			CloseTime: closeTime,
		})
	}
	return out
}

func parseInt(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
