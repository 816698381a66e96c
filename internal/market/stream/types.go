package stream

import (
	"encoding/json"
	"fmt"
)

// ParseError describes one discarded message or array element.
type ParseError struct {
	Reason   string
	Fragment string // truncated offending payload
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (%s)", e.Reason, e.Fragment)
}

func newParseError(reason string, raw []byte) *ParseError {
	const max = 120
	frag := string(raw)
	if len(frag) > max {
		frag = frag[:max] + "..."
	}
	return &ParseError{Reason: reason, Fragment: frag}
}

// GenericTick is the schema-neutral update published on Redis and Kafka.
// Numbers may be JSON numbers or numeric strings.
type GenericTick struct {
	Symbol        string      `json:"symbol"`
	Price         json.Number `json:"price"`
	Volume        json.Number `json:"volume"`
	PercentChange json.Number `json:"percent_change"`
	Open          json.Number `json:"open"`
	High          json.Number `json:"high"`
	Low           json.Number `json:"low"`
	Timestamp     int64       `json:"ts"` // milliseconds since epoch
}
