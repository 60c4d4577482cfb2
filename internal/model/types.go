package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an entity identifier. The Gateway sends ids as JSON strings or
// numbers; both decode to the same string form.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Timestamp is a point in time or, when zero, "no date". A Gateway value
// that is not a recognizable date decodes to the zero time with the text
// kept in Raw.
type Timestamp struct {
	time.Time
	Raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339, RFC 3339 without zone (read as UTC) and
// plain YYYY-MM-DD. An empty string is the zero Timestamp.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized date %q", s)
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// IsSet reports whether a date is present
func (ts Timestamp) IsSet() bool { return !ts.IsZero() }

// String is the date for display: RFC 3339, the raw Gateway text, or ""
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ts.Raw
	}
	return ts.Time.Format(time.RFC3339)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		if ts.Raw != "" {
			return json.Marshal(ts.Raw)
		}
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}

// UnmarshalJSON never fails: anything but a recognizable date is "no date"
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*ts = Timestamp{Raw: string(data)}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		*ts = Timestamp{Raw: strings.TrimSpace(s)}
		return nil
	}
	*ts = parsed
	return nil
}

// Budget is a project budget. Forms and the Gateway send it as a number or a
// numeric string; free text such as "TBD" is kept in Raw with a zero Amount.
type Budget struct {
	Amount float64
	Raw    string
}

// IsNumber reports whether the budget carries a numeric amount
func (b Budget) IsNumber() bool { return b.Raw == "" }

func (b Budget) String() string {
	if b.Raw != "" {
		return b.Raw
	}
	return strconv.FormatFloat(b.Amount, 'f', -1, 64)
}

func ParseBudget(s string) (Budget, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return Budget{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Budget{}, fmt.Errorf("budget %q is not a number", s)
	}
	return Budget{Amount: v}, nil
}

func (b Budget) MarshalJSON() ([]byte, error) {
	if b.Raw != "" {
		return json.Marshal(b.Raw)
	}
	return json.Marshal(b.Amount)
}

// UnmarshalJSON never fails: unparseable values are kept as text
func (b *Budget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = Budget{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*b = Budget{Raw: string(data)}
			return nil
		}
		parsed, err := ParseBudget(s)
		if err != nil {
			*b = Budget{Raw: strings.TrimSpace(s)}
			return nil
		}
		*b = parsed
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*b = Budget{Raw: string(data)}
		return nil
	}
	*b = Budget{Amount: v}
	return nil
}
