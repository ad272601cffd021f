package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ItemID identifies a record in a dataset. Datasets carry IDs as JSON strings
// or JSON numbers and the two are never equal to each other: "1" and 1 are
// different IDs. The zero value means "no id".
type ItemID struct {
	value   string
	numeric bool
}

func StringID(s string) ItemID {
	return ItemID{value: s}
}

func NumberID(n int64) ItemID {
	return ItemID{value: strconv.FormatInt(n, 10), numeric: true}
}

// plainNumber matches integers and decimals written the way JSON writes them,
// without leading zeros or exponents.
var plainNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// ParseItemID interprets text from a URL or a command line. Plain integers
// and decimals become numeric IDs; "007" and "1e3" stay strings.
func ParseItemID(s string) ItemID {
	if s == "" {
		return ItemID{}
	}
	if !plainNumber.MatchString(s) {
		return StringID(s)
	}
	if canon, ok := canonicalNumber(s); ok {
		return ItemID{value: canon, numeric: true}
	}
	return StringID(s)
}

func (id ItemID) IsZero() bool { return id.value == "" && !id.numeric }

func (id ItemID) IsNumeric() bool { return id.numeric }

func (id ItemID) String() string { return id.value }

// LooseEqual compares by text only, so "3" matches 3. Used for lookups where
// the caller's ID arrived as text and the type was lost.
func (id ItemID) LooseEqual(other ItemID) bool {
	return !id.IsZero() && id.value == other.value
}

func (id ItemID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ItemID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid item id: %w", err)
		}
		*id = StringID(s)
		return nil
	}
	canon, ok := canonicalNumber(string(data))
	if !ok {
		return fmt.Errorf("invalid item id %s: must be a string or number", data)
	}
	*id = ItemID{value: canon, numeric: true}
	return nil
}

// canonicalNumber normalizes numeric text so 3, 3.0 and 3e0 share one key.
func canonicalNumber(s string) (string, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if math.Abs(f) < 1<<53 && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}

// IDSet is the membership set used to join saved IDs against a snapshot.
type IDSet map[ItemID]struct{}

func NewIDSet(ids ...ItemID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership. A nil set contains nothing.
func (s IDSet) Has(id ItemID) bool {
	_, ok := s[id]
	return ok
}
