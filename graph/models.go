package graph

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Position is a rendering coordinate. It carries no graph semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the edited graph. The id is both its label and its key.
type Node struct {
	ID       string
	Position Position
}

// Edge is a directed, weighted connection between two nodes.
// Source and Target are weak references resolved by lookup.
type Edge struct {
	ID     string
	Source string
	Target string
	Weight Weight
}

// Weight is the user's edge weight, kept verbatim as typed.
type Weight string

// DefaultWeight pre-fills the prompt for a new edge
const DefaultWeight Weight = "1"

// Float coerces the weight for numeric consumers, falling back to 1
// for anything that does not parse as a finite number.
func (w Weight) Float() float64 {
	f, err := strconv.ParseFloat(digitGroups(strings.TrimSpace(string(w))), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	return f
}

// digitGroups drops single underscores that sit between two digits, so
// "1_000" reads as 1000. Any other underscore is left for ParseFloat to
// reject.
func digitGroups(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return s
		}
	}
	return b.String()
}

// UnmarshalJSON accepts both "7" and 7, so snapshots produced by other
// tools (which store numbers) can be imported.
func (w *Weight) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = Weight(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*w = DefaultWeight
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = Weight(n.String())
	return nil
}

// EdgeID derives the identifier of the edge source→target.
func EdgeID(source, target string) string {
	return "e" + source + "_" + target
}
