// Package address normalizes backend address payloads and keeps the
// device's selected delivery location.
package address

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address is the canonical address shape.
type Address struct {
	ID       int64    `json:"id,omitempty"`
	Title    string   `json:"title,omitempty"`
	Address  string   `json:"address"`
	Location Location `json:"location"`
	Active   bool     `json:"active"`
	House    string   `json:"house,omitempty"`
	Floor    string   `json:"floor,omitempty"`
	Office   string   `json:"office,omitempty"`
}

// Normalize decodes raw and returns its canonical form, or nil when the
// payload is not an object or carries no usable location.
func Normalize(raw json.RawMessage) *Address {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return NormalizeMap(m)
}

// NormalizeMap is Normalize over an already decoded object.
func NormalizeMap(m map[string]any) *Address {
	if m == nil {
		return nil
	}
	loc, ok := location(m["location"])
	if !ok {
		return nil
	}

	a := &Address{Location: loc}
	if id, ok := number(m["id"]); ok {
		a.ID = int64(id)
	}
	a.Title = text(m["title"])
	a.Active = truthy(m["active"])

	switch v := m["address"].(type) {
	case string:
		a.Address = v
	case map[string]any:
		a.Address = text(v["address"])
		a.House = text(v["house"])
		a.Floor = text(v["floor"])
		a.Office = text(v["office"])
	}
	return a
}

func location(v any) (Location, bool) {
	switch l := v.(type) {
	case []any:
		if len(l) < 2 {
			return Location{}, false
		}
		lat, ok1 := number(l[0])
		lng, ok2 := number(l[1])
		return Location{Latitude: lat, Longitude: lng}, ok1 && ok2
	case map[string]any:
		lat, ok1 := number(first(l, "latitude", "lat"))
		lng, ok2 := number(first(l, "longitude", "lng"))
		return Location{Latitude: lat, Longitude: lng}, ok1 && ok2
	}
	return Location{}, false
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// number accepts finite JSON numbers and numeric strings.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func text(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	}
	return false
}
