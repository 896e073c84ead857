package entity

import (
	"encoding/json"
	"sort"
)

// FlightSet is a set of flight keys. The zero value is an empty set ready to use.
type FlightSet struct {
	keys map[string]struct{}
}

// NewFlightSet returns a set holding the given keys.
func NewFlightSet(keys ...string) FlightSet {
	var s FlightSet
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key and reports whether it was not already present.
func (s *FlightSet) Add(key string) bool {
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Remove deletes key and reports whether it was present.
func (s *FlightSet) Remove(key string) bool {
	if _, ok := s.keys[key]; !ok {
		return false
	}
	delete(s.keys, key)
	return true
}

func (s FlightSet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s FlightSet) Len() int {
	return len(s.keys)
}

// Keys returns the members in ascending order.
func (s FlightSet) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s FlightSet) Clone() FlightSet {
	return NewFlightSet(s.Keys()...)
}

func (s FlightSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

func (s *FlightSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewFlightSet(keys...)
	return nil
}
