// Package evidence defines the clue categories a hunter can detect and the ghost
// types they identify.
// This package is PURE and must NOT import any infrastructure packages.
package evidence

import (
	"math/bits"
	"strings"
)

// Type is a single evidence flag. Exactly one bit is set for a valid Type.
type Type uint8

const (
	EMF          Type = 1 << 0
	Orbs         Type = 1 << 1
	Radio        Type = 1 << 2
	Temperature  Type = 1 << 3
	Fingerprints Type = 1 << 4
	Writing      Type = 1 << 5
	Infrared     Type = 1 << 6
)

// Count is the number of distinct evidence types.
const Count = 7

// SolveThreshold is the number of unique evidence bits that marks a case as solved.
const SolveThreshold = 3

// Definition provides metadata about an evidence type.
type Definition struct {
	Name   string // short name used in logs and reports
	Device string // the instrument a hunter carries to read it
}

// Registry contains every evidence type and its display metadata.
var Registry = map[Type]Definition{
	EMF:          {Name: "emf", Device: "EMF Reader"},
	Orbs:         {Name: "orbs", Device: "Video Camera"},
	Radio:        {Name: "radio", Device: "Spirit Box"},
	Temperature:  {Name: "temperature", Device: "Thermometer"},
	Fingerprints: {Name: "fingerprints", Device: "UV Light"},
	Writing:      {Name: "writing", Device: "Ghost Writing Book"},
	Infrared:     {Name: "infrared", Device: "D.O.T.S Projector"},
}

var allTypes = [Count]Type{EMF, Orbs, Radio, Temperature, Fingerprints, Writing, Infrared}

// All returns every evidence type in bit order.
func All() []Type {
	out := make([]Type, Count)
	copy(out, allTypes[:])
	return out
}

// String returns the short name, or "unknown" for values that are not a single known flag.
func (t Type) String() string {
	if def, ok := Registry[t]; ok {
		return def.Name
	}
	return "unknown"
}

// Device returns the name of the instrument that detects t.
func (t Type) Device() string {
	if def, ok := Registry[t]; ok {
		return def.Device
	}
	return "unknown"
}

// Set is a bitset of evidence types, the "evidence byte" stored in rooms and the case file.
type Set uint8

// Add returns s with every bit of other set.
func (s Set) Add(other Set) Set { return s | other }

// With returns s with t set.
func (s Set) With(t Type) Set { return s | Set(t) }

// Has reports whether t is present in s.
func (s Set) Has(t Type) bool { return s&Set(t) != 0 }

// Contains reports whether every bit of other is also in s.
func (s Set) Contains(other Set) bool { return s&other == other }

// Len returns the number of distinct evidence types in s.
func (s Set) Len() int { return bits.OnesCount8(uint8(s)) }

// Empty reports whether no evidence is present.
func (s Set) Empty() bool { return s == 0 }

// Types lists the evidence types contained in s, in bit order.
func (s Set) Types() []Type {
	var out []Type
	for _, t := range allTypes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s Set) String() string {
	if s == 0 {
		return "none"
	}
	names := make([]string, 0, s.Len())
	for _, t := range s.Types() {
		names = append(names, t.String())
	}
	return strings.Join(names, "|")
}

// HasThreeUnique is the case file's solve rule: at least SolveThreshold distinct bits.
func HasThreeUnique(s Set) bool {
	return s.Len() >= SolveThreshold
}
