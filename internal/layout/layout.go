// Package layout describes which rooms a house has and how they connect,
// and turns that description into a room.Graph before any actor runs.
package layout

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/room"
)

var (
	ErrEmpty         = errors.New("layout has no rooms")
	ErrTooManyRooms  = fmt.Errorf("layout exceeds %d rooms", room.MaxRooms)
	ErrDuplicateRoom = errors.New("duplicate room name")
	ErrNoExit        = errors.New("layout has no exit room")
	ErrMultipleExits = errors.New("layout has more than one exit room")
	ErrUnknownRoom   = errors.New("unknown room")
	ErrBadName       = errors.New("invalid room name")
	ErrFormat        = errors.New("unsupported layout format")
)

// RoomSpec declares one room.
type RoomSpec struct {
	Name string `toml:"name" yaml:"name"`
	Exit bool   `toml:"exit,omitempty" yaml:"exit,omitempty"`
}

// Link declares an undirected connection between two rooms by name.
type Link struct {
	From string `toml:"from" yaml:"from"`
	To   string `toml:"to" yaml:"to"`
}

// Spec is a complete house description.
type Spec struct {
	Name  string     `toml:"name" yaml:"name"`
	Start string     `toml:"start,omitempty" yaml:"start,omitempty"` // empty = first room
	Rooms []RoomSpec `toml:"rooms" yaml:"rooms"`
	Links []Link     `toml:"links" yaml:"links"`
}

// Default returns the classic house. The van is where hunters arrive and
// the only place they can leave from.
func Default() Spec {
	return Spec{
		Name:  "Willow Street House",
		Start: "Van",
		Rooms: []RoomSpec{
			{Name: "Van", Exit: true},
			{Name: "Hallway"},
			{Name: "Master Bedroom"},
			{Name: "Boy's Bedroom"},
			{Name: "Bathroom"},
			{Name: "Kitchen"},
			{Name: "Living Room"},
			{Name: "Garage"},
			{Name: "Utility Room"},
			{Name: "Basement"},
			{Name: "Basement Hallway"},
			{Name: "Right Storage Room"},
			{Name: "Left Storage Room"},
		},
		Links: []Link{
			{From: "Van", To: "Hallway"},
			{From: "Hallway", To: "Master Bedroom"},
			{From: "Hallway", To: "Boy's Bedroom"},
			{From: "Hallway", To: "Bathroom"},
			{From: "Hallway", To: "Kitchen"},
			{From: "Hallway", To: "Basement"},
			{From: "Basement", To: "Basement Hallway"},
			{From: "Basement Hallway", To: "Right Storage Room"},
			{From: "Basement Hallway", To: "Left Storage Room"},
			{From: "Kitchen", To: "Living Room"},
			{From: "Kitchen", To: "Garage"},
			{From: "Garage", To: "Utility Room"},
		},
	}
}

// Load reads a layout from a .toml, .yaml or .yml file.
func Load(path string) (Spec, error) {
	var spec Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &spec); err != nil {
			return Spec{}, fmt.Errorf("failed to decode layout %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Spec{}, fmt.Errorf("failed to read layout %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return Spec{}, fmt.Errorf("failed to decode layout %s: %w", path, err)
		}
	default:
		return Spec{}, fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
	}
	return spec, nil
}

// LoadOrDefault returns Default() for an empty path.
func LoadOrDefault(path string) (Spec, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Encode writes spec as "toml" or "yaml".
func Encode(w io.Writer, spec Spec, format string) error {
	switch format {
	case "toml":
		return toml.NewEncoder(w).Encode(spec)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(spec); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// Validate checks the layout without building it.
func (s Spec) Validate() error {
	if len(s.Rooms) == 0 {
		return ErrEmpty
	}
	if len(s.Rooms) > room.MaxRooms {
		return ErrTooManyRooms
	}

	seen := make(map[string]bool, len(s.Rooms))
	exits := 0
	for _, r := range s.Rooms {
		name := strings.TrimSpace(r.Name)
		if name == "" || name != r.Name || len(name) > room.MaxNameLength {
			return fmt.Errorf("%w: %q", ErrBadName, r.Name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateRoom, name)
		}
		seen[name] = true
		if r.Exit {
			exits++
		}
	}
	switch {
	case exits == 0:
		return ErrNoExit
	case exits > 1:
		return ErrMultipleExits
	}

	if s.Start != "" && !seen[s.Start] {
		return fmt.Errorf("%w: start room %q", ErrUnknownRoom, s.Start)
	}
	for _, l := range s.Links {
		if !seen[l.From] {
			return fmt.Errorf("%w: %q", ErrUnknownRoom, l.From)
		}
		if !seen[l.To] {
			return fmt.Errorf("%w: %q", ErrUnknownRoom, l.To)
		}
	}
	return nil
}

// Build validates the layout and creates the graph for houseID.
// Links beyond a room's connection capacity are dropped, as Graph.Connect does.
func Build(s Spec, houseID string) (*room.Graph, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	g := room.NewGraph(houseID)
	for _, r := range s.Rooms {
		g.Create(r.Name, r.Exit)
	}
	for _, l := range s.Links {
		a, _ := g.Lookup(l.From)
		b, _ := g.Lookup(l.To)
		g.Connect(a, b)
	}
	if s.Start != "" {
		idx, _ := g.Lookup(s.Start)
		g.SetStart(idx)
	}
	return g, nil
}
