package evidence

import "strings"

// GhostType is the 3-bit evidence signature that fully identifies a ghost.
type GhostType uint8

// Signature returns the evidence a hunter team must hold to identify g.
func (g GhostType) Signature() Set { return Set(g) }

// Evidence lists the evidence types in g's signature.
func (g GhostType) Evidence() []Type { return Set(g).Types() }

// String returns the ghost's name, or "Unknown" for combinations outside the catalogue.
func (g GhostType) String() string {
	for _, def := range ghostCatalogue {
		if def.Type == g {
			return def.Name
		}
	}
	return "Unknown"
}

// Valid reports whether g is one of the catalogued ghost types.
func (g GhostType) Valid() bool {
	return g.String() != "Unknown"
}

type ghostDefinition struct {
	Name string
	Type GhostType
}

func sig(a, b, c Type) GhostType { return GhostType(a | b | c) }

// ghostCatalogue is ordered; random draws index into it.
var ghostCatalogue = []ghostDefinition{
	{"Poltergeist", sig(Fingerprints, Temperature, Writing)},
	{"The Mimic", sig(Fingerprints, Temperature, Radio)},
	{"Hantu", sig(Fingerprints, Temperature, Orbs)},
	{"Jinn", sig(Fingerprints, Temperature, EMF)},
	{"Phantom", sig(Fingerprints, Infrared, Radio)},
	{"Banshee", sig(Fingerprints, Infrared, Orbs)},
	{"Goryo", sig(Fingerprints, Infrared, EMF)},
	{"Bullies", sig(Fingerprints, Writing, Radio)},
	{"Myling", sig(Fingerprints, Writing, EMF)},
	{"Obake", sig(Fingerprints, Orbs, EMF)},
	{"Yurei", sig(Temperature, Infrared, Orbs)},
	{"Oni", sig(Temperature, Infrared, EMF)},
	{"Moroi", sig(Temperature, Writing, Radio)},
	{"Revenant", sig(Temperature, Writing, Orbs)},
	{"Shade", sig(Temperature, Writing, EMF)},
	{"Onryo", sig(Temperature, Radio, Orbs)},
	{"The Twins", sig(Temperature, Radio, EMF)},
	{"Deogen", sig(Infrared, Writing, Radio)},
	{"Thaye", sig(Infrared, Writing, Orbs)},
	{"Yokai", sig(Infrared, Radio, Orbs)},
	{"Wraith", sig(Infrared, Radio, EMF)},
	{"Raiju", sig(Infrared, Orbs, EMF)},
	{"Mare", sig(Writing, Radio, Orbs)},
	{"Spirit", sig(Writing, Radio, EMF)},
}

// GhostTypes returns the 24 catalogued ghost types.
func GhostTypes() []GhostType {
	out := make([]GhostType, len(ghostCatalogue))
	for i, def := range ghostCatalogue {
		out[i] = def.Type
	}
	return out
}

// ParseGhostType looks a ghost up by name, case-insensitively.
func ParseGhostType(name string) (GhostType, bool) {
	name = strings.TrimSpace(name)
	for _, def := range ghostCatalogue {
		if strings.EqualFold(def.Name, name) {
			return def.Type, true
		}
	}
	return 0, false
}

// ParseType looks an evidence type up by its short name.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, def := range Registry {
		if def.Name == name {
			return t, true
		}
	}
	return 0, false
}
