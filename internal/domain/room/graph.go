package room

import "unicode/utf8"

// MaxRooms bounds the size of a single house.
const MaxRooms = 24

// Graph is the arena that owns every room of one house.
// Rooms refer to each other and to the house by index, never by pointer.
//
// Create and Connect are setup operations: they take no locks and must not be
// called once actors are running.
type Graph struct {
	HouseID string

	rooms  []*Room
	byName map[string]int
	start  int
	exit   int
}

// NewGraph creates an empty graph for the given house.
func NewGraph(houseID string) *Graph {
	return &Graph{
		HouseID: houseID,
		rooms:   make([]*Room, 0, MaxRooms),
		byName:  make(map[string]int),
		start:   -1,
		exit:    -1,
	}
}

// Create adds a room and returns its index. The first room created is the
// starting room unless SetStart says otherwise. A full graph ignores the
// request and returns -1; a duplicate name returns the existing index.
func (g *Graph) Create(name string, isExit bool) int {
	name = TruncateName(name, MaxNameLength)
	if idx, ok := g.byName[name]; ok {
		return idx
	}
	if len(g.rooms) >= MaxRooms {
		return -1
	}

	idx := len(g.rooms)
	g.rooms = append(g.rooms, newRoom(name, idx, g.HouseID, isExit))
	g.byName[name] = idx

	if g.start < 0 {
		g.start = idx
	}
	if isExit && g.exit < 0 {
		g.exit = idx
	}
	return idx
}

// Connect links a and b in both directions. Each side's adjacency count grows
// independently, so a full room on one side does not block the other.
// Out-of-range indices and self links are ignored.
func (g *Graph) Connect(a, b int) {
	if !g.valid(a) || !g.valid(b) || a == b {
		return
	}
	g.rooms[a].link(b)
	g.rooms[b].link(a)
}

// SetStart designates the room hunters spawn in and retreat to.
func (g *Graph) SetStart(idx int) {
	if g.valid(idx) {
		g.start = idx
	}
}

// Room returns the room at idx, or nil when out of range.
func (g *Graph) Room(idx int) *Room {
	if !g.valid(idx) {
		return nil
	}
	return g.rooms[idx]
}

// Lookup finds a room index by name.
func (g *Graph) Lookup(name string) (int, bool) {
	idx, ok := g.byName[name]
	return idx, ok
}

// Len returns the number of rooms.
func (g *Graph) Len() int {
	return len(g.rooms)
}

// Start returns the starting room index, or -1 for an empty graph.
func (g *Graph) Start() int {
	return g.start
}

// Exit returns the extraction room index, or -1 if no room is flagged as the exit.
func (g *Graph) Exit() int {
	return g.exit
}

// Rooms returns every room in creation order.
func (g *Graph) Rooms() []*Room {
	out := make([]*Room, len(g.rooms))
	copy(out, g.rooms)
	return out
}

func (g *Graph) valid(idx int) bool {
	return idx >= 0 && idx < len(g.rooms)
}

// TruncateName cuts name to at most n bytes without splitting a rune.
func TruncateName(name string, n int) string {
	if len(name) <= n {
		return name
	}
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}
