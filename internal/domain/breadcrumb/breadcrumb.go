// Package breadcrumb implements a hunter's private trail of visited rooms.
// A Stack belongs to exactly one hunter and is not safe for concurrent use.
package breadcrumb

// Stack is a LIFO of room indices.
type Stack struct {
	rooms []int
}

// Push records a room the hunter is leaving.
func (s *Stack) Push(room int) {
	s.rooms = append(s.rooms, room)
}

// Pop removes and returns the most recently pushed room.
func (s *Stack) Pop() (int, bool) {
	if len(s.rooms) == 0 {
		return 0, false
	}
	last := len(s.rooms) - 1
	room := s.rooms[last]
	s.rooms = s.rooms[:last]
	return room, true
}

// Peek returns the most recently pushed room without removing it.
func (s *Stack) Peek() (int, bool) {
	if len(s.rooms) == 0 {
		return 0, false
	}
	return s.rooms[len(s.rooms)-1], true
}

// Len returns the number of rooms on the trail.
func (s *Stack) Len() int {
	return len(s.rooms)
}

// Clear drops the whole trail and releases its backing array.
func (s *Stack) Clear() {
	s.rooms = nil
}
