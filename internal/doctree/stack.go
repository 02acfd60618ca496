package doctree

// HeaderStack tracks the active heading at each ordinal while scanning a
// document. It is a value type: assigning it copies it, which is what a
// section snapshot needs.
type HeaderStack struct {
	names [MaxLevel + 1]string
	set   [MaxLevel + 1]bool
}

// Push drops every tracked ordinal >= level, then records the heading.
func (s *HeaderStack) Push(level int, name string) {
	if level < 1 || level > MaxLevel {
		return
	}
	for l := level; l <= MaxLevel; l++ {
		s.names[l] = ""
		s.set[l] = false
	}
	s.names[level] = name
	s.set[level] = true
}

// Get returns the heading tracked at level.
func (s HeaderStack) Get(level int) (string, bool) {
	if level < 1 || level > MaxLevel {
		return "", false
	}
	return s.names[level], s.set[level]
}

// Len is the number of tracked ordinals.
func (s HeaderStack) Len() int {
	n := 0
	for l := 1; l <= MaxLevel; l++ {
		if s.set[l] {
			n++
		}
	}
	return n
}

// Path returns the tracked headings in ordinal order.
func (s HeaderStack) Path() []HeaderNode {
	var out []HeaderNode
	for l := 1; l <= MaxLevel; l++ {
		if s.set[l] {
			out = append(out, HeaderNode{Level: l, Name: s.names[l]})
		}
	}
	return out
}
