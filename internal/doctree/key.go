package doctree

import (
	"sort"
	"strconv"
	"strings"
)

// Separators inside an encoded HeaderPathKey. Heading text never contains
// ASCII control characters after line splitting.
const (
	nodeSep  = "\x1e"
	fieldSep = "\x1f"
)

// HeaderPathKey identifies a section: the ordinal-sorted (level, name)
// tuple of a header path, encoded as a comparable string. The zero value is
// the root key (no headers).
type HeaderPathKey string

// RootKey is the key of content that has no headers.
const RootKey HeaderPathKey = ""

// KeyOf builds the key for a header path. The input is not modified.
func KeyOf(path []HeaderNode) HeaderPathKey {
	if len(path) == 0 {
		return RootKey
	}
	sorted := append([]HeaderNode(nil), path...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	parts := make([]string, len(sorted))
	for i, h := range sorted {
		parts[i] = strconv.Itoa(h.Level) + fieldSep + h.Name
	}
	return HeaderPathKey(strings.Join(parts, nodeSep))
}

// Nodes decodes the key back into its header path.
func (k HeaderPathKey) Nodes() []HeaderNode {
	if k == RootKey {
		return nil
	}
	parts := strings.Split(string(k), nodeSep)
	out := make([]HeaderNode, 0, len(parts))
	for _, p := range parts {
		lvl, name, _ := strings.Cut(p, fieldSep)
		n, _ := strconv.Atoi(lvl)
		out = append(out, HeaderNode{Level: n, Name: name})
	}
	return out
}

// Parent drops the deepest header. The parent of a depth-1 key is RootKey.
func (k HeaderPathKey) Parent() HeaderPathKey {
	i := strings.LastIndex(string(k), nodeSep)
	if i < 0 {
		return RootKey
	}
	return k[:i]
}

// Depth is the ordinal of the deepest header, 0 for the root key.
func (k HeaderPathKey) Depth() int {
	nodes := k.Nodes()
	if len(nodes) == 0 {
		return 0
	}
	return nodes[len(nodes)-1].Level
}

// Name is the breadcrumb form of the key, used as the section name in
// prompts and as the serialized map key.
func (k HeaderPathKey) Name() string {
	return Breadcrumb(k.Nodes())
}

// Leaf returns the deepest header, or false for the root key.
func (k HeaderPathKey) Leaf() (HeaderNode, bool) {
	nodes := k.Nodes()
	if len(nodes) == 0 {
		return HeaderNode{}, false
	}
	return nodes[len(nodes)-1], true
}
