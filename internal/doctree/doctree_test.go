package doctree

import "testing"

func TestKeyOfSortsByLevel(t *testing.T) {
	a := KeyOf([]HeaderNode{{Level: 2, Name: "Eligibility"}, {Level: 1, Name: "Scope"}})
	b := KeyOf([]HeaderNode{{Level: 1, Name: "Scope"}, {Level: 2, Name: "Eligibility"}})
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
	if got := a.Name(); got != "Scope > Eligibility" {
		t.Errorf("expected breadcrumb 'Scope > Eligibility', got %q", got)
	}
	if a.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", a.Depth())
	}
}

func TestKeyParent(t *testing.T) {
	k := KeyOf([]HeaderNode{{Level: 1, Name: "A"}, {Level: 3, Name: "C"}})
	p := k.Parent()
	if p != KeyOf([]HeaderNode{{Level: 1, Name: "A"}}) {
		t.Fatalf("unexpected parent %q", p.Name())
	}
	if p.Parent() != RootKey {
		t.Errorf("expected root key, got %q", p.Parent())
	}
	if RootKey.Depth() != 0 {
		t.Errorf("expected root depth 0, got %d", RootKey.Depth())
	}
	if RootKey.Parent() != RootKey {
		t.Errorf("expected root parent to be root")
	}
}

func TestKeyRoundTripNodes(t *testing.T) {
	path := []HeaderNode{{Level: 1, Name: "Part A: General"}, {Level: 4, Name: "1.1 Eligibility"}}
	got := KeyOf(path).Nodes()
	if len(got) != 2 || got[0] != path[0] || got[1] != path[1] {
		t.Fatalf("expected %v, got %v", path, got)
	}
}

func TestHeaderStackPush(t *testing.T) {
	var s HeaderStack
	s.Push(1, "Title")
	s.Push(2, "Intro")
	s.Push(3, "Detail")

	snap := s
	s.Push(2, "Scope")

	if s.Len() != 2 {
		t.Fatalf("expected 2 headers after push, got %d", s.Len())
	}
	if _, ok := s.Get(3); ok {
		t.Error("expected level 3 to be dropped")
	}
	if name, _ := s.Get(2); name != "Scope" {
		t.Errorf("expected Scope at level 2, got %q", name)
	}
	if snap.Len() != 3 {
		t.Errorf("snapshot mutated: expected 3 headers, got %d", snap.Len())
	}
}

func TestHeaderStackIgnoresOutOfRange(t *testing.T) {
	var s HeaderStack
	s.Push(0, "zero")
	s.Push(7, "seven")
	if s.Len() != 0 {
		t.Errorf("expected empty stack, got %d", s.Len())
	}
}

func TestIndexLabel(t *testing.T) {
	c := Chunk{ChunkIndex: 7}
	if c.IndexLabel() != "7" {
		t.Errorf("expected 7, got %s", c.IndexLabel())
	}
	sub := 1
	c.SubIndex = &sub
	if c.IndexLabel() != "7-1" {
		t.Errorf("expected 7-1, got %s", c.IndexLabel())
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	c := Chunk{HeaderPath: []HeaderNode{{Level: 1, Name: "A"}}}
	d := c.Clone()
	d.HeaderPath[0].Name = "B"
	if c.HeaderPath[0].Name != "A" {
		t.Error("clone aliases header path")
	}
}

func TestMetadataOf(t *testing.T) {
	sub := 2
	c := Chunk{
		DocumentID: "doc1",
		ChunkIndex: 7,
		SubIndex:   &sub,
		Location:   ChunkLocation{PageNumber: 3},
		HeaderPath: []HeaderNode{{Level: 1, Name: "Guide"}, {Level: 2, Name: "Fees"}},
		IsTable:    true,
		TableID:    "table_004",
	}
	m := MetadataOf(c, "guide.pdf")
	if m.ChunkIndex != "7-2" || m.PageNumber != 3 || m.HeaderPath != "Guide > Fees" {
		t.Errorf("unexpected metadata %+v", m)
	}
	if !m.IsTable || m.TableID != "table_004" || m.Filename != "guide.pdf" || m.DocumentID != "doc1" {
		t.Errorf("unexpected table fields %+v", m)
	}
}
