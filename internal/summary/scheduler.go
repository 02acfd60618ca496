package summary

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/regrag/internal/doctree"
)

// ChildSummary is an already computed summary of a direct child section.
type ChildSummary struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// SectionInput is everything a generator sees for one section.
type SectionInput struct {
	Key      doctree.HeaderPathKey
	Name     string
	Head     string
	Tail     string
	Children []ChildSummary
}

// Generator writes one section summary. It may fail per call.
type Generator interface {
	SummarizeSection(ctx context.Context, in SectionInput) (string, float64, error)
}

// Config bounds prompt size and fan-out.
type Config struct {
	HeadChars     int
	TailChars     int
	MaxConcurrent int
}

func DefaultConfig() Config {
	return Config{HeadChars: 2500, TailChars: 1000, MaxConcurrent: 8}
}

// Result holds every section summary and the summed cost of successful calls.
// A failed section maps to "".
type Result struct {
	Summaries map[doctree.HeaderPathKey]string
	Order     []doctree.HeaderPathKey
	Cost      float64
}

// Scheduler runs section summarization deepest level first.
type Scheduler struct {
	gen Generator
	cfg Config
	log *slog.Logger
}

func NewScheduler(gen Generator, cfg Config, log *slog.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.HeadChars <= 0 {
		cfg.HeadChars = def.HeadChars
	}
	if cfg.TailChars <= 0 {
		cfg.TailChars = def.TailChars
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	return &Scheduler{gen: gen, cfg: cfg, log: log}
}

type section struct {
	key     doctree.HeaderPathKey
	content string
}

// group concatenates chunk content per header path key, keys in first-seen order.
func group(chunks []doctree.Chunk) []section {
	idx := make(map[doctree.HeaderPathKey]int)
	var parts [][]string
	var out []section
	for _, c := range chunks {
		k := c.Key()
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, section{key: k})
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], c.Content)
	}
	for i := range out {
		out[i].content = strings.Join(parts[i], "\n")
	}
	return out
}

// Hierarchy maps each key to its direct children among keys, in input order.
func Hierarchy(keys []doctree.HeaderPathKey) map[doctree.HeaderPathKey][]doctree.HeaderPathKey {
	h := make(map[doctree.HeaderPathKey][]doctree.HeaderPathKey)
	for _, k := range keys {
		if k == doctree.RootKey {
			continue
		}
		p := k.Parent()
		h[p] = append(h[p], k)
	}
	return h
}

// SectionName is the display name of a section key.
func SectionName(k doctree.HeaderPathKey) string {
	if k == doctree.RootKey {
		return "document"
	}
	return k.Name()
}

// Run summarizes every section of the given section chunks. Siblings within
// a level run concurrently; a level starts only after the deeper level has
// fully resolved, so each parent sees its children's summaries.
func (s *Scheduler) Run(ctx context.Context, chunks []doctree.Chunk) Result {
	sections := group(chunks)
	res := Result{Summaries: make(map[doctree.HeaderPathKey]string, len(sections))}
	if len(sections) == 0 {
		return res
	}

	byLevel := make(map[int][]section)
	keys := make([]doctree.HeaderPathKey, len(sections))
	for i, sec := range sections {
		keys[i] = sec.key
		d := sec.key.Depth()
		byLevel[d] = append(byLevel[d], sec)
	}
	res.Order = keys
	children := Hierarchy(keys)

	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))

	for _, level := range levels {
		batch := byLevel[level]
		summaries := make([]string, len(batch))
		costs := make([]float64, len(batch))

		var g errgroup.Group
		g.SetLimit(s.cfg.MaxConcurrent)
		for i, sec := range batch {
			in := s.input(sec, children[sec.key], res.Summaries)
			g.Go(func() error {
				text, cost, err := s.gen.SummarizeSection(ctx, in)
				if err != nil {
					s.log.Warn("section summary failed", "section", in.Name, "level", level, "error", err)
					return nil
				}
				summaries[i] = strings.TrimSpace(text)
				costs[i] = cost
				return nil
			})
		}
		_ = g.Wait()

		for i, sec := range batch {
			res.Summaries[sec.key] = summaries[i]
			res.Cost += costs[i]
		}
		s.log.Info("summarized level", "level", level, "sections", len(batch))
	}

	return res
}

func (s *Scheduler) input(sec section, kids []doctree.HeaderPathKey, done map[doctree.HeaderPathKey]string) SectionInput {
	head, tail := Sample(sec.content, s.cfg.HeadChars, s.cfg.TailChars)
	in := SectionInput{Key: sec.key, Name: SectionName(sec.key), Head: head, Tail: tail}
	for _, k := range kids {
		sum := done[k]
		if sum == "" {
			continue
		}
		leaf, _ := k.Leaf()
		in.Children = append(in.Children, ChildSummary{Name: leaf.Name, Summary: sum})
	}
	return in
}

// Serialize converts summaries to breadcrumb-keyed form for persistence.
func Serialize(summaries map[doctree.HeaderPathKey]string) map[string]string {
	out := make(map[string]string, len(summaries))
	for k, v := range summaries {
		out[SectionName(k)] = v
	}
	return out
}
