package genome

import "strings"

// Contig is a named continuous reference sequence (chromosome or scaffold).
type Contig struct {
	Name   string // canonical name as the reference declares it
	Length int    // length in bases
}

// abbreviatable chromosome names that accept a bare "1".."22"/"X"/"Y"/"MT" form.
var abbreviatableChromosomes = map[string]bool{
	"1": true, "2": true, "3": true, "4": true, "5": true, "6": true,
	"7": true, "8": true, "9": true, "10": true, "11": true, "12": true,
	"13": true, "14": true, "15": true, "16": true, "17": true, "18": true,
	"19": true, "20": true, "21": true, "22": true, "X": true, "Y": true,
	"MT": true, "M": true,
}

// ContigSet resolves contig name aliases to one canonical contig per loaded
// reference. Lookup is case-insensitive and accepts the bare chromosome number
// ("17"), the chr-prefixed form ("chr17"), and any alias loaded from the
// reference's alias table (e.g. RefSeq NC_ accessions).
type ContigSet struct {
	contigs []Contig
	byAlias map[string]int // lower-cased alias -> index into contigs
}

// NewContigSet builds a set from contigs in reference order.
func NewContigSet(contigs []Contig) *ContigSet {
	s := &ContigSet{
		contigs: contigs,
		byAlias: make(map[string]int, len(contigs)*2),
	}
	for i, c := range contigs {
		s.addAlias(c.Name, i)

		// chr1 <-> 1 style aliases.
		if stripped, ok := strings.CutPrefix(c.Name, "chr"); ok {
			if abbreviatableChromosomes[stripped] {
				s.addAlias(stripped, i)
			}
		} else if abbreviatableChromosomes[c.Name] {
			s.addAlias("chr"+c.Name, i)
		}
	}
	return s
}

// AddAlias registers an extra alias (e.g. from a reference alias table) for a
// canonical contig name. Unknown canonical names are ignored.
func (s *ContigSet) AddAlias(alias, canonical string) {
	if i, ok := s.byAlias[strings.ToLower(canonical)]; ok {
		s.addAlias(alias, i)
	}
}

func (s *ContigSet) addAlias(alias string, i int) {
	key := strings.ToLower(strings.TrimSpace(alias))
	if key == "" {
		return
	}
	if _, exists := s.byAlias[key]; !exists {
		s.byAlias[key] = i
	}
}

// Resolve returns the canonical contig for a name or alias.
func (s *ContigSet) Resolve(name string) (Contig, bool) {
	i, ok := s.byAlias[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Contig{}, false
	}
	return s.contigs[i], true
}

// Contigs returns all contigs in reference order.
func (s *ContigSet) Contigs() []Contig {
	out := make([]Contig, len(s.contigs))
	copy(out, s.contigs)
	return out
}

// Index returns the reference-order index of a contig name or alias.
func (s *ContigSet) Index(name string) (int, bool) {
	i, ok := s.byAlias[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// At returns the contig at a reference-order index.
func (s *ContigSet) At(i int) (Contig, bool) {
	if i < 0 || i >= len(s.contigs) {
		return Contig{}, false
	}
	return s.contigs[i], true
}

// Len returns the number of contigs.
func (s *ContigSet) Len() int { return len(s.contigs) }
