package config

import (
	"fmt"
	"sort"
	"strings"
)

// Genome describes one supported reference.
type Genome struct {
	Name     string // friendly name accepted by -g
	Assembly string // UCSC assembly id used against the database and API
	Common   bool   // shown by --list (vs --list-more)
}

// genomes maps friendly names to UCSC assemblies. GenArk accessions
// (GCA_/GCF_) are accepted verbatim without appearing here.
var genomes = []Genome{
	{Name: "hg38", Assembly: "hg38", Common: true},
	{Name: "hg19", Assembly: "hg19", Common: true},
	{Name: "human", Assembly: "hg38", Common: true},
	{Name: "mouse", Assembly: "mm39", Common: true},
	{Name: "mm39", Assembly: "mm39", Common: true},
	{Name: "mm10", Assembly: "mm10", Common: true},
	{Name: "rat", Assembly: "rn7", Common: true},
	{Name: "zebrafish", Assembly: "danRer11", Common: true},
	{Name: "fly", Assembly: "dm6", Common: true},
	{Name: "worm", Assembly: "ce11", Common: true},
	{Name: "yeast", Assembly: "sacCer3", Common: true},
	{Name: "covid", Assembly: "wuhCor1", Common: true},

	{Name: "cat", Assembly: "felCat9"},
	{Name: "dog", Assembly: "canFam6"},
	{Name: "cow", Assembly: "bosTau9"},
	{Name: "pig", Assembly: "susScr11"},
	{Name: "horse", Assembly: "equCab3"},
	{Name: "chicken", Assembly: "galGal6"},
	{Name: "chimp", Assembly: "panTro6"},
	{Name: "gorilla", Assembly: "gorGor6"},
	{Name: "rhesus", Assembly: "rheMac10"},
	{Name: "rabbit", Assembly: "oryCun2"},
	{Name: "sheep", Assembly: "oviAri4"},
	{Name: "frog", Assembly: "xenTro10"},
	{Name: "chlamy", Assembly: "chlSab2"},
}

// ResolveGenome maps a -g value to an assembly id. UCSC GenArk accessions
// pass through unchanged.
func ResolveGenome(name string) (string, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return "", fmt.Errorf("empty genome name")
	}
	if strings.HasPrefix(key, "GCA_") || strings.HasPrefix(key, "GCF_") {
		return key, nil
	}
	lower := strings.ToLower(key)
	for _, g := range genomes {
		if strings.ToLower(g.Name) == lower || strings.ToLower(g.Assembly) == lower {
			return g.Assembly, nil
		}
	}
	// Unlisted UCSC assembly ids (e.g. ailMel1) are accepted as-is; the
	// data sources report the failure if the assembly does not exist.
	return key, nil
}

// ListGenomes returns the registry for --list (common only) or --list-more.
func ListGenomes(all bool) []Genome {
	var out []Genome
	for _, g := range genomes {
		if g.Common || all {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
