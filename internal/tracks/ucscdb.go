package tracks

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// UCSC public MySQL mirrors. The user is anonymous by convention.
const (
	UCSCHostUS = "genome-mysql.soe.ucsc.edu:3306"
	UCSCHostEU = "genome-euro-mysql.soe.ucsc.edu:3306"

	ucscUser = "genome"
)

// geneTables are tried in order; assemblies differ in which they carry.
var geneTables = []string{"ncbiRefSeq", "refGene"}

const geneColumns = "name, chrom, strand, txStart, txEnd, cdsStart, cdsEnd, exonStarts, exonEnds, name2"

// UCSCSource reads gene annotations from the UCSC-compatible MySQL schema.
type UCSCSource struct {
	db    *sql.DB
	table string
}

// OpenUCSC connects to a UCSC MySQL mirror for one assembly and picks the
// gene table the assembly provides.
func OpenUCSC(ctx context.Context, host, assembly string) (*UCSCSource, error) {
	dsn := fmt.Sprintf("%s@tcp(%s)/%s?interpolateParams=true", ucscUser, host, assembly)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open ucsc mysql")
	}
	src := &UCSCSource{db: db}
	for _, table := range geneTables {
		var one int
		err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", table)).Scan(&one)
		if err == nil || err == sql.ErrNoRows {
			src.table = table
			return src, nil
		}
	}
	_ = db.Close()
	return nil, tgverr.New(tgverr.DataSourceUnavailable, "no gene table found for assembly %s", assembly)
}

func (s *UCSCSource) Close() error { return s.db.Close() }

// GenesInContig returns every gene on a contig in start order.
func (s *UCSCSource) GenesInContig(ctx context.Context, contig string) ([]Gene, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE chrom = ? ORDER BY txStart", geneColumns, s.table)
	rows, err := s.db.QueryContext(ctx, query, contig)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "query genes")
	}
	defer rows.Close()
	return scanGenes(rows)
}

// LookupGene finds a gene by symbol or accession. When several transcripts
// share the symbol the longest is returned.
func (s *UCSCSource) LookupGene(ctx context.Context, name string) (Gene, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE name2 = ? OR name = ? ORDER BY (txEnd - txStart) DESC LIMIT 1",
		geneColumns, s.table)
	rows, err := s.db.QueryContext(ctx, query, name, name)
	if err != nil {
		return Gene{}, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "lookup gene")
	}
	defer rows.Close()
	genes, err := scanGenes(rows)
	if err != nil {
		return Gene{}, err
	}
	if len(genes) == 0 {
		return Gene{}, tgverr.New(tgverr.UnknownFeature, "no feature named %q", name)
	}
	return genes[0], nil
}

// geneRow matches one row of the UCSC gene schema before coordinate
// conversion. UCSC stores 0-based half-open intervals and comma-terminated
// exon blobs.
type geneRow struct {
	name, chrom, strand  string
	txStart, txEnd       int64
	cdsStart, cdsEnd     int64
	exonStarts, exonEnds []byte
	name2                sql.NullString
}

func scanGenes(rows *sql.Rows) ([]Gene, error) {
	var out []Gene
	for rows.Next() {
		var r geneRow
		if err := rows.Scan(&r.name, &r.chrom, &r.strand, &r.txStart, &r.txEnd,
			&r.cdsStart, &r.cdsEnd, &r.exonStarts, &r.exonEnds, &r.name2); err != nil {
			return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "scan gene row")
		}
		out = append(out, r.toGene())
	}
	if err := rows.Err(); err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "iterate gene rows")
	}
	return out, nil
}

func (r geneRow) toGene() Gene {
	symbol := r.name
	if r.name2.Valid && r.name2.String != "" {
		symbol = r.name2.String
	}
	return Gene{
		ID:         r.name,
		Name:       symbol,
		Contig:     r.chrom,
		Strand:     genome.ParseStrand(r.strand),
		TxStart:    int(r.txStart) + 1,
		TxEnd:      int(r.txEnd) + 1,
		CdsStart:   int(r.cdsStart) + 1,
		CdsEnd:     int(r.cdsEnd) + 1,
		ExonStarts: parseCoordBlob(r.exonStarts, 1),
		ExonEnds:   parseCoordBlob(r.exonEnds, 1),
	}
}

// parseCoordBlob reads a UCSC comma-terminated coordinate list, shifting by
// offset to convert to 1-based.
func parseCoordBlob(blob []byte, offset int) []int {
	s := strings.TrimSuffix(string(blob), ",")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, n+offset)
	}
	return out
}
