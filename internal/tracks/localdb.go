package tracks

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// localSchema mirrors the UCSC gene table with coordinates already converted
// to 1-based half-open. Populated by the download subcommand.
const localSchema = `
CREATE TABLE IF NOT EXISTS genes (
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	contig      TEXT NOT NULL,
	strand      TEXT NOT NULL,
	tx_start    INTEGER NOT NULL,
	tx_end      INTEGER NOT NULL,
	cds_start   INTEGER NOT NULL,
	cds_end     INTEGER NOT NULL,
	exon_starts TEXT NOT NULL,
	exon_ends   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS genes_contig_start ON genes (contig, tx_start);
CREATE INDEX IF NOT EXISTS genes_name ON genes (name COLLATE NOCASE);
`

// LocalSource reads gene annotations from the per-genome sqlite cache.
type LocalSource struct {
	db *sql.DB
}

// OpenLocal opens (creating if needed) the local gene database at path.
func OpenLocal(path string) (*LocalSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "open local gene db")
	}
	if _, err := db.Exec(localSchema); err != nil {
		_ = db.Close()
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "init local gene schema")
	}
	return &LocalSource{db: db}, nil
}

func (s *LocalSource) Close() error { return s.db.Close() }

const localColumns = "id, name, contig, strand, tx_start, tx_end, cds_start, cds_end, exon_starts, exon_ends"

// GenesInContig returns every gene on a contig in start order.
func (s *LocalSource) GenesInContig(ctx context.Context, contig string) ([]Gene, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+localColumns+" FROM genes WHERE contig = ? ORDER BY tx_start", contig)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "query local genes")
	}
	defer rows.Close()
	return scanLocalGenes(rows)
}

// LookupGene finds a gene by symbol or accession, case-insensitive.
func (s *LocalSource) LookupGene(ctx context.Context, name string) (Gene, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+localColumns+` FROM genes
		 WHERE name = ? COLLATE NOCASE OR id = ? COLLATE NOCASE
		 ORDER BY (tx_end - tx_start) DESC LIMIT 1`, name, name)
	g, err := scanLocalGene(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Gene{}, tgverr.New(tgverr.UnknownFeature, "no feature named %q", name)
	}
	if err != nil {
		return Gene{}, tgverr.Wrap(tgverr.CacheCorruption, err, "lookup local gene")
	}
	return g, nil
}

// InsertGenes writes genes inside one transaction; used by the downloader.
func (s *LocalSource) InsertGenes(ctx context.Context, genes []Gene) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tgverr.Wrap(tgverr.CacheCorruption, err, "begin gene import")
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO genes ("+localColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)")
	if err != nil {
		_ = tx.Rollback()
		return tgverr.Wrap(tgverr.CacheCorruption, err, "prepare gene import")
	}
	defer stmt.Close()
	for _, g := range genes {
		_, err := stmt.ExecContext(ctx, g.ID, g.Name, g.Contig, g.Strand.String(),
			g.TxStart, g.TxEnd, g.CdsStart, g.CdsEnd,
			joinCoords(g.ExonStarts), joinCoords(g.ExonEnds))
		if err != nil {
			_ = tx.Rollback()
			return tgverr.Wrap(tgverr.CacheCorruption, err, "insert gene")
		}
	}
	return tx.Commit()
}

func scanLocalGenes(rows *sql.Rows) ([]Gene, error) {
	var out []Gene
	for rows.Next() {
		g, err := scanLocalGene(rows.Scan)
		if err != nil {
			return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "scan local gene")
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, tgverr.Wrap(tgverr.CacheCorruption, err, "iterate local genes")
	}
	return out, nil
}

func scanLocalGene(scan func(...any) error) (Gene, error) {
	var g Gene
	var strand, exonStarts, exonEnds string
	if err := scan(&g.ID, &g.Name, &g.Contig, &strand,
		&g.TxStart, &g.TxEnd, &g.CdsStart, &g.CdsEnd, &exonStarts, &exonEnds); err != nil {
		return Gene{}, err
	}
	g.Strand = genome.ParseStrand(strand)
	g.ExonStarts = parseCoordBlob([]byte(exonStarts), 0)
	g.ExonEnds = parseCoordBlob([]byte(exonEnds), 0)
	return g, nil
}

func joinCoords(coords []int) string {
	var b []byte
	for i, c := range coords {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(c), 10)
	}
	return string(b)
}
