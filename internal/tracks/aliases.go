package tracks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tgvdev/tgv/internal/tgverr"
)

// FetchAliases reads the UCSC chromAlias table (alias -> canonical contig).
// Assemblies without the table return an error the caller may ignore.
func FetchAliases(ctx context.Context, host, assembly string) (map[string]string, error) {
	dsn := fmt.Sprintf("%s@tcp(%s)/%s?interpolateParams=true", ucscUser, host, assembly)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "open ucsc mysql")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT alias, chrom FROM chromAlias")
	if err != nil {
		return nil, tgverr.Wrap(tgverr.DataSourceUnavailable, err, "query chromAlias")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var alias, chrom string
		if err := rows.Scan(&alias, &chrom); err != nil {
			return nil, tgverr.Wrap(tgverr.MalformedRecord, err, "scan chromAlias row")
		}
		out[alias] = chrom
	}
	return out, rows.Err()
}
