package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tgvdev/tgv/internal/app"
	"github.com/tgvdev/tgv/internal/config"
	"github.com/tgvdev/tgv/internal/refdata"
	"github.com/tgvdev/tgv/internal/tgverr"
)

// Exit codes.
const (
	exitOK          = 0
	exitCLI         = 2
	exitUnreachable = 3
	exitCorruption  = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	// Object-store credentials follow the htslib environment conventions;
	// a ~/.tgv/.env file can supply them.
	if home, err := config.Home(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".env"))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "download" {
		return runDownload(ctx, os.Args[2:])
	}

	fs := flag.NewFlagSet("tgv", flag.ContinueOnError)
	genomeFlag := fs.String("g", "", "reference genome (e.g. hg38, hg19, mouse, or a GCF_/GCA_ accession)")
	regionFlag := fs.String("r", "", "initial region: <contig>:<pos>, <contig>, or a feature name")
	indexFlag := fs.String("i", "", "BAM index path (local files only)")
	vcfFlag := fs.String("v", "", "VCF overlay track")
	bedFlag := fs.String("b", "", "BED overlay track")
	noReference := fs.Bool("no-reference", false, "disable the sequence and feature layers")
	list := fs.Bool("list", false, "print commonly used genomes and exit")
	listMore := fs.Bool("list-more", false, "print all supported genomes and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitCLI
	}

	if *list || *listMore {
		for _, g := range config.ListGenomes(*listMore) {
			fmt.Printf("%-12s %s\n", g.Name, g.Assembly)
		}
		return exitOK
	}

	var bamPath string
	switch fs.NArg() {
	case 0:
	case 1:
		bamPath = fs.Arg(0)
	default:
		fmt.Fprintln(os.Stderr, "tgv: at most one alignment path or URI")
		return exitCLI
	}
	if bamPath == "" && *noReference {
		fmt.Fprintln(os.Stderr, "tgv: --no-reference needs an alignment to display")
		return exitCLI
	}

	opts := app.Options{
		BAMPath:     bamPath,
		IndexPath:   *indexFlag,
		Region:      *regionFlag,
		Genome:      *genomeFlag,
		NoReference: *noReference,
		VCFPath:     *vcfFlag,
		BEDPath:     *bedFlag,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "tgv: %v\n", err)
		return exitCodeFor(err)
	}
	return exitOK
}

func runDownload(ctx context.Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: tgv download <genome>")
		return exitCLI
	}
	assembly, err := config.ResolveGenome(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "tgv: %v\n", err)
		return exitCLI
	}
	home, err := config.Home()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tgv: %v\n", err)
		return exitCLI
	}
	if err := refdata.Download(ctx, os.Stdout, home, assembly); err != nil {
		fmt.Fprintf(os.Stderr, "tgv: %v\n", err)
		return exitCodeFor(err)
	}
	return exitOK
}

// exitCodeFor maps error kinds onto the documented exit codes.
func exitCodeFor(err error) int {
	var te *tgverr.Error
	if !errors.As(err, &te) {
		return 1
	}
	switch te.Kind {
	case tgverr.ParseCommand, tgverr.UnknownContig, tgverr.UnknownFeature:
		return exitCLI
	case tgverr.DataSourceUnavailable:
		return exitUnreachable
	case tgverr.CacheCorruption:
		return exitCorruption
	}
	return 1
}
