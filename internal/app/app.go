// Package app is the composition root: it resolves the genome, builds the
// data providers (local cache or remote UCSC, BAM over any storage scheme),
// and runs the viewer until quit.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tgvdev/tgv/internal/align"
	"github.com/tgvdev/tgv/internal/bed"
	"github.com/tgvdev/tgv/internal/command"
	"github.com/tgvdev/tgv/internal/config"
	"github.com/tgvdev/tgv/internal/genome"
	"github.com/tgvdev/tgv/internal/logging"
	"github.com/tgvdev/tgv/internal/prefs"
	"github.com/tgvdev/tgv/internal/refdata"
	"github.com/tgvdev/tgv/internal/seq"
	"github.com/tgvdev/tgv/internal/tgverr"
	"github.com/tgvdev/tgv/internal/tracks"
	"github.com/tgvdev/tgv/internal/vcf"
	"github.com/tgvdev/tgv/internal/viewer"
)

// Options configure one viewer session.
type Options struct {
	BAMPath     string
	IndexPath   string
	Region      string
	Genome      string
	NoReference bool
	VCFPath     string
	BEDPath     string
	PrefsPath   string
}

// initialColumns is a placeholder until the first terminal resize message.
const initialColumns = 80

// Run boots the tgv TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	home, err := config.Home()
	if err != nil {
		return fmt.Errorf("resolve tgv home: %w", err)
	}
	if err := logging.Init(config.LogPath(home), zapcore.InfoLevel); err == nil {
		defer func() { _ = logging.Sync() }()
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	if strings.TrimSpace(opts.Genome) == "" {
		opts.Genome = userPrefs.Genome
	}

	vopts, cleanup, err := buildViewerOptions(ctx, home, userPrefs, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	logging.Info("starting viewer",
		zap.String("genome", opts.Genome),
		zap.String("bam", opts.BAMPath),
		zap.String("region", vopts.InitialWindow.Region().String()))

	program := tea.NewProgram(viewer.New(vopts), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

func buildViewerOptions(ctx context.Context, home string, userPrefs prefs.Prefs, opts Options) (viewer.Options, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	fail := func(err error) (viewer.Options, func(), error) {
		cleanup()
		return viewer.Options{}, func() {}, err
	}

	vopts := viewer.Options{
		Context:   ctx,
		ThemeName: userPrefs.Theme,
	}

	var contigs *genome.ContigSet
	if !opts.NoReference {
		assembly, err := config.ResolveGenome(opts.Genome)
		if err != nil {
			return fail(tgverr.Wrap(tgverr.ParseCommand, err, "resolve genome"))
		}

		if refdata.HasLocalData(home, assembly) {
			dir := config.GenomeDir(home, assembly)

			tb, err := seq.OpenTwoBit(filepath.Join(dir, config.SequenceFile))
			if err != nil {
				return fail(err)
			}
			closers = append(closers, func() { _ = tb.Close() })
			vopts.Sequence = tb

			src, err := tracks.OpenLocal(filepath.Join(dir, config.GenesFile))
			if err != nil {
				return fail(err)
			}
			closers = append(closers, func() { _ = src.Close() })
			vopts.Index = tracks.NewIndex(src)

			contigs, err = refdata.LoadContigs(home, assembly)
			if err != nil {
				return fail(err)
			}
		} else {
			client, err := seq.NewUCSCClient("", assembly)
			if err != nil {
				return fail(tgverr.Wrap(tgverr.DataSourceUnavailable, err, "init sequence api"))
			}
			vopts.Sequence = client

			src, err := tracks.OpenUCSC(ctx, tracks.UCSCHostUS, assembly)
			if err != nil {
				return fail(err)
			}
			closers = append(closers, func() { _ = src.Close() })
			vopts.Index = tracks.NewIndex(src)

			remoteContigs, err := refdata.FetchChromosomes(ctx, assembly)
			if err != nil {
				return fail(err)
			}
			contigs = genome.NewContigSet(remoteContigs)
		}
	} else {
		vopts.Sequence = seq.NoneProvider{}
	}

	if opts.BAMPath != "" {
		provider, err := align.OpenBAM(ctx, opts.BAMPath, opts.IndexPath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = provider.Close() })
		vopts.Alignments = provider

		if contigs == nil {
			contigs = genome.NewContigSet(provider.Contigs())
		}
	}
	if contigs == nil || contigs.Len() == 0 {
		return fail(tgverr.New(tgverr.DataSourceUnavailable,
			"no contigs available; provide a BAM or a reference genome"))
	}
	vopts.Contigs = contigs

	if opts.BEDPath != "" {
		features, err := bed.ReadFile(opts.BEDPath)
		if err != nil {
			return fail(err)
		}
		vopts.BedFeatures = features
	}
	if opts.VCFPath != "" {
		variants, err := vcf.ReadFile(opts.VCFPath)
		if err != nil {
			return fail(err)
		}
		vopts.Variants = variants
	}

	window, err := initialWindow(ctx, opts, vopts, contigs)
	if err != nil {
		return fail(err)
	}
	vopts.InitialWindow = window

	return vopts, cleanup, nil
}

// initialWindow resolves -r (contig:pos, contig, or feature name) or picks a
// default starting region.
func initialWindow(ctx context.Context, opts Options, vopts viewer.Options, contigs *genome.ContigSet) (genome.ViewWindow, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		return defaultWindow(ctx, opts, vopts, contigs)
	}

	// A bare contig name jumps to its start.
	if contig, ok := contigs.Resolve(region); ok {
		return genome.NewViewWindow(contig, 1, initialColumns), nil
	}

	parsed, err := command.ParseLine(region)
	if err != nil {
		return genome.ViewWindow{}, tgverr.Wrap(tgverr.ParseCommand, err, "parse -r region")
	}
	switch c := parsed.(type) {
	case command.GotoContigPos:
		contig, ok := contigs.Resolve(c.Contig)
		if !ok {
			return genome.ViewWindow{}, tgverr.New(tgverr.UnknownContig, "unknown contig %q in -r", c.Contig)
		}
		w := genome.NewViewWindow(contig, 1, initialColumns)
		w.CenterOn(c.Pos)
		return w, nil
	case command.GotoPos:
		contig, _ := contigs.At(0)
		w := genome.NewViewWindow(contig, 1, initialColumns)
		w.CenterOn(c.Pos)
		return w, nil
	case command.GotoFeature:
		if vopts.Index == nil {
			return genome.ViewWindow{}, tgverr.New(tgverr.UnknownFeature,
				"-r %q needs an annotation source", region)
		}
		f, err := vopts.Index.Lookup(ctx, c.Name)
		if err != nil {
			return genome.ViewWindow{}, err
		}
		contig, ok := contigs.Resolve(f.Region.Contig)
		if !ok {
			return genome.ViewWindow{}, tgverr.New(tgverr.UnknownContig,
				"feature %s is on unknown contig %s", f.Name, f.Region.Contig)
		}
		w := genome.NewViewWindow(contig, 1, initialColumns)
		w.CenterOn(f.Region.Start + f.Region.Len()/2)
		return w, nil
	}
	return genome.ViewWindow{}, tgverr.New(tgverr.ParseCommand, "unsupported -r value %q", region)
}

// defaultGenes names a well-known landing gene per assembly. Assemblies not
// listed (yeast, covid, GenArk accessions, ...) start at the first contig.
var defaultGenes = map[string]string{
	"hg38": "TP53",
	"hg19": "TP53",
	"mm39": "Trp53",
	"mm10": "Trp53",
	"rn7":  "Tp53",
}

// defaultWindow starts at the assembly's landing gene when one is known,
// otherwise at the first contig.
func defaultWindow(ctx context.Context, opts Options, vopts viewer.Options, contigs *genome.ContigSet) (genome.ViewWindow, error) {
	assembly, _ := config.ResolveGenome(opts.Genome)
	if gene, ok := defaultGenes[assembly]; ok && vopts.Index != nil {
		if f, err := vopts.Index.Lookup(ctx, gene); err == nil {
			if contig, ok := contigs.Resolve(f.Region.Contig); ok {
				w := genome.NewViewWindow(contig, 1, initialColumns)
				w.CenterOn(f.Region.Start + f.Region.Len()/2)
				return w, nil
			}
		}
	}
	contig, ok := contigs.At(0)
	if !ok {
		return genome.ViewWindow{}, tgverr.New(tgverr.Internal, "empty contig set")
	}
	return genome.NewViewWindow(contig, 1, initialColumns), nil
}
