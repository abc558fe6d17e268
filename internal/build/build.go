// Package build turns stored grammar-point pages into a Yomitan dictionary
// archive.
package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/JakeFAU/bunpro-yomitan/internal/extract"
	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
	"github.com/JakeFAU/bunpro-yomitan/internal/hash/sha256"
	"github.com/JakeFAU/bunpro-yomitan/internal/metrics"
	"github.com/JakeFAU/bunpro-yomitan/internal/normalize"
	"github.com/JakeFAU/bunpro-yomitan/internal/termbank"
)

var tracer = otel.Tracer("github.com/JakeFAU/bunpro-yomitan/internal/build")

// Build outcomes reported to metrics.
const (
	OutcomeExtracted = "extracted"
	OutcomeSkipped   = "skipped"
	OutcomeWritten   = "written"
)

// PageSource lists and parses stored pages.
type PageSource interface {
	List() ([]string, error)
	Load(name string) (*goquery.Document, error)
}

// Publisher uploads a finished archive somewhere and returns its location.
type Publisher interface {
	PublishFile(ctx context.Context, localPath string) (string, error)
}

// Config controls where the build writes its outputs.
type Config struct {
	Writer      termbank.WriterConfig
	ArchivePath string
	// CSVPath, when set, also exports the expanded records as CSV.
	CSVPath string
}

// Report summarizes a build run.
type Report struct {
	Pages     int
	Extracted int
	Skipped   int
	Records   int
	Files     []string
	Archive   string
	// Checksum is the hex SHA-256 of the archive.
	Checksum  string
	CSV       string
	Published string
}

// Builder runs the extract, normalize and write stages in order.
type Builder struct {
	pages     PageSource
	extractor *extract.Extractor
	writer    *termbank.Writer
	hasher    *sha256.Hasher
	publisher Publisher
	cfg       Config
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// New wires a Builder. publisher and m may be nil.
func New(pages PageSource, cfg Config, publisher Publisher, m *metrics.Metrics, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		pages:     pages,
		extractor: extract.New(logger),
		writer:    termbank.NewWriter(cfg.Writer, logger),
		hasher:    sha256.New(),
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Collect extracts every stored page, drops degenerate entries and expands
// compound headwords. Unknown part-of-speech labels or JLPT levels abort the
// run since silently mapping them would corrupt the dictionary.
func (b *Builder) Collect(ctx context.Context) ([]grammar.ExpandedEntry, Report, error) {
	var report Report
	names, err := b.pages.List()
	if err != nil {
		return nil, report, fmt.Errorf("list pages: %w", err)
	}
	report.Pages = len(names)

	var records []grammar.ExpandedEntry
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("build canceled: %w", err)
		}
		doc, err := b.pages.Load(name)
		if err != nil {
			return nil, report, err
		}
		entry, err := b.extractor.Extract(doc)
		if err != nil {
			return nil, report, fmt.Errorf("extract %s: %w", name, err)
		}
		if err := normalize.Filter(entry); err != nil {
			b.logger.Warn("Skipping page",
				zap.String("page", name),
				zap.String("grammar_point", entry.Reading),
				zap.Error(err),
			)
			report.Skipped++
			continue
		}
		report.Extracted++
		records = append(records, normalize.Expand(entry)...)
	}
	report.Records = len(records)

	b.metrics.ObserveBuild(OutcomeExtracted, report.Extracted)
	b.metrics.ObserveBuild(OutcomeSkipped, report.Skipped)
	return records, report, nil
}

// Run collects records, writes the term banks, zips them and runs the
// optional CSV export and publish steps.
func (b *Builder) Run(ctx context.Context) (report Report, err error) {
	ctx, span := tracer.Start(ctx, "build.run")
	defer func() {
		span.SetAttributes(
			attribute.Int("pages", report.Pages),
			attribute.Int("records", report.Records),
		)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	records, report, err := b.Collect(ctx)
	if err != nil {
		return report, err
	}

	files, err := b.writer.Write(records)
	if err != nil {
		return report, fmt.Errorf("write term banks: %w", err)
	}
	report.Files = files
	b.metrics.ObserveBuild(OutcomeWritten, len(records))

	if err := termbank.Zip(b.cfg.Writer.Dir, b.cfg.ArchivePath); err != nil {
		return report, err
	}
	report.Archive = b.cfg.ArchivePath
	if report.Checksum, err = b.hasher.HashFile(b.cfg.ArchivePath); err != nil {
		return report, err
	}
	b.logger.Info("Wrote dictionary archive",
		zap.String("archive", b.cfg.ArchivePath),
		zap.String("sha256", report.Checksum),
		zap.Int("records", len(records)),
	)

	if b.cfg.CSVPath != "" {
		if err := WriteCSV(b.cfg.CSVPath, records); err != nil {
			return report, err
		}
		report.CSV = b.cfg.CSVPath
	}

	if b.publisher != nil {
		uri, err := b.publisher.PublishFile(ctx, b.cfg.ArchivePath)
		if err != nil {
			return report, fmt.Errorf("publish archive: %w", err)
		}
		report.Published = uri
		b.logger.Info("Published dictionary archive", zap.String("uri", uri))
	}

	b.metrics.MarkRun("build", b.now())
	return report, nil
}

// IsTaxonomyError reports whether err stems from an unmapped part of speech or
// JLPT level.
func IsTaxonomyError(err error) bool {
	return errors.Is(err, grammar.ErrUnknownPartOfSpeech) || errors.Is(err, grammar.ErrUnknownJLPTLevel)
}
