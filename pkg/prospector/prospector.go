// Package prospector scores and ranks contact exports against a declarative
// rule set.
package prospector

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cognicore/prospector/internal/logging"
	"github.com/cognicore/prospector/pkg/prospector/analytics"
	"github.com/cognicore/prospector/pkg/prospector/classify"
	"github.com/cognicore/prospector/pkg/prospector/config"
	"github.com/cognicore/prospector/pkg/prospector/engine"
	"github.com/cognicore/prospector/pkg/prospector/export"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/lexicon"
	"github.com/cognicore/prospector/pkg/prospector/rank"
	"github.com/cognicore/prospector/pkg/prospector/report"
	"github.com/cognicore/prospector/pkg/prospector/store"
)

// ReasonHeuristicExclusion tags rows removed by the exclusion heuristic.
const ReasonHeuristicExclusion = "exclusion_heuristique"

// Output file names written by WriteOutputs.
const (
	ProspectsFile = "prospects.csv"
	AuditFile     = "audit.csv"
	DecisionFile  = "decisions.csv"
)

// Prospector is the scoring facade.
type Prospector struct {
	mapping            ingest.Mapping
	engine             *engine.Engine
	taxonomy           *classify.Taxonomy
	lexicon            *lexicon.Lexicon
	policy             rank.Policy
	prospectMin        float64
	heuristicExclusion bool

	store   store.Store
	reports *report.Builder
	logger  logging.Logger
}

// Options configures a Prospector.
type Options struct {
	Mapping  ingest.Mapping
	Engine   *engine.Engine
	Taxonomy *classify.Taxonomy

	// Lexicon enables column auto-detection when set.
	Lexicon *lexicon.Lexicon

	// Policy defaults to rank.DefaultPolicy when left zero.
	Policy             rank.Policy
	ProspectMin        float64
	HeuristicExclusion bool

	// Store receives ranked prospects and the run record when set.
	Store   store.Store
	Reports *report.Builder
	Logger  logging.Logger
}

// FromComponents fills Options from configuration components.
func FromComponents(c *config.Components) Options {
	return Options{
		Mapping:            c.Mapping,
		Engine:             c.Engine,
		Taxonomy:           c.Taxonomy,
		Lexicon:            c.Lexicon,
		Policy:             c.Policy,
		ProspectMin:        c.ProspectMin,
		HeuristicExclusion: c.HeuristicExclusion,
	}
}

// New creates a Prospector with the given dependencies.
func New(opts Options) *Prospector {
	p := &Prospector{
		mapping:            opts.Mapping,
		engine:             opts.Engine,
		taxonomy:           opts.Taxonomy,
		lexicon:            opts.Lexicon,
		policy:             opts.Policy,
		prospectMin:        opts.ProspectMin,
		heuristicExclusion: opts.HeuristicExclusion,
		store:              opts.Store,
		reports:            opts.Reports,
		logger:             opts.Logger,
	}
	if p.engine == nil {
		p.engine = engine.New(nil)
	}
	if p.taxonomy == nil {
		p.taxonomy = classify.Default()
	}
	if p.policy == (rank.Policy{}) {
		p.policy = rank.DefaultPolicy()
	}
	if p.reports == nil {
		p.reports = report.NewBuilder()
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	return p
}

// Close releases the store, if any.
func (p *Prospector) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Result holds everything a run produced.
type Result struct {
	Report report.Report
	// Mapping is the mapping bound to the input header.
	Mapping ingest.Mapping
	// Kept are the rows that survived the rules and heuristics, annotated
	// and flagged, in input order.
	Kept []ingest.Row
	// Ranked are the recommended prospects in final order.
	Ranked   []ingest.Row
	Excluded []rank.Exclusion
	Audit    []rank.AuditRow
	// Stored is the number of prospects handed to the store.
	Stored int
}

// Run scores one raw table. input names the source in the report.
func (p *Prospector) Run(ctx context.Context, input string, raw ingest.RawTable) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	p.logger.Info("run started",
		logging.String("input", input),
		logging.Int("rows", len(raw.Records)))

	mapping := p.bind(raw.Columns)
	table := ingest.MapTable(raw, mapping)
	applied := p.engine.Apply(table)

	an := analytics.NewAnalyzer()
	an.AddRuleStats(applied.Stats)

	excluded := make([]rank.Exclusion, 0, len(applied.Removed))
	for _, r := range applied.Removed {
		excluded = append(excluded, rank.Exclusion{Row: r.Row, Reason: r.RuleID})
	}

	kept := make([]ingest.Row, 0, len(applied.Rows))
	heuristic := 0
	for _, row := range applied.Rows {
		if p.heuristicExclusion && p.taxonomy.Excluded(&row) {
			excluded = append(excluded, rank.Exclusion{Row: row, Reason: ReasonHeuristicExclusion})
			heuristic++
			continue
		}
		p.taxonomy.Annotate(&row)
		kept = append(kept, row)
	}
	an.Exclude(ReasonHeuristicExclusion, heuristic)

	p.policy.Mark(kept)
	ranked := rank.Rank(kept)
	an.Observe(kept)

	summary := an.Summarize(applied.Stats, len(ranked), p.emptyCounts(raw, mapping, table))
	rep := p.reports.Build(input, started, summary)

	res := &Result{
		Report:   rep,
		Mapping:  mapping,
		Kept:     kept,
		Ranked:   ranked,
		Excluded: excluded,
		Audit:    rank.Audit(ranked, kept, excluded),
	}

	if p.store != nil {
		n, err := p.persist(ctx, rep, len(raw.Records), len(kept), ranked)
		if err != nil {
			return nil, err
		}
		res.Stored = n
	}

	p.logger.Info("run finished",
		logging.String("run_id", rep.ID),
		logging.Int("rows_in", len(raw.Records)),
		logging.Int("rows_kept", len(kept)),
		logging.Int("excluded", len(excluded)),
		logging.Int("recommended", len(ranked)),
		logging.Int("warnings", len(applied.Stats.Warnings())))
	return res, nil
}

// bind resolves the configured mapping, completed by auto-detection when a
// lexicon is set, against header.
func (p *Prospector) bind(header []string) ingest.Mapping {
	mapping := p.mapping
	if p.lexicon != nil {
		detected := make(map[ingest.Field]string)
		for name, col := range p.lexicon.Detect(header) {
			if f, ok := ingest.ParseField(name); ok {
				detected[f] = col
			}
		}
		mapping = mapping.With(detected)
		p.logger.Debug("columns detected", logging.Any("columns", detected))
	}
	return ingest.Mapping{Columns: mapping.Resolve(header), TitleFallback: mapping.TitleFallback}
}

func (p *Prospector) emptyCounts(raw ingest.RawTable, mapping ingest.Mapping, table ingest.Table) analytics.EmptyCounts {
	var ec analytics.EmptyCounts
	if col := mapping.Columns[ingest.FieldTitle]; col != "" {
		if n, ok := analytics.CountEmpty(raw, col); ok {
			ec.RawTitleColumn, ec.RawTitle = col, n
		}
	}
	if col := mapping.Columns[ingest.FieldName]; col != "" {
		if n, ok := analytics.CountEmpty(raw, col); ok {
			ec.RawNameColumn, ec.RawName = col, n
		}
	}
	ec.Title = analytics.CountEmptyTitles(table.Rows)
	return ec
}

func (p *Prospector) persist(ctx context.Context, rep report.Report, rowsIn, rowsOut int, ranked []ingest.Row) (int, error) {
	n, err := p.store.UpsertProspects(ctx, rep.ID, store.FromRows(ranked))
	if err != nil {
		return 0, fmt.Errorf("store prospects: %w", err)
	}
	if err := p.store.RecordRun(ctx, store.Run{
		ID:          rep.ID,
		Input:       rep.Input,
		StartedAt:   rep.StartedAt,
		FinishedAt:  rep.FinishedAt,
		RowsIn:      rowsIn,
		RowsOut:     rowsOut,
		Recommended: len(ranked),
	}); err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	p.logger.Debug("prospects stored", logging.String("run_id", rep.ID), logging.Int("count", n))
	return n, nil
}

// DecisionTable returns every row kept by the rules and heuristics, in input
// order, with its keep/discard decision against the configured prospect
// minimum.
func (p *Prospector) DecisionTable(res *Result) ingest.RawTable {
	return export.DecisionTable(res.Kept, p.prospectMin)
}

// WriteOutputs writes the prospect, audit, decision and segment files into
// dir and records the written paths on the report.
func (p *Prospector) WriteOutputs(dir string, res *Result) ([]string, error) {
	var written []string
	for _, out := range []struct {
		file  string
		table ingest.RawTable
	}{
		{ProspectsFile, export.ProspectTable(res.Ranked)},
		{AuditFile, export.AuditTable(res.Audit)},
		{DecisionFile, p.DecisionTable(res)},
	} {
		path := filepath.Join(dir, out.file)
		if err := export.WriteFile(path, out.table); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	segments, err := export.WriteSegments(dir, res.Ranked)
	written = append(written, segments...)
	if err != nil {
		return written, err
	}

	res.Report.Outputs = append(res.Report.Outputs, written...)
	p.logger.Info("outputs written", logging.String("dir", dir), logging.Int("files", len(written)))
	return written, nil
}
