package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"hdrtoc/internal/config"
	"hdrtoc/internal/extractor"
	"hdrtoc/internal/generator"
	"hdrtoc/internal/git"
	"hdrtoc/internal/storage"

	"go.uber.org/zap"
)

// maxSettlePasses bounds the re-index loop. Offsets only move when the
// preamble changes length, so two passes settle any well-formed header.
const maxSettlePasses = 4

// Synchronizer regenerates the preamble of one header:
// index sections, locate the include guard, render, write.
type Synchronizer struct {
	Settle       bool
	RequireClean bool

	store    storage.HeaderStore
	indexer  *extractor.Indexer
	locator  extractor.GuardLocator
	renderer *generator.Renderer
	logger   *zap.Logger
}

// Result describes one pass over the target.
type Result struct {
	Path    string
	Index   *extractor.Index
	Before  []byte
	After   []byte
	Passes  int
	Written bool
}

// Changed reports whether the regenerated content differs from the file.
func (r *Result) Changed() bool {
	return !bytes.Equal(r.Before, r.After)
}

func NewSynchronizer(cfg *config.Config, logger *zap.Logger) (*Synchronizer, error) {
	return NewSynchronizerWithStore(cfg, storage.NewFileStore(cfg.Target), logger)
}

func NewSynchronizerWithStore(cfg *config.Config, store storage.HeaderStore, logger *zap.Logger) (*Synchronizer, error) {
	locator, err := extractor.NewGuardLocator(cfg.Guard.Locator, cfg.Guard.Sentinel)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Synchronizer{
		Settle:       cfg.Settle,
		RequireClean: cfg.RequireClean,
		store:        store,
		indexer:      extractor.NewIndexer(cfg.Convention()),
		locator:      locator,
		renderer: generator.NewRenderer(cfg.Header, cfg.Docs, generator.Labels{
			Title:       cfg.TOC.Title,
			Declaration: cfg.TOC.DeclarationLabel,
			Definition:  cfg.TOC.DefinitionLabel,
		}),
		logger: logger,
	}, nil
}

// Plan computes the regenerated content without touching the file.
func (s *Synchronizer) Plan(ctx context.Context) (*Result, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	idx, err := s.indexStage(snap)
	if err != nil {
		return nil, err
	}

	suffix, err := s.suffixStage(snap)
	if err != nil {
		return nil, err
	}

	out := s.renderer.Render(idx, suffix)
	passes := 1
	if s.Settle {
		idx, out, passes, err = s.settleStage(idx, suffix, out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", snap.Path, err)
		}
	}

	s.logger.Debug("rendered preamble",
		zap.String("path", snap.Path),
		zap.Int("preamble_lines", s.renderer.PreambleLines(idx)),
		zap.Int("passes", passes))

	return &Result{
		Path:   snap.Path,
		Index:  idx,
		Before: snap.Content,
		After:  []byte(out),
		Passes: passes,
	}, nil
}

// Run plans and, when the content changed, replaces the target.
func (s *Synchronizer) Run(ctx context.Context) (*Result, error) {
	res, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if !res.Changed() {
		s.logger.Debug("preamble up to date", zap.String("path", res.Path))
		return res, nil
	}

	if s.RequireClean {
		if err := s.cleanStage(ctx, res.Path); err != nil {
			return nil, err
		}
	}

	if err := s.store.Replace(ctx, res.After); err != nil {
		return nil, fmt.Errorf("failed to rewrite %s: %w", res.Path, err)
	}
	res.Written = true

	s.logger.Info("rewrote preamble",
		zap.String("path", res.Path),
		zap.Int("sections", res.Index.Len()),
		zap.Int("bytes", len(res.After)))
	return res, nil
}

func (s *Synchronizer) indexStage(snap *storage.Snapshot) (*extractor.Index, error) {
	idx, err := s.indexer.IndexSource(snap.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", snap.Path, err)
	}
	s.logger.Debug("indexed sections",
		zap.String("path", snap.Path),
		zap.Strings("sections", idx.Names()))
	return idx, nil
}

// suffixStage returns the content from the include guard onward; anything
// before it is a previous preamble and gets replaced.
func (s *Synchronizer) suffixStage(snap *storage.Snapshot) (string, error) {
	pos, err := s.locator.Locate(snap.Content)
	if err != nil {
		return "", fmt.Errorf("%s: %w", snap.Path, err)
	}
	s.logger.Debug("located include guard", zap.String("path", snap.Path), zap.Int("offset", pos))
	return string(snap.Content[pos:]), nil
}

// settleStage re-indexes the rendered output until the offsets it lists
// match the output itself.
func (s *Synchronizer) settleStage(idx *extractor.Index, suffix, out string) (*extractor.Index, string, int, error) {
	for pass := 1; pass <= maxSettlePasses; pass++ {
		next, err := s.indexer.IndexSource([]byte(out))
		if err != nil {
			return nil, "", pass, fmt.Errorf("re-indexing rendered output: %w", err)
		}
		if next.Equal(idx) {
			return idx, out, pass, nil
		}
		idx = next
		out = s.renderer.Render(idx, suffix)
	}
	return nil, "", maxSettlePasses, fmt.Errorf("offsets did not settle after %d passes", maxSettlePasses)
}

func (s *Synchronizer) cleanStage(ctx context.Context, path string) error {
	lines, err := git.UncommittedLines(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to check git status of %s: %w", path, err)
	}
	if lines != nil {
		return fmt.Errorf("%w: %s (changed lines %v)", storage.ErrDirty, path, lines)
	}
	return nil
}
