// Package recovery turns a class inside an archive into readable text by
// trying, in order, the sources archive, a native decompiler, a class-file
// disassembler and finally a synthetic summary built from the class header.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrExhausted means every strategy failed. The default strategy list ends with
// the synthetic stub, which never fails.
var ErrExhausted = errors.New("no recovery strategy produced output")

// Tools locates the external programs used by the compiled-class strategies.
type Tools struct {
	Java          string
	DecompilerJar string
	Disassembler  string
	ScratchDir    string
}

// Pipeline folds over an ordered strategy list and stops at the first success.
type Pipeline struct {
	strategies []Strategy
	inspector  domain.ArchiveInspector
	project    *domain.ProjectInfo
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProjectInfo adds the declared project Java version to result headers.
func WithProjectInfo(info *domain.ProjectInfo) Option {
	return func(p *Pipeline) {
		p.project = info
	}
}

// WithStrategies replaces the default strategy list.
func WithStrategies(strategies ...Strategy) Option {
	return func(p *Pipeline) {
		p.strategies = strategies
	}
}

// NewPipeline creates the standard four-step pipeline.
func NewPipeline(inspector domain.ArchiveInspector, runner CommandRunner, tools Tools, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		strategies: []Strategy{
			NewSourceArchiveStrategy(inspector),
			NewDecompilerStrategy(runner, tools.Java, tools.DecompilerJar, tools.ScratchDir, logger),
			NewDisassemblerStrategy(runner, tools.Disassembler, logger),
			NewStubStrategy(inspector),
		},
		inspector: inspector,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strategies returns the strategy names in the order they are tried.
func (p *Pipeline) Strategies() []domain.Provenance {
	names := make([]domain.Provenance, 0, len(p.strategies))
	for _, s := range p.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Recover returns the first strategy output for className. Before the first
// strategy that needs the compiled class, the main archive must open and hold
// the class; otherwise ErrArchiveUnreadable or ErrClassNotFound is returned.
func (p *Pipeline) Recover(ctx context.Context, artifact domain.Artifact, className string) (*domain.SourceResult, error) {
	if strings.TrimSpace(className) == "" {
		return nil, fmt.Errorf("empty class name: %w", domain.ErrClassNotFound)
	}

	req := &Request{Artifact: artifact, ClassName: className}
	var attempts []domain.StrategyAttempt

	for _, strategy := range p.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strategy.NeedsClassFile() && req.ClassBytes == nil {
			data, err := p.inspector.ExtractEntry(artifact.MainArchivePath, coordinate.ClassEntryPath(className))
			if err != nil {
				return nil, fmt.Errorf("failed to read class %s: %w", className, err)
			}
			req.ClassBytes = data
		}

		res, err := strategy.Recover(ctx, req)
		if err != nil {
			p.logger.Debug("Recovery strategy failed",
				zap.String("strategy", string(strategy.Name())),
				zap.String("class", className),
				zap.Error(err))
			attempts = append(attempts, domain.StrategyAttempt{Strategy: strategy.Name(), Reason: err.Error()})
			continue
		}

		p.logger.Debug("Recovered class",
			zap.String("strategy", string(strategy.Name())),
			zap.String("class", className))
		return p.frame(req, strategy.Name(), res, attempts), nil
	}

	return nil, fmt.Errorf("failed to recover %s: %w", className, ErrExhausted)
}

func (p *Pipeline) frame(req *Request, provenance domain.Provenance, res *Result, attempts []domain.StrategyAttempt) *domain.SourceResult {
	result := &domain.SourceResult{
		ClassName:    req.ClassName,
		Artifact:     req.Artifact,
		Provenance:   provenance,
		Tool:         res.Tool,
		BytecodeOnly: res.BytecodeOnly,
		Content:      res.Content,
		Attempts:     attempts,
	}
	if provenance != domain.ProvenanceSyntheticStub {
		result.Header = p.header(req.ClassName, res, provenance)
	}
	return result
}

func (p *Pipeline) header(className string, res *Result, provenance domain.Provenance) string {
	javaVersion := p.project.DeclaredJavaVersion()
	if javaVersion == "" {
		javaVersion = "unknown"
	}

	var framing string
	switch {
	case provenance == domain.ProvenanceSourceArchive:
		framing = "original source from the sources archive"
	case res.BytecodeOnly:
		framing = "bytecode listing, not source"
	default:
		framing = "decompiled source, may differ from the original"
	}

	lines := []string{
		"// Class: " + className,
		"// Archive: " + filepath.Base(res.Archive),
		"// Project Java version: " + javaVersion,
		fmt.Sprintf("// Tool: %s (%s)", res.Tool, framing),
	}
	return strings.Join(lines, "\n")
}
