package recovery

import (
	"context"
	"errors"
	"fmt"
	"mvnsrc-cli/internal/archive"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request is one class recovery. ClassBytes is filled once the compiled entry
// has been read.
type Request struct {
	Artifact   domain.Artifact
	ClassName  string
	ClassBytes []byte
}

// Result is a strategy's output before the pipeline frames it.
type Result struct {
	Content      string
	Tool         string
	Archive      string
	BytecodeOnly bool
}

// Strategy is one way of turning a class into text.
type Strategy interface {
	Name() domain.Provenance
	// reports whether the strategy works from the compiled class entry
	NeedsClassFile() bool
	Recover(ctx context.Context, req *Request) (*Result, error)
}

var errNoSourceArchive = errors.New("artifact has no source archive")

// SourceArchiveStrategy returns the original source file from the sources archive.
type SourceArchiveStrategy struct {
	inspector domain.ArchiveInspector
}

func NewSourceArchiveStrategy(inspector domain.ArchiveInspector) *SourceArchiveStrategy {
	return &SourceArchiveStrategy{inspector: inspector}
}

func (s *SourceArchiveStrategy) Name() domain.Provenance { return domain.ProvenanceSourceArchive }

func (s *SourceArchiveStrategy) NeedsClassFile() bool { return false }

func (s *SourceArchiveStrategy) Recover(_ context.Context, req *Request) (*Result, error) {
	if !req.Artifact.HasSourceArchive {
		return nil, errNoSourceArchive
	}
	src := req.Artifact.SourceArchivePath

	exact := coordinate.SourceEntryPath(req.ClassName)
	data, err := s.inspector.ExtractEntry(src, exact)
	if err == nil {
		return &Result{Content: string(data), Tool: "sources", Archive: src}, nil
	}
	if !archive.IsEntryNotFound(err) {
		return nil, err
	}

	entry, err := s.findByName(src, req.ClassName)
	if err != nil {
		return nil, err
	}
	data, err = s.inspector.ExtractEntry(src, entry)
	if err != nil {
		return nil, err
	}
	return &Result{Content: string(data), Tool: "sources", Archive: src}, nil
}

// findByName matches source entries by bare file name, ignoring the package path.
func (s *SourceArchiveStrategy) findByName(src, className string) (string, error) {
	_, simple := coordinate.SplitClassName(coordinate.TopLevelName(className))
	for entry, err := range s.inspector.ListEntries(src, coordinate.SourceSuffix) {
		if err != nil {
			return "", err
		}
		bare := strings.TrimSuffix(path.Base(entry), coordinate.SourceSuffix)
		if bare == simple || (className != "" && strings.HasSuffix(bare, className)) {
			return entry, nil
		}
	}
	return "", fmt.Errorf("%s: %w", coordinate.SourceEntryPath(className), domain.ErrClassNotFound)
}

// publicTypePattern is a textual check for a public class or interface declaration.
var publicTypePattern = regexp.MustCompile(`\bpublic\s+(?:(?:abstract|final|static|sealed|non-sealed|strictfp)\s+)*(?:class|interface)\b`)

// HasPublicType reports whether text declares a public class or interface.
func HasPublicType(text string) bool {
	return publicTypePattern.MatchString(text)
}

// DecompilerStrategy runs a native decompiler over the archive, scoped to one class.
type DecompilerStrategy struct {
	runner        CommandRunner
	java          string
	decompilerJar string
	scratchRoot   string
	logger        *zap.Logger
}

func NewDecompilerStrategy(runner CommandRunner, java, decompilerJar, scratchRoot string, logger *zap.Logger) *DecompilerStrategy {
	if scratchRoot == "" {
		scratchRoot = os.TempDir()
	}
	return &DecompilerStrategy{
		runner:        runner,
		java:          java,
		decompilerJar: decompilerJar,
		scratchRoot:   scratchRoot,
		logger:        logger,
	}
}

func (s *DecompilerStrategy) Name() domain.Provenance { return domain.ProvenanceNativeDecompiler }

func (s *DecompilerStrategy) NeedsClassFile() bool { return true }

func (s *DecompilerStrategy) Recover(ctx context.Context, req *Request) (*Result, error) {
	if s.decompilerJar == "" {
		return nil, fmt.Errorf("no decompiler configured: %w", domain.ErrExternalToolUnavailable)
	}
	if _, err := os.Stat(s.decompilerJar); err != nil {
		return nil, fmt.Errorf("decompiler %s: %w", s.decompilerJar, domain.ErrExternalToolUnavailable)
	}

	scratch := filepath.Join(s.scratchRoot, "mvnsrc-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			s.logger.Warn("Failed to remove scratch directory", zap.String("dir", scratch), zap.Error(err))
		}
	}()

	classFile := filepath.Join(scratch, filepath.FromSlash(coordinate.ClassEntryPath(req.ClassName)))
	if err := os.MkdirAll(filepath.Dir(classFile), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	if err := os.WriteFile(classFile, req.ClassBytes, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write class to scratch: %w", err)
	}

	outputDir := filepath.Join(scratch, "out")
	cmd := DecompilerCommand{
		Java:          s.java,
		DecompilerJar: s.decompilerJar,
		Archive:       req.Artifact.MainArchivePath,
		OutputDir:     outputDir,
		ClassName:     req.ClassName,
	}.Build()

	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("decompiler exited with code %d: %s: %w",
			res.ExitCode, strings.TrimSpace(res.Stderr), domain.ErrExternalToolFailed)
	}

	text := res.Stdout
	pkg, simple := coordinate.SplitClassName(req.ClassName)
	generated := filepath.Join(outputDir, filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/")), simple+coordinate.SourceSuffix)
	if data, err := os.ReadFile(generated); err == nil {
		text = string(data)
	}

	if !HasPublicType(text) {
		return nil, fmt.Errorf("decompiler output has no public type declaration: %w", domain.ErrExternalToolFailed)
	}
	return &Result{
		Content: text,
		Tool:    strings.TrimSuffix(filepath.Base(s.decompilerJar), filepath.Ext(s.decompilerJar)),
		Archive: req.Artifact.MainArchivePath,
	}, nil
}

// DisassemblerStrategy runs the class-file disassembler with each flag set and
// keeps the longest successful output.
type DisassemblerStrategy struct {
	runner       CommandRunner
	disassembler string
	flagSets     [][]string
	logger       *zap.Logger
}

func NewDisassemblerStrategy(runner CommandRunner, disassembler string, logger *zap.Logger) *DisassemblerStrategy {
	return &DisassemblerStrategy{
		runner:       runner,
		disassembler: disassembler,
		flagSets:     DisassemblerFlagSets,
		logger:       logger,
	}
}

func (s *DisassemblerStrategy) Name() domain.Provenance { return domain.ProvenanceDisassembler }

func (s *DisassemblerStrategy) NeedsClassFile() bool { return true }

func (s *DisassemblerStrategy) Recover(ctx context.Context, req *Request) (*Result, error) {
	if s.disassembler == "" {
		return nil, fmt.Errorf("no disassembler configured: %w", domain.ErrExternalToolUnavailable)
	}

	best := ""
	lastErr := fmt.Errorf("disassembler produced no output: %w", domain.ErrExternalToolFailed)
	for _, flags := range s.flagSets {
		cmd := DisassemblerCommand{
			Disassembler: s.disassembler,
			Archive:      req.Artifact.MainArchivePath,
			ClassName:    req.ClassName,
			Flags:        flags,
		}.Build()

		res, err := s.runner.Run(ctx, cmd)
		if err != nil {
			lastErr = err
			if errors.Is(err, domain.ErrExternalToolUnavailable) {
				break
			}
			continue
		}
		if res.ExitCode != 0 {
			s.logger.Debug("Disassembler run failed",
				zap.Strings("flags", flags),
				zap.Int("exit_code", res.ExitCode))
			continue
		}
		if len(res.Stdout) > len(best) {
			best = res.Stdout
		}
	}

	if best == "" {
		return nil, lastErr
	}
	return &Result{
		Content:      best,
		Tool:         filepath.Base(s.disassembler),
		Archive:      req.Artifact.MainArchivePath,
		BytecodeOnly: true,
	}, nil
}

// StubStrategy describes the class from its header alone. It never fails.
type StubStrategy struct {
	inspector domain.ArchiveInspector
}

func NewStubStrategy(inspector domain.ArchiveInspector) *StubStrategy {
	return &StubStrategy{inspector: inspector}
}

func (s *StubStrategy) Name() domain.Provenance { return domain.ProvenanceSyntheticStub }

func (s *StubStrategy) NeedsClassFile() bool { return false }

func (s *StubStrategy) Recover(_ context.Context, req *Request) (*Result, error) {
	archivePath := req.Artifact.MainArchivePath
	result := &Result{Tool: "class-header", Archive: archivePath, BytecodeOnly: true}

	data := req.ClassBytes
	if data == nil {
		var err error
		data, err = s.inspector.ExtractEntry(archivePath, coordinate.ClassEntryPath(req.ClassName))
		if err != nil {
			result.Content = failureBlock(req.ClassName, archivePath, err)
			return result, nil
		}
	}

	header, err := ParseClassHeader(data)
	if err != nil {
		result.Content = failureBlock(req.ClassName, archivePath, err)
		return result, nil
	}

	_, simple := coordinate.SplitClassName(req.ClassName)
	var sb strings.Builder
	fmt.Fprintf(&sb, "// Class summary: %s\n", req.ClassName)
	fmt.Fprintf(&sb, "// Archive: %s\n", filepath.Base(archivePath))
	fmt.Fprintf(&sb, "// Compiled for: %s (major: %d, minor: %d)\n", header.PlatformLabel(), header.Major, header.Minor)
	fmt.Fprintf(&sb, "// Magic: 0x%x\n", header.Magic)
	fmt.Fprintf(&sb, "// Constant pool count: %d\n", header.ConstantPoolCount)
	fmt.Fprintf(&sb, "// Class file size: %d bytes\n", header.Size)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "public class %s {\n", simple)
	sb.WriteString("    // No decompiler or disassembler output was available for this class.\n")
	sb.WriteString("}\n")
	result.Content = sb.String()
	return result, nil
}

func failureBlock(className, archivePath string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// Recovery failed: %s\n", className)
	fmt.Fprintf(&sb, "// Archive: %s\n", filepath.Base(archivePath))
	fmt.Fprintf(&sb, "// Error: %v\n", err)
	return sb.String()
}
