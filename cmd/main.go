package main

import (
	"context"
	"errors"
	"fmt"
	"mvnsrc-cli/internal/archive"
	"mvnsrc-cli/internal/cache"
	"mvnsrc-cli/internal/classifier"
	"mvnsrc-cli/internal/config"
	"mvnsrc-cli/internal/domain"
	"mvnsrc-cli/internal/generator"
	"mvnsrc-cli/internal/logger"
	"mvnsrc-cli/internal/parser"
	"mvnsrc-cli/internal/recovery"
	"mvnsrc-cli/internal/scanner"
	"mvnsrc-cli/internal/storage"
	"mvnsrc-cli/internal/usecases"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cliOptions holds the global flags shared by every command
type cliOptions struct {
	configFile string
	format     string
	debug      bool
	timeout    int
}

// app is everything a command needs once configuration is resolved
type app struct {
	cfg      *config.Config
	service  *usecases.Service
	renderer *generator.Renderer
	logger   *zap.Logger
	closers  []func() error
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
}

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "mvnsrc-cli",
		Short: "Maven source CLI - Browse a local Maven repository and recover class sources",
		Long: `A command-line tool that indexes a local Maven-layout repository and recovers
readable source for any class inside its archives. Sources archives are used
when present; otherwise the class is decompiled, disassembled, or summarized
from its class-file header.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "Output format: text, json, yaml or csv (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging with verbose output")
	rootCmd.PersistentFlags().IntVarP(&opts.timeout, "timeout", "", 0,
		"External tool timeout in seconds (overrides config, 0 = use config default)")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "List every artifact in the local repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			internalOnly, _ := cmd.Flags().GetBool("internal")
			return run(cmd, opts, true, func(ctx context.Context, a *app) error {
				artifacts, err := a.service.ScanRepository()
				if err != nil {
					return err
				}
				if internalOnly {
					artifacts = filterInternal(artifacts)
				}
				return a.renderer.RenderArtifacts(artifacts)
			})
		},
	}
	scanCmd.Flags().Bool("internal", false, "Only list artifacts of internal groups")

	treeCmd := &cobra.Command{
		Use:   "tree [groupId]",
		Short: "Show the group/artifact/version tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, a *app) error {
				if len(args) == 0 {
					tree, err := a.service.RepositoryTree()
					if err != nil {
						return err
					}
					return a.renderer.RenderTree(tree)
				}
				group, ok, err := a.service.GroupTree(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("group %s not found in %s", args[0], a.service.Root())
				}
				return a.renderer.RenderGroup(group)
			})
		},
	}

	depsCmd := &cobra.Command{
		Use:   "deps <keyword>",
		Short: "Search dependencies by group or artifact id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true, func(ctx context.Context, a *app) error {
				matches, err := a.service.SearchDependencies(args[0])
				if err != nil {
					return err
				}
				return a.renderer.RenderMatches(matches)
			})
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <className>",
		Short: "Search classes by simple name across the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			latest, _ := cmd.Flags().GetBool("latest")
			return run(cmd, opts, true, func(ctx context.Context, a *app) error {
				var results []domain.ClassSearchResult
				var err error
				if latest {
					results, err = a.service.SearchClassLatest(ctx, args[0])
				} else {
					results, err = a.service.SearchClass(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return a.renderer.RenderClassResults(results)
			})
		},
	}
	searchCmd.Flags().Bool("latest", false, "Only search the latest version of each artifact")

	classesCmd := &cobra.Command{
		Use:   "classes <groupId:artifactId:version | groupId artifactId version>",
		Short: "List the classes of one artifact",
		Args:  coordinateArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, _, _ := parseCoordinate(args)
			return run(cmd, opts, true, func(ctx context.Context, a *app) error {
				classes, err := a.service.ListClasses(ctx, coord.GroupID, coord.ArtifactID, coord.Version)
				if err != nil {
					return err
				}
				return a.renderer.RenderClasses(classes)
			})
		},
	}

	structureCmd := &cobra.Command{
		Use:   "structure <groupId:artifactId:version | groupId artifactId version>",
		Short: "Show archives, packages and classes of one artifact",
		Args:  coordinateArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, _, _ := parseCoordinate(args)
			return run(cmd, opts, true, func(ctx context.Context, a *app) error {
				st, err := a.service.GetDependencyStructure(ctx, coord.GroupID, coord.ArtifactID, coord.Version)
				if err != nil {
					return err
				}
				return a.renderer.RenderStructure(st)
			})
		},
	}

	sourceCmd := &cobra.Command{
		Use:   "source <groupId:artifactId:version | groupId artifactId version> <className>",
		Short: "Print the source of a class, decompiling when no sources archive exists",
		Args:  coordinateArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, rest, _ := parseCoordinate(args)
			return run(cmd, opts, true, func(ctx context.Context, a *app) error {
				result, err := a.service.GetClassSource(ctx, coord.GroupID, coord.ArtifactID, coord.Version, rest[0])
				if err != nil {
					return err
				}
				return a.renderer.RenderSource(result)
			})
		},
	}

	classifiersCmd := &cobra.Command{
		Use:   "classifiers <groupId:artifactId:version | groupId artifactId version>",
		Short: "List the archive classifiers present for one artifact",
		Args:  coordinateArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, _, _ := parseCoordinate(args)
			return run(cmd, opts, false, func(ctx context.Context, a *app) error {
				classifiers, err := a.service.Classifiers(coord.GroupID, coord.ArtifactID, coord.Version)
				if err != nil {
					return err
				}
				return a.renderer.RenderClassifiers(classifiers)
			})
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved repository configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, a *app) error {
				return a.renderer.RenderConfig(a.service.Config())
			})
		},
	}

	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Check the dependencies declared by the project descriptor against the local repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, a *app) error {
				info, statuses, err := a.service.ProjectDependencies(ctx)
				if err != nil {
					return err
				}
				return a.renderer.RenderProjectDependencies(info, statuses)
			})
		},
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached dependency structures",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached and persisted structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false, func(ctx context.Context, a *app) error {
				if err := a.service.ClearCaches(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
				return nil
			})
		},
	})

	rootCmd.AddCommand(scanCmd, treeCmd, depsCmd, searchCmd, classesCmd, structureCmd,
		sourceCmd, classifiersCmd, configCmd, projectCmd, cacheCmd)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run builds the application from configuration, optionally indexes the
// repository, then hands over to fn
func run(cmd *cobra.Command, opts *cliOptions, index bool, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if index {
		if err := a.service.Initialize(ctx); err != nil {
			if errors.Is(err, domain.ErrConfigurationMissing) {
				return fmt.Errorf("%w (set MAVEN_REPOSITORY or repository.local)", err)
			}
			return fmt.Errorf("failed to index repository: %w", err)
		}
	}

	return fn(ctx, a)
}

func buildApp(ctx context.Context, cmd *cobra.Command, opts *cliOptions) (*app, error) {
	flags := cmd.Flags()
	cfg, err := config.LoadConfig(opts.configFile, config.WithFlags(map[string]*pflag.Flag{
		"output.format":         flags.Lookup("format"),
		"tools.timeout_seconds": flags.Lookup("timeout"),
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Handle debug flag manually since it's a boolean
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		level = zapcore.DebugLevel
	}
	logger.SetLevel(level)
	l := logger.GetLogger()

	settings := config.LoadSettings(cfg.Repository.SettingsFiles, l)
	repoConfig := config.ResolveRepositoryConfig(cfg, settings)

	comparator, err := scanner.NewComparator(cfg.Index.VersionOrder)
	if err != nil {
		return nil, err
	}
	if err := scanner.ValidateExcludes(cfg.Index.Exclude); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: l}

	structures, err := cache.NewLRU[string, *domain.DependencyStructure](cfg.Cache.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create structure cache: %w", err)
	}

	var store domain.StructureStore = storage.NullStore{}
	if cfg.Cache.Persistent {
		db, err := storage.Open(structureStorePath(cfg.Cache.Path), l)
		if err != nil {
			l.Warn("Persistent structure cache unavailable, continuing in memory", zap.Error(err))
		} else {
			a.closers = append(a.closers, db.Close)
			store = storage.NewStructureStore(db, l)
		}
	}

	projectParser := parser.NewParser()
	var pipelineOpts []recovery.Option
	if info, err := projectParser.ParseProject(ctx, cfg.Project.POM); err != nil {
		l.Debug("No project descriptor, Java version unknown", zap.String("path", cfg.Project.POM), zap.Error(err))
	} else {
		pipelineOpts = append(pipelineOpts, recovery.WithProjectInfo(info))
	}

	timeout := time.Duration(cfg.Tools.TimeoutSeconds) * time.Second
	inspector := archive.NewInspector()
	pipeline := recovery.NewPipeline(inspector, recovery.NewExecRunner(timeout), recovery.Tools{
		Java:          cfg.Tools.Java,
		DecompilerJar: cfg.Tools.DecompilerJar,
		Disassembler:  cfg.Tools.Disassembler,
		ScratchDir:    cfg.Tools.ScratchDir,
	}, l, pipelineOpts...)

	a.service = usecases.NewService(
		repoConfig,
		scanner.NewScanner(l, scanner.WithComparator(comparator), scanner.WithExcludes(cfg.Index.Exclude)),
		inspector,
		pipeline,
		l,
		usecases.WithStructureCache(structures),
		usecases.WithStructureStore(store),
		usecases.WithClassifier(classifier.NewClassifier(cfg.Internal.Patterns)),
		usecases.WithProjectParser(projectParser, cfg.Project.POM),
	)

	a.renderer, err = generator.NewRenderer(cfg.Output.Format, cmd.OutOrStdout())
	if err != nil {
		a.Close()
		return nil, err
	}

	l.Debug("Configuration resolved",
		zap.String("local_repository", repoConfig.LocalRepository),
		zap.Int("remote_repositories", len(repoConfig.Repositories)),
		zap.String("version_order", comparator.Name()),
		zap.Bool("persistent_cache", cfg.Cache.Persistent))
	return a, nil
}

// structureStorePath defaults to the user cache directory
func structureStorePath(configured string) string {
	if configured != "" {
		return configured
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mvnsrc", "structures.db")
}

// parseCoordinate accepts "g:a:v" or "g a v" and returns the remaining arguments
func parseCoordinate(args []string) (domain.Coordinate, []string, error) {
	if len(args) > 0 && strings.Count(args[0], ":") == 2 {
		parts := strings.Split(args[0], ":")
		if parts[0] != "" && parts[1] != "" && parts[2] != "" {
			return domain.Coordinate{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}, args[1:], nil
		}
	}
	if len(args) >= 3 && !strings.Contains(args[0], ":") {
		return domain.Coordinate{GroupID: args[0], ArtifactID: args[1], Version: args[2]}, args[3:], nil
	}
	return domain.Coordinate{}, nil, errors.New("expected groupId:artifactId:version or groupId artifactId version")
}

// coordinateArgs validates a coordinate followed by exactly extra arguments
func coordinateArgs(extra int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		_, rest, err := parseCoordinate(args)
		if err != nil {
			return err
		}
		if len(rest) != extra {
			return fmt.Errorf("expected %d argument(s) after the coordinate, got %d", extra, len(rest))
		}
		return nil
	}
}

func filterInternal(artifacts []domain.Artifact) []domain.Artifact {
	filtered := make([]domain.Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		if artifact.IsInternal {
			filtered = append(filtered, artifact)
		}
	}
	return filtered
}
