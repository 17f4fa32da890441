// Command commitflow stages, partitions and commits changes with
// AI-generated commit messages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	commitflow "github.com/randalmurphal/commitflow"
	"github.com/randalmurphal/commitflow/config"
	"github.com/randalmurphal/commitflow/git"
	"github.com/randalmurphal/commitflow/notify"
)

var version = "dev"

var (
	flagGlobal     bool
	flagDirectory  bool
	flagRelated    bool
	flagFiles      []string
	flagFilesAsOne bool
	flagStageAll   bool
	flagCount      int
	flagStyle      string
	flagLocale     string
	flagModel      string
	flagExclude    []string
	flagPush       bool
	flagChangelog  bool
	flagPR         bool
	flagPRBase     string
	flagVerbose    bool
)

func main() {
	root := newRootCmd()
	root.AddCommand(newConfigCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		if errors.Is(err, commitflow.ErrRunCancelled) {
			// Backing out is not a failure.
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commitflow",
		Short: "Commit staged changes with AI-generated messages",
		Long: `commitflow inspects your staged changes, splits them into logical
groups, generates commit message candidates for each group, and commits
group by group. Grouping strategies:

  --global      one commit for everything
  --dir         one commit per top-level directory
  --related     let the AI group related changes
  --files PATH  commit only the named files or directories

With none of these flags the strategy comes from configuration, or an
interactive prompt when more than one directory changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCommit,
	}

	flags := cmd.Flags()
	flags.BoolVarP(&flagGlobal, "global", "g", false, "one commit for all changes")
	flags.BoolVarP(&flagDirectory, "dir", "d", false, "one commit per top-level directory")
	flags.BoolVarP(&flagRelated, "related", "r", false, "group related changes with AI")
	flags.StringSliceVarP(&flagFiles, "files", "f", nil, "commit only these files or directories")
	flags.BoolVar(&flagFilesAsOne, "files-global", false, "combine --files targets into one commit")
	flags.BoolVarP(&flagStageAll, "stage-all", "a", false, "stage before committing: everything, or just the --files targets")
	flags.IntVarP(&flagCount, "count", "n", 0, "message candidates per group")
	flags.StringVar(&flagStyle, "style", "", "message style: general or conventional")
	flags.StringVar(&flagLocale, "locale", "", "language for generated messages")
	flags.StringVarP(&flagModel, "model", "m", "", "model override for the AI provider")
	flags.StringSliceVarP(&flagExclude, "exclude", "x", nil, "pathspec patterns to leave out")
	flags.BoolVarP(&flagPush, "push", "p", false, "push after committing")
	flags.BoolVar(&flagChangelog, "changelog", false, "write a changelog entry for the run")
	flags.BoolVar(&flagPR, "pr", false, "open a pull request after pushing (implies --push)")
	flags.StringVar(&flagPRBase, "pr-base", "", "target branch for the pull request")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	return cmd
}

func runCommit(cmd *cobra.Command, args []string) error {
	setupLogging()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	gitCtx, err := git.NewContext(cwd)
	if err != nil {
		return err
	}

	resolver := config.NewResolver(gitCtx.RepoPath())
	cfg := resolver.ResolveWithFlags(flagOverrides())

	provider, err := commitflow.NewClaudeCLI(commitflow.ClaudeConfig{
		Model:      cfg.Get(config.KeyModel),
		ProjectDir: gitCtx.RepoPath(),
	})
	if err != nil {
		return err
	}

	ui := newTerminalUI(os.Stdin, os.Stdout, cfg.Bool(config.KeyNoColor))

	runner := commitflow.NewRunner(gitCtx, provider, ui,
		commitflow.WithNotifier(buildNotifier()),
	)

	opts := commitflow.Options{
		Policy:       resolvePolicyFlag(cfg),
		Targets:      flagFiles,
		StageAll:     flagStageAll,
		FilesMode:    filesMode(),
		Excludes:     excludes(cfg),
		Count:        cfg.Int(config.KeyCount, 3),
		Style:        commitflow.Style(cfg.Get(config.KeyStyle)),
		Locale:       cfg.Get(config.KeyLocale),
		Push:         flagPR || cfg.Bool(config.KeyPush),
		Remote:       cfg.Get(config.KeyRemote),
		Changelog:    flagChangelog || cfg.Bool(config.KeyChangelog),
		ChangelogDir: cfg.Get(config.KeyChangelogDir),
		CreatePR:     flagPR || cfg.Bool(config.KeyCreatePR),
		PRBase:       flagPRBase,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, commitflow.ErrEmptyChangeSet) {
			return errors.New("no staged changes; stage files with 'git add' first")
		}
		return err
	}

	ui.printReport(report)
	if report.Failed() {
		return errors.New("some groups failed to commit")
	}
	return nil
}

// flagOverrides maps set flags onto config keys.
func flagOverrides() map[string]string {
	overrides := map[string]string{
		config.KeyModel:  flagModel,
		config.KeyStyle:  flagStyle,
		config.KeyLocale: flagLocale,
	}
	if flagCount > 0 {
		overrides[config.KeyCount] = fmt.Sprintf("%d", flagCount)
	}
	if flagPush {
		overrides[config.KeyPush] = "true"
	}
	return overrides
}

// resolvePolicyFlag applies the flag > config precedence for the strategy.
// An empty result lets the run decide interactively.
func resolvePolicyFlag(cfg *config.Resolved) commitflow.Policy {
	switch {
	case len(flagFiles) > 0:
		return commitflow.PolicyFiles
	case flagGlobal:
		return commitflow.PolicyGlobal
	case flagDirectory:
		return commitflow.PolicyDirectory
	case flagRelated:
		return commitflow.PolicyRelated
	}

	switch mode := cfg.Get(config.KeyMode); commitflow.Policy(mode) {
	case commitflow.PolicyGlobal, commitflow.PolicyDirectory, commitflow.PolicyRelated:
		return commitflow.Policy(mode)
	}
	return ""
}

func filesMode() commitflow.FilesMode {
	if flagFilesAsOne {
		return commitflow.FilesGlobal
	}
	return commitflow.FilesPerPath
}

func excludes(cfg *config.Resolved) []string {
	return append(cfg.List(config.KeyExclude), flagExclude...)
}

// buildNotifier wires notification sinks. Slack is enabled by setting
// COMMITFLOW_SLACK_WEBHOOK.
func buildNotifier() notify.Notifier {
	notifiers := []notify.Notifier{}
	if url := os.Getenv("COMMITFLOW_SLACK_WEBHOOK"); url != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(url))
	}
	if url := os.Getenv("COMMITFLOW_WEBHOOK_URL"); url != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(url, nil))
	}
	if len(notifiers) == 0 {
		return notify.NopNotifier{}
	}
	return notify.NewMultiNotifier(notifiers...)
}

func setupLogging() {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage commitflow configuration",
	}

	var global bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if global {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, ".config", config.GlobalConfigDir, config.GlobalConfigFile)
			} else {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				if gitCtx, err := git.NewContext(cwd); err == nil {
					cwd = gitCtx.RepoPath()
				}
				path = filepath.Join(cwd, config.LocalConfigName)
			}

			if err := config.WriteTemplate(path); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&global, "global", false, "write the global config instead of the repo's")

	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the commitflow version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("commitflow", version)
		},
	}
}
