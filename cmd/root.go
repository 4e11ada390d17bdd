// Package cmd provides the gitglance command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/gitglance/internal/config"
	"github.com/zjrosen/gitglance/internal/controller"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/log"
	"github.com/zjrosen/gitglance/internal/query"
	"github.com/zjrosen/gitglance/internal/ui/app"
	"github.com/zjrosen/gitglance/internal/ui/norepo"
	"github.com/zjrosen/gitglance/internal/watcher"
)

const (
	localConfigName = ".gitglance.yaml"
	defaultLogFile  = "gitglance-debug.log"
)

var (
	version = "dev"

	cfgFile  string
	repoFlag string
	debug    bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gitglance",
	Short: "Browse a repository's commit history in the terminal",
	Long: `gitglance shows the commit log of a git repository next to the
details of the selected commit. Commands run against a host, either
in-process or a 'gitglance serve' instance reached over gRPC.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runApp,
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = log.Close() }()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.gitglance.yaml or ~/.config/gitglance/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "r", "",
		"repository path (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write debug logs to log.file (default: "+defaultLogFile+")")
}

// newViper returns a viper instance pointed at the config file to use.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GITGLANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v
	}
	if _, err := os.Stat(localConfigName); err == nil {
		v.SetConfigFile(localConfigName)
		return v
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path, err := config.DefaultConfigPath(); err == nil {
		v.AddConfigPath(filepath.Dir(path))
	}
	return v
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	v := newViper()
	if repoFlag != "" {
		v.Set("repo_path", repoFlag)
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	if debug || cfg.Log.File != "" {
		path := cfg.Log.File
		if path == "" {
			path = defaultLogFile
		}
		level := log.ParseLevel(cfg.Log.Level)
		if debug {
			level = slog.LevelDebug
		}
		if _, err := log.InitFile(path, level); err != nil {
			return fmt.Errorf("initializing log: %w", err)
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug(log.CatConfig, "Loaded config", "file", used, "command", cmd.Name())
	}
	return nil
}

// repoPath resolves the configured repository, defaulting to the working directory.
func repoPath(c config.Config) string {
	if c.RepoPath != "" {
		return c.RepoPath
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func runApp(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Spans written to the terminal would corrupt the UI.
	s, err := openSession(ctx, cfg, io.Discard)
	if errors.Is(err, domain.ErrNotGitRepo) {
		return runNoRepo(repoPath(cfg))
	}
	if err != nil {
		return err
	}
	defer s.Close(context.Background())

	qc := query.NewClient(query.Options{GCTime: cfg.Cache.GCTime})
	defer qc.Close()
	ctrl := controller.New(s.invoker, qc)
	defer ctrl.Close()

	if cfg.AutoRefresh && s.gitDir != "" {
		w, err := watcher.New(s.gitDir, cfg.AutoRefreshDebounce, ctrl.RefreshCommits)
		if err != nil {
			log.Warn(log.CatWatch, "Auto refresh disabled", "gitDir", s.gitDir, "error", err)
		} else {
			defer func() { _ = w.Close() }()
		}
	}

	model := app.New(ctx, ctrl, s.location)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

func runNoRepo(path string) error {
	log.Info(log.CatGit, "No repository found", "path", path)
	p := tea.NewProgram(norepo.New(path), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
