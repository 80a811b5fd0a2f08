package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daviddao/permmatch/internal/config"
	"github.com/daviddao/permmatch/internal/db"
	"github.com/daviddao/permmatch/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	dbPath      string
	configPath  string
	jsonOutput  bool
	quietFlag   bool
	verboseFlag bool

	settings *config.Config
	logger   *zap.Logger
	store    *db.DB
)

var rootCmd = &cobra.Command{
	Use:           "pm",
	Short:         "pm - match roster entries to permission request e-mails",
	Long:          "Permmatch: find the approval e-mail behind every roster entry and classify it as ADD, REMOVE or MODIFY.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version", "quickstart":
			return nil
		case "init":
			// Both `pm init` and `pm config init` must work with a broken config.
			return nil
		}

		if err := loadSettings(); err != nil {
			return err
		}

		switch cmd.Name() {
		case "history", "show", "escalate":
		default:
			return nil
		}

		path := dbPath
		if path == "" {
			path = db.DiscoverDB()
		}
		if path == "" {
			return fmt.Errorf("no permmatch database found, run 'pm init' first")
		}

		var err error
		store, err = db.Open(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
		_ = logger.Sync()
	},
}

// loadSettings reads the config file (explicit or discovered) and builds the
// logger from it.
func loadSettings() error {
	path := configPath
	if path == "" {
		path = config.Discover()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.WithVerbosity(cfg.Log, verboseFlag, quietFlag))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	settings = cfg
	logger = log
	if path != "" {
		logger.Debug("config loaded", zap.String("path", path))
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pm version %s\n", Version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .permmatch/ in the project root",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := db.FindProjectRoot()
		if root == "" {
			return fmt.Errorf("could not find project root (no .git directory found)")
		}

		path := filepath.Join(root, db.Dir, db.File)
		s, err := db.Open(path)
		if err != nil {
			return err
		}
		s.Close()

		cfgPath := filepath.Join(root, db.Dir, config.FileName)
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			if err := config.WriteDefault(cfgPath, false); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
		}

		ensureGitignore(root)

		if !quietFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized permmatch at %s\n", filepath.Join(root, db.Dir))
		}
		return nil
	},
}

// ensureGitignore adds .permmatch/ to .gitignore if not already present.
func ensureGitignore(root string) {
	gitignorePath := filepath.Join(root, ".gitignore")
	entry := db.Dir + "/"

	content, err := os.ReadFile(gitignorePath)
	if err == nil {
		scanner := bufio.NewScanner(strings.NewReader(string(content)))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == entry || line == db.Dir {
				return
			}
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return // silently skip if can't write
	}
	defer f.Close()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		f.WriteString("\n")
	}
	fmt.Fprintf(f, "\n# Permmatch run history (local)\n%s\n", entry)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func init() {
	logger = zap.NewNop()

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .permmatch/history.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: auto-discover .permmatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
