package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/startracker/internal/analyze"
	"github.com/TobiSchelling/startracker/internal/config"
	"github.com/TobiSchelling/startracker/internal/export"
	"github.com/TobiSchelling/startracker/internal/history"
	"github.com/TobiSchelling/startracker/internal/llm"
	"github.com/TobiSchelling/startracker/internal/logger"
	"github.com/TobiSchelling/startracker/internal/pipeline"
	"github.com/TobiSchelling/startracker/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

var banner = strings.Repeat("=", 50)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "startracker",
	Short:   "Track the health of your GitHub stars",
	Long:    "startracker inventories your starred GitHub repositories, measures how stale they are, and writes a CSV export plus an LLM-generated risk report.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logger.Init(levelFor("info"), "text")
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Init(levelFor(cfg.Logging.Level), cfg.Logging.Format)
		if path != "" {
			logger.Debugf("Using config %s", path)
		}
		return nil
	},
}

func levelFor(configured string) string {
	if verbose {
		return "debug"
	}
	return configured
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("startracker", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/startracker/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set GITHUB_TOKEN, GITHUB_USERNAME and OPENAI_API_KEY in the environment or a .env file.")
		return nil
	},
}

// --- run command ---

var (
	runLimit   int
	skipReport bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, enrich and export starred repositories, then generate the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		db := openHistoryOrWarn()
		if db != nil {
			defer db.Close()
		}

		pipe, err := pipeline.NewFromConfig(cfg, db)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Println(banner)
		fmt.Println("GitHub Star Tracker")
		fmt.Println(banner)

		start := time.Now()
		result, err := pipe.Run(ctx, pipeline.Options{Limit: runLimit, SkipReport: skipReport})
		if result != nil {
			printSteps(result.Steps)
		}
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("run interrupted: %w", err)
		}
		if err != nil {
			return err
		}
		if result.Empty {
			fmt.Println("\nNo starred repositories found, nothing to do.")
			return nil
		}

		if result.Report != "" {
			fmt.Println("\n" + banner)
			fmt.Println("Analysis report:")
			fmt.Println(banner)
			fmt.Println(result.Report)
		}

		fmt.Println("\n" + banner)
		fmt.Printf("All done in %s\n", time.Since(start).Round(time.Second))
		fmt.Println(banner)
		fmt.Println("\nOutput files:")
		printPath("CSV", result.CSVPath)
		printPath("Language summary", result.SummaryPath)
		printPath("Workbook", result.XLSXPath)
		printPath("Report", result.ReportPath)
		printPath("HTML report", result.HTMLPath)
		fmt.Println(banner)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Only process the first N starred repositories")
	runCmd.Flags().BoolVar(&skipReport, "skip-report", false, "Export data without generating the LLM report")
}

func printSteps(steps []pipeline.StepResult) {
	for i, step := range steps {
		fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

func printPath(label, path string) {
	if path != "" {
		fmt.Printf("  %s: %s\n", label, path)
	}
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report <csv>",
	Short: "Regenerate the analysis report from a previously exported CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := export.ReadCSV(args[0])
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%s contains no rows", args[0])
		}

		l := cfg.LLM
		provider := llm.CreateProvider(l.Provider, l.Model, l.BaseURL, l.APIKey, l.OllamaURL)
		b := cfg.Report.Bands
		analyzer := analyze.NewAnalyzer(provider, analyze.Bands{Hot: b.Hot, Active: b.Active, Dormant: b.Dormant},
			cfg.Report.TopN, l.ReportTemperature, l.MaxTokens)

		report, err := analyzer.Analyze(cmd.Context(), rows)
		if err != nil {
			return err
		}

		ts := time.Now().Format(export.TimestampLayout)
		path, err := export.WriteReport(cfg.Output.ReportDir, report, ts)
		if err != nil {
			return err
		}
		if cfg.Output.HTML {
			if _, err := export.WriteReportHTML(cfg.Output.ReportDir, report, ts); err != nil {
				return err
			}
		}

		fmt.Println(report)
		fmt.Printf("\nReport written to %s\n", path)
		return nil
	},
}

// --- status command ---

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(statusLimit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Start one with: startracker run")
			return nil
		}

		fmt.Printf("History: %s\n\n", db.Path())
		for _, r := range runs {
			fmt.Printf("%s  %s  (%s)\n", r.StartedAt.Local().Format("2006-01-02 15:04"), r.Username, r.ID)
			fmt.Printf("  %d starred: %d active (%d hot), %d dormant, %d long-dormant, %d unknown\n",
				r.Total, r.Active, r.Hot, r.Dormant, r.LongDormant, r.Unknown)
			if r.ReportPath != "" {
				fmt.Printf("  Report: %s\n", r.ReportPath)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of runs to show (0 = all)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server to browse recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openHistory() (*history.DB, error) {
	return history.Open(filepath.Join(cfg.GetDataDir(), history.FileName))
}

// openHistoryOrWarn opens the run history; a failure only disables recording.
func openHistoryOrWarn() *history.DB {
	db, err := openHistory()
	if err != nil {
		logger.WithError(err).Warnf("Run history unavailable")
		return nil
	}
	return db
}
