package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pointmass/internal/bench"
	"github.com/san-kum/pointmass/internal/config"
	"github.com/san-kum/pointmass/internal/storage"
	"github.com/san-kum/pointmass/internal/system"
	"github.com/san-kum/pointmass/internal/tui"
	"github.com/san-kum/pointmass/internal/viz"
)

var errDisagreement = errors.New("strategies disagree")

var (
	// Global
	configFile string
	dataDir    string
	logLevel   string
	cfg        *config.Config

	// eval
	preset    string
	sysFile   string
	numBodies int
	strategy  string
	softening float64
	jsonOut   bool
	watch     bool
	showMap   bool

	// check / bench
	checkSizes []int
	benchSizes []int
	seed       int64
	tolerance  float64
	iterations int
	strategies []string
	useTUI     bool
	saveReport bool

	// plot
	plotWidth  int
	plotHeight int
)

// main runs the pointmass CLI and exits with status 1 if the selected
// command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Registering the flags resets every
// flag variable to its default.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "pointmass",
		Short:             "point-mass gravity derivative kernel",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate the derivative of a system",
		Args:  cobra.NoArgs,
		RunE:  runEval,
	}
	evalCmd.Flags().StringVar(&preset, "preset", "", "system preset")
	evalCmd.Flags().StringVar(&sysFile, "file", "", "system file (yaml)")
	evalCmd.Flags().IntVar(&numBodies, "bodies", 0, "body count for sized presets")
	evalCmd.Flags().StringVar(&strategy, "strategy", "", "kernel strategy (symmetric, naive, soa)")
	evalCmd.Flags().Float64Var(&softening, "softening", 0, "softening length")
	evalCmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	evalCmd.Flags().BoolVar(&watch, "watch", false, "re-evaluate when the system or config file changes")
	evalCmd.Flags().BoolVar(&showMap, "map", false, "draw bodies and acceleration directions in the xy plane")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "verify that all strategies agree",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
	checkCmd.Flags().IntSliceVar(&checkSizes, "sizes", []int{2, 3, 10, 100}, "body counts")
	checkCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	checkCmd.Flags().Float64Var(&tolerance, "tol", bench.DefaultTolerance, "max relative difference")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark kernel strategies",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", nil, "body counts (default from config)")
	benchCmd.Flags().IntVar(&iterations, "iterations", 0, "timed calls per case (default from config)")
	benchCmd.Flags().StringSliceVar(&strategies, "strategies", nil, "strategies (default from config)")
	benchCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	benchCmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress")
	benchCmd.Flags().BoolVar(&saveReport, "save", false, "save the report to the data directory")
	benchCmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list system presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved bench reports",
		Args:  cobra.NoArgs,
		RunE:  listReports,
	}

	showCmd := &cobra.Command{
		Use:   "show [report_id]",
		Short: "show a saved bench report",
		Args:  cobra.ExactArgs(1),
		RunE:  showReport,
	}
	showCmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")

	plotCmd := &cobra.Command{
		Use:   "plot [report_id]",
		Short: "plot ns/op against body count",
		Args:  cobra.ExactArgs(1),
		RunE:  plotReport,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 60, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	rootCmd.AddCommand(evalCmd, checkCmd, benchCmd, presetsCmd, listCmd, showCmd, plotCmd, configCmd)
	return rootCmd
}

// setup resolves the configuration (defaults, file, environment, flags) and
// installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg = c

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig layers the config file over the defaults, then the environment,
// then any flags set on cmd. --preset drops a system file taken from the
// config or environment; --file set alongside it still wins.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		c = loaded
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		c.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("preset") {
		c.System.Preset = preset
		c.System.File = ""
	}
	if flags.Changed("file") {
		c.System.File = sysFile
	}
	if flags.Changed("bodies") {
		c.System.Bodies = numBodies
	}
	if flags.Changed("strategy") {
		c.Kernel.Strategy = strategy
	}
	if flags.Changed("softening") {
		c.Kernel.Softening = softening
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

func runEval(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if err := evaluate(out, cfg); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	path := cfg.System.File
	if path == "" {
		path = configFile
	}
	if path == "" {
		return fmt.Errorf("--watch needs a system file (--file) or a config file (--config)")
	}

	w, err := config.NewWatcher(path, slog.Default())
	if err != nil {
		return err
	}
	w.OnChange(func(string) {
		c, err := loadConfig(cmd)
		if err != nil {
			slog.Error("reload failed", "err", err)
			return
		}
		fmt.Fprintln(out, viz.Separator(60))
		if err := evaluate(out, c); err != nil {
			slog.Error("evaluation failed", "err", err)
		}
	})
	if err := w.Start(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	slog.Info("watching for changes", "path", path)
	<-ctx.Done()
	return w.Stop()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBODIES\tUNITS")

	for _, name := range system.ListPresets() {
		sys, err := system.Preset(name, 0)
		if err != nil {
			return err
		}
		units := sys.Units
		if units == "" {
			units = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, sys.Len(), units)
	}
	return w.Flush()
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := cfg.KernelOptions()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	agreements, err := bench.Check(ctx, checkSizes, seed, opts)
	if err != nil {
		return err
	}
	return printAgreements(cmd.OutOrStdout(), agreements, tolerance)
}

// printAgreements tabulates agreements and returns an error wrapping
// errDisagreement if any of them exceeds tol.
func printAgreements(out io.Writer, agreements []bench.Agreement, tol float64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tSTRATEGY\tMODE\tMAX REL DIFF\tSTATUS")

	failed := 0
	for _, a := range agreements {
		mode := "serial"
		if a.Parallel {
			mode = "parallel"
		}
		ok := a.OK(tol)
		if !ok {
			failed++
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3e\t%s\n", a.Bodies, a.Strategy, mode, a.MaxRelDiff, viz.Status(ok))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d cases above tolerance %g", errDisagreement, failed, len(agreements), tol)
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("sizes") {
		cfg.Bench.Sizes = benchSizes
	}
	if flags.Changed("iterations") {
		cfg.Bench.Iterations = iterations
	}
	if flags.Changed("strategies") {
		cfg.Bench.Strategies = strategies
	}
	if flags.Changed("seed") {
		cfg.Bench.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	benchStrategies, err := cfg.BenchStrategies()
	if err != nil {
		return err
	}

	runner := &bench.Runner{
		Sizes:             cfg.Bench.Sizes,
		Strategies:        benchStrategies,
		Iterations:        cfg.Bench.Iterations,
		Workers:           cfg.Kernel.Workers,
		ParallelThreshold: cfg.Kernel.ParallelThreshold,
		Softening:         cfg.Kernel.Softening,
		Seed:              cfg.Bench.Seed,
		Logger:            slog.Default(),
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	var report *bench.Report
	if useTUI {
		report, err = tui.RunBench(ctx, runner)
	} else {
		report, err = runner.Run(ctx, nil)
	}
	report, err = keepPartial(report, err)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := storage.ExportJSON(out, report); err != nil {
			return err
		}
	} else if err := printResults(out, report.Results); err != nil {
		return err
	}

	if saveReport {
		st := storage.New(cfg.DataDir)
		id, err := st.Save(report)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nreport id: %s\n", id)
	}
	return nil
}

// keepPartial turns an interrupted run that finished at least one case into
// a successful partial report.
func keepPartial(report *bench.Report, err error) (*bench.Report, error) {
	if err == nil {
		return report, nil
	}
	if report == nil || len(report.Results) == 0 {
		return nil, err
	}
	slog.Warn("bench interrupted, reporting partial results", "err", err, "cases", len(report.Results))
	return report, nil
}

func printResults(out io.Writer, results []bench.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tBODIES\tITER\tMEAN\tSTDDEV\tPAIRS/SEC")

	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0fns\t%.0fns\t%.3g\n",
			r.Strategy, r.Bodies, r.Iterations, r.MeanNs, r.StdDevNs, r.PairsPerSec)
	}
	return w.Flush()
}

func listReports(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	reports, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "no reports found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tCASES\tSTRATEGIES\tSIZES")

	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%v\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Cases,
			strings.Join(r.Strategies, ","),
			r.Sizes,
		)
	}
	return w.Flush()
}

func showReport(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	meta, report, err := st.LoadReport(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return storage.ExportJSON(out, report)
	}

	fmt.Fprintf(out, "report: %s\n", meta.ID)
	fmt.Fprintf(out, "time: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "gomaxprocs: %d, workers: %d, parallel threshold: %d, seed: %d\n\n",
		meta.GoMaxProcs, meta.Workers, meta.ParallelThreshold, meta.Seed)
	return printResults(out, report.Results)
}

func plotReport(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	meta, report, err := st.LoadReport(args[0])
	if err != nil {
		return err
	}

	graph, err := viz.PlotReport(report, plotWidth, plotHeight)
	if err != nil {
		return fmt.Errorf("%s: %w", meta.ID, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "report: %s\n\n", meta.ID)
	fmt.Fprintln(out, graph)
	return nil
}
