// Package cmd provides the command-line interface for postcode.
package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/postcode/config"
	"github.com/sarchlab/postcode/tracing"
)

var (
	cfg    = config.Default()
	tracer *tracing.EditTracer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "postcode",
	Short: "Postcode converts virtual addresses to page-table indices and back.",
	Long: `Postcode converts a 64-bit virtual address to the fields of a ` +
		`4-level page-table walk with 4KiB pages (VA range, L3 to L0 ` +
		`indices and page offset) and back. It can run once, as an ` +
		`interactive terminal form, or as a web form.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"increase logging verbosity")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile,
		"file to read environment variables from")
	rootCmd.PersistentFlags().String("trace-csv", "",
		"record edits into this CSV file (without extension)")
	rootCmd.PersistentFlags().String("trace-db", "",
		"record edits into this SQLite database (without extension)")
}

// setup loads the configuration, applies the flags that were given
// explicitly, and prepares logging and tracing.
func setup(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")

	loaded, err := config.Load(envFile)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("trace-csv") {
		cfg.TraceCSV, _ = flags.GetString("trace-csv")
	}

	if flags.Changed("trace-db") {
		cfg.TraceDB, _ = flags.GetString("trace-db")
	}

	log.SetLevel(cfg.LogLevel)
	if verbose, _ := flags.GetBool("verbose"); verbose {
		log.SetLevel(log.DebugLevel)
	}

	tracer = newTracer(cfg)

	return nil
}

func newTracer(c config.Config) *tracing.EditTracer {
	var writers []tracing.TraceWriter

	if c.TraceCSV != "" {
		writers = append(writers, tracing.NewCSVTraceWriter(c.TraceCSV))
	}

	if c.TraceDB != "" {
		writers = append(writers, tracing.NewSQLiteTraceWriter(c.TraceDB))
	}

	if len(writers) == 0 {
		return nil
	}

	w := tracing.NewMultiTraceWriter(writers...)
	w.Init()

	log.Debugf("Tracing edits into %d writer(s)", len(writers))

	return tracing.NewEditTracer(w)
}

// collect attaches the configured tracer, if any, to a controller.
func collect(domain tracing.NamedHookable) {
	if tracer != nil {
		tracing.CollectTrace(domain, tracer)
	}
}
