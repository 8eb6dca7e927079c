// Package main provides the operon-extract command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/operon-extract/internal/extract"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	configName = ".operon-extract"
	envPrefix  = "OPERON_EXTRACT"
)

// usageError marks errors caused by bad invocation rather than bad data.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operon-extract",
		Short: "Extract operon neighborhoods from GenBank genomes",
		Long: `operon-extract cuts the region around one operon out of a GenBank genome,
orients it by the operon's gene strands and writes the region and its
translated coding sequences to a per-operon folder.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	cmd.SetVersionTemplate("operon-extract version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}

// initConfig loads ~/.operon-extract.yaml if present and enables
// OPERON_EXTRACT_* environment overrides.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract one operon",
		Long: `Locate an operon in the summary CSV, cut the annotation window around it
out of the GenBank genome and write <folder>/gbk/<genome>-<contig>-<ix>.gbk and
<folder>/faa/<genome>-<contig>-<ix>.faa.gz. The folder is named after the
operon context and must not exist yet.`,
		Example: `  operon-extract extract --genome-id G1 --contig C1 \
    --operon-context "lacZ (+) :: lacY (+)" --operon-ix 0 \
    --annotation-gbk G1.gbk.gz --summary-csv operons.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.String("genome-id", "", "Genome identifier")
	f.String("genome-name", "", "Genome display name (logged only)")
	f.String("contig", "", "Contig name")
	f.String("operon-context", "", `Operon context, e.g. "lacZ (+) :: lacY (+)"`)
	f.String("operon-ix", "", "Operon index")
	f.Int64("window", extract.DefaultWindow, "Bases added on each side of the operon")
	f.String("annotation-gbk", "", "GenBank genome (plain or gzip)")
	f.String("summary-csv", "", "Operon summary CSV")
	f.String("output-dir", ".", "Directory in which the operon folder is created")
	f.Bool("gff", false, "Also write a GFF sidecar")
	f.String("ledger", "", "DuckDB file to record the extraction in")
	f.BoolP("verbose", "v", false, "Enable debug logging")

	if err := viper.BindPFlags(f); err != nil {
		panic(err)
	}
	return cmd
}

func configFromViper() extract.Config {
	return extract.Config{
		GenomeID:      viper.GetString("genome-id"),
		GenomeName:    viper.GetString("genome-name"),
		Contig:        viper.GetString("contig"),
		OperonContext: viper.GetString("operon-context"),
		OperonIx:      viper.GetString("operon-ix"),
		Window:        viper.GetInt64("window"),
		AnnotationGBK: viper.GetString("annotation-gbk"),
		SummaryCSV:    viper.GetString("summary-csv"),
		OutputDir:     viper.GetString("output-dir"),
		GFF:           viper.GetBool("gff"),
		Ledger:        viper.GetString("ledger"),
	}
}

func runExtract(ctx context.Context) error {
	cfg := configFromViper()
	if err := cfg.Validate(); err != nil {
		return &usageError{err: err}
	}

	logger, err := newLogger(viper.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ex := extract.New(cfg)
	ex.SetLogger(logger)

	if _, err := ex.Run(ctx); err != nil {
		logger.Error("extraction failed", zap.Error(err))
		return err
	}
	return nil
}

// newLogger builds a console logger on stdout.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// defaultConfigFile returns the path of ~/.operon-extract.yaml.
func defaultConfigFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}
