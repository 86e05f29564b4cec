package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aleksaelezovic/plantkg/internal/config"
	"github.com/aleksaelezovic/plantkg/internal/kg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Ontology   string
	Verbose    bool
	Format     string // "text" | "tsv" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "tsv", "json"}

// NewRootCommand creates the root command for the plantkg CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "plantkg",
		Short: "Query a plant disease knowledge graph",
		Long: `plantkg loads a Turtle ontology into an in-memory triple store and
answers conjunctive SPARQL-style queries over it.

Without --config, plantkg.yaml in the working directory is used when present,
otherwise the bundled configuration and sample ontology.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cmd, opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default plantkg.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.Ontology, "ontology", "", "Turtle file to load, overriding the config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|tsv|json)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// configureLogging sends logs to stderr so they never mix with results
func configureLogging(cmd *cobra.Command, verbose bool) {
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

// loadConfig resolves the configuration from flags
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case opts.ConfigPath != "":
		cfg, err = config.LoadFromFile(opts.ConfigPath)
	default:
		if _, statErr := os.Stat(config.DefaultFile); statErr == nil {
			cfg, err = config.LoadFromFile(config.DefaultFile)
		} else if errors.Is(statErr, fs.ErrNotExist) {
			cfg, err = config.Default()
		} else {
			err = statErr
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.Ontology != "" {
		cfg.Ontology = opts.Ontology
	}
	log.WithFields(log.Fields{
		"ontology": cfg.Ontology,
		"queries":  len(cfg.Queries),
	}).Debug("Resolved configuration")
	return cfg, nil
}

// openSession loads config and graph. Load failures are also reported on
// stdout as an ERROR line before the error is returned.
func openSession(cmd *cobra.Command, opts *RootOptions) (*kg.Session, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	session, err := kg.Open(cfg)
	if err != nil {
		var loadErr *kg.LoadError
		if errors.As(err, &loadErr) {
			fmt.Fprintf(cmd.OutOrStdout(), "ERROR: Could not parse '%s'. Details: %v\n", loadErr.Source, loadErr.Err)
		}
		return nil, nil, err
	}
	return session, cfg, nil
}
