package cli

import (
	"fmt"

	"github.com/aleksaelezovic/plantkg/internal/config"
	"github.com/aleksaelezovic/plantkg/pkg/results"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Only    []string
	Compact bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured queries",
		Long: `Load the ontology and run every named query from the configuration in
order, printing one report per query.

A query that fails is reported and the remaining queries still run; the
command exits non-zero if any query failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueries(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Only, "query", "q", nil, "run only the named queries")
	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "show IRIs as prefixed names in text output")

	return cmd
}

func runQueries(cmd *cobra.Command, opts *RunOptions) error {
	session, cfg, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer session.Close()

	queries, err := selectQueries(cfg, opts.Only)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "text" {
		fmt.Fprintf(out, "Successfully loaded Knowledge Graph from '%s'\n", session.Source())
		fmt.Fprintf(out, "Total Triples in Graph: %d\n\n", session.Count())
	}

	var named []namedResult
	failed := 0
	for _, q := range queries {
		result, err := session.Run(cmd.Context(), q)
		if err != nil {
			failed++
			log.WithError(err).WithField("query", q.Name).Error("Query failed")
			if opts.Format == "json" {
				named = append(named, namedResult{Name: q.Name, Title: q.Title, Question: q.Question, Error: err.Error()})
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: %v\n", err)
			}
			continue
		}

		if opts.Format == "json" {
			raw, err := results.FormatJSON(result)
			if err != nil {
				return err
			}
			named = append(named, namedResult{Name: q.Name, Title: q.Title, Question: q.Question, Result: raw})
			continue
		}

		report := results.Report{Title: q.Title, Question: q.Question}
		ns := session.Namespaces()
		if !opts.Compact {
			ns = nil
		}
		if err := writeResult(out, opts.Format, report, result, ns); err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		if err := writeJSON(out, named); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(queries))
	}
	return nil
}

// selectQueries returns the configured queries, restricted to names when given
func selectQueries(cfg *config.Config, names []string) ([]config.Query, error) {
	if len(names) == 0 {
		return cfg.Queries, nil
	}
	selected := make([]config.Query, 0, len(names))
	for _, name := range names {
		q, ok := cfg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown query %q", name)
		}
		selected = append(selected, q)
	}
	return selected, nil
}
