package cli

import (
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/results"
	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run an ad hoc query",
		Long: `Run one query given on the command line, for example:

  plantkg query 'SELECT ?l WHERE { :Tomato rdfs:label ?l }'

Prefixes from the configuration and the ontology are available.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			result, err := session.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			report := results.Report{
				Title:    "Ad hoc query",
				Question: strings.Join(strings.Fields(args[0]), " "),
			}
			ns := session.Namespaces()
			if !compact {
				ns = nil
			}
			return writeResult(cmd.OutOrStdout(), rootOpts.Format, report, result, ns)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "show IRIs as prefixed names in text output")

	return cmd
}
