package cli

import (
	"github.com/aleksaelezovic/plantkg/pkg/results"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the loaded graph as N-Triples",
		Long: `Write every statement of the loaded graph as N-Triples. Blank nodes of
the source document appear under their generated urn:uuid names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			triples, err := session.Triples()
			if err != nil {
				return err
			}
			return results.FormatNTriples(cmd.OutOrStdout(), triples)
		},
	}
}
