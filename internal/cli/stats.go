package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// graphStats is the JSON shape of the stats command
type graphStats struct {
	Source             string `json:"source"`
	Triples            int64  `json:"triples"`
	DistinctSubjects   int    `json:"distinct_subjects"`
	DistinctPredicates int    `json:"distinct_predicates"`
	DistinctObjects    int    `json:"distinct_objects"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print triple counts of the loaded graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			s := session.Stats()
			stats := graphStats{
				Source:             session.Source(),
				Triples:            s.TotalTriples,
				DistinctSubjects:   s.DistinctSubjects,
				DistinctPredicates: s.DistinctPredicates,
				DistinctObjects:    s.DistinctObjects,
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), stats)
			}

			w := cmd.OutOrStdout()
			if rootOpts.Format == "tsv" {
				fmt.Fprintf(w, "source\ttriples\tsubjects\tpredicates\tobjects\n")
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", stats.Source, stats.Triples,
					stats.DistinctSubjects, stats.DistinctPredicates, stats.DistinctObjects)
				return nil
			}

			// counts are grouped for reading, e.g. 12,345
			p := message.NewPrinter(language.English)
			p.Fprintf(w, "Source:              %s\n", stats.Source)
			p.Fprintf(w, "Triples:             %d\n", stats.Triples)
			p.Fprintf(w, "Distinct subjects:   %d\n", stats.DistinctSubjects)
			p.Fprintf(w, "Distinct predicates: %d\n", stats.DistinctPredicates)
			p.Fprintf(w, "Distinct objects:    %d\n", stats.DistinctObjects)
			return nil
		},
	}
}
