package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/results"
	"github.com/aleksaelezovic/plantkg/pkg/sparql/executor"
)

// namedResult is one entry of the JSON output of "run"
type namedResult struct {
	Name     string          `json:"name"`
	Title    string          `json:"title,omitempty"`
	Question string          `json:"question,omitempty"`
	Error    string          `json:"error,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
}

// writeResult renders one result in a line-oriented format
func writeResult(w io.Writer, format string, report results.Report, result *executor.SelectResult, ns *rdf.Namespaces) error {
	switch format {
	case "text":
		return results.FormatText(w, report, result, ns)
	case "tsv":
		out, err := results.FormatTSV(result)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "json":
		out, err := results.FormatJSON(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", out)
		return err
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
