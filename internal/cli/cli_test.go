package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command in an empty working directory so only the
// bundled configuration applies.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	chdirTemp(t, t.TempDir())

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "plantkg", cmd.Use)

	for _, name := range []string{"run", "query", "stats", "export"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("ontology"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "stats", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRun_TextReport(t *testing.T) {
	out, _, err := execute(t, "run")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out,
		"Successfully loaded Knowledge Graph from 'plant-disease-ontology.ttl'\nTotal Triples in Graph: 128\n\n"))
	assert.Contains(t, out, "| Query: Symptoms by Disease\n")
	assert.Contains(t, out, "|  Q: \"I see 'Wilting'. What diseases could this be?\"\n")
	assert.Contains(t, out, "  -> \"Late Blight\"\n")
	assert.Contains(t, out, "  -> \"Wheat Stem Rust\", \"Puccinia graminis\"\n")
	assert.Equal(t, 4, strings.Count(out, "| Query: "))
}

func TestRun_SelectedQueryAsJSON(t *testing.T) {
	out, _, err := execute(t, "run", "--query", "symptom-to-disease", "--format", "json")
	require.NoError(t, err)

	var decoded []struct {
		Name   string `json:"name"`
		Result struct {
			Head struct {
				Vars []string `json:"vars"`
			} `json:"head"`
			Results struct {
				Bindings []map[string]map[string]string `json:"bindings"`
			} `json:"results"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "symptom-to-disease", decoded[0].Name)
	assert.Equal(t, []string{"disease_label"}, decoded[0].Result.Head.Vars)

	var labels []string
	for _, b := range decoded[0].Result.Results.Bindings {
		labels = append(labels, b["disease_label"]["value"])
	}
	assert.ElementsMatch(t, []string{"Fusarium Wilt", "Bacterial Wilt"}, labels)
}

func TestRun_UnknownQueryName(t *testing.T) {
	_, _, err := execute(t, "run", "-q", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown query "nope"`)
}

func TestRun_FailingQueryDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plantkg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queries:
  - name: broken
    title: Broken
    query: SELECT ?x WHERE { ?x foo:bar ?y }
  - name: tomato
    title: Tomato
    query: SELECT ?l WHERE { :Tomato rdfs:label ?l }
`), 0o644))

	out, stderr, err := execute(t, "run", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 queries failed")
	assert.Contains(t, stderr, "unknown prefix")
	assert.Contains(t, out, "| Query: Tomato\n")
	assert.Contains(t, out, "  -> \"Tomato\"\n")
}

func TestRun_ParseFailureBanner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttl")
	require.NoError(t, os.WriteFile(path, []byte(`<http://a> <http://b> "open .`), 0o644))

	out, _, err := execute(t, "run", "--ontology", path)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "ERROR: Could not parse '"+path+"'. Details: "), out)
}

func TestQuery_AdHocCompact(t *testing.T) {
	out, _, err := execute(t, "query", "--compact", "SELECT ?d WHERE { ?d :isCausedBy :FusariumOxysporum }")
	require.NoError(t, err)
	assert.Contains(t, out, "| Query: Ad hoc query\n")
	assert.Contains(t, out, "  -> :FusariumWilt\n")
}

func TestQuery_TSV(t *testing.T) {
	out, _, err := execute(t, "query", "--format", "tsv", "SELECT ?l WHERE { :Potato rdfs:label ?l }")
	require.NoError(t, err)
	assert.Equal(t, "?l\n\"Potato\"\n", out)
}

func TestQuery_RejectsBadText(t *testing.T) {
	_, _, err := execute(t, "query", "SELECT ?x WHERE { ?x unknown:p ?y }")
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	out, _, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Source:              plant-disease-ontology.ttl\n")
	assert.Contains(t, out, "Triples:             128\n")
	assert.Contains(t, out, "Distinct predicates: 9\n")

	out, _, err = execute(t, "stats", "--format", "json")
	require.NoError(t, err)
	var stats graphStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, int64(128), stats.Triples)
}

func TestExport(t *testing.T) {
	out, _, err := execute(t, "export")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, 128)
	assert.Contains(t, lines,
		"<http://www.semanticweb.org/knuckles/ontologies/2025/10/plant-disease-ontology#Wilting> "+
			"<http://www.w3.org/2000/01/rdf-schema#label> \"Wilting\" .")
}

// chdirTemp changes the working directory to dir for the duration of the
// test and restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdirTemp(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("chdir: %v", err)
		}
	})
}
