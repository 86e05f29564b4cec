package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdo = "http://www.semanticweb.org/knuckles/ontologies/2025/10/plant-disease-ontology#"

func TestDefault(t *testing.T) {
	config, err := Default()
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, BundledOntology, config.Ontology)
	assert.Equal(t, pdo, config.Namespaces[""])

	names := make([]string, 0, len(config.Queries))
	for _, q := range config.Queries {
		names = append(names, q.Name)
	}
	assert.Equal(t, []string{"symptoms-by-disease", "diseases-by-host", "diseases-by-fungus", "symptom-to-disease"}, names)

	q, ok := config.Lookup("diseases-by-host")
	require.True(t, ok)
	assert.Equal(t, "Diseases by Host Plant", q.Title)
	assert.Contains(t, q.Query, "a/rdfs:subClassOf* :Disease")
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	config, err := Load([]byte(`
ontology: other.ttl
namespaces:
  ex: http://example.org/
`))
	require.NoError(t, err)

	assert.Equal(t, "other.ttl", config.Ontology)
	assert.Equal(t, pdo, config.Namespaces[""])
	assert.Equal(t, "http://example.org/", config.Namespaces["ex"])
	assert.Len(t, config.Queries, 4)
}

func TestLoad_QueriesReplaceDefaults(t *testing.T) {
	config, err := Load([]byte(`
queries:
  - name: labels
    title: Labels
    query: SELECT ?l WHERE { ?s rdfs:label ?l }
`))
	require.NoError(t, err)
	require.Len(t, config.Queries, 1)
	assert.Equal(t, "labels", config.Queries[0].Name)

	_, ok := config.Lookup("symptoms-by-disease")
	assert.False(t, ok)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed yaml":  "queries: [",
		"empty ontology":  `ontology: ""`,
		"unnamed query":   "queries:\n  - query: SELECT * { ?s ?p ?o }",
		"duplicate query": "queries:\n  - name: a\n    query: x\n  - name: a\n    query: y",
		"empty query":     "queries:\n  - name: a",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("ontology: custom.ttl\n"), 0o644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.ttl", config.Ontology)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNamespaceTable(t *testing.T) {
	config, err := Default()
	require.NoError(t, err)

	ns := config.NamespaceTable()
	node, err := ns.Resolve(":LateBlight")
	require.NoError(t, err)
	assert.Equal(t, pdo+"LateBlight", node.IRI)

	_, ok := ns.Lookup("rdfs")
	assert.True(t, ok)
}

func TestOpenOntology(t *testing.T) {
	t.Run("bundled fallback", func(t *testing.T) {
		chdirTemp(t, t.TempDir())
		config := &Config{Ontology: BundledOntology}
		rc, err := config.OpenOntology()
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "@prefix : <"+pdo+">"))
	})

	t.Run("file on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "kg.ttl")
		require.NoError(t, os.WriteFile(path, []byte("# empty\n"), 0o644))

		rc, err := (&Config{Ontology: path}).OpenOntology()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "# empty\n", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := (&Config{Ontology: filepath.Join(t.TempDir(), "nope.ttl")}).OpenOntology()
		assert.True(t, os.IsNotExist(err))
	})
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
