package store_test

import (
	"errors"
	"testing"

	"github.com/aleksaelezovic/plantkg/internal/encoding"
	"github.com/aleksaelezovic/plantkg/internal/storage"
	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ex = "http://example.org/pdo#"

func iri(local string) *rdf.NamedNode {
	return rdf.NewNamedNode(ex + local)
}

func newTestStore(t *testing.T, triples ...*rdf.Triple) *store.TripleStore {
	t.Helper()
	backend, err := storage.NewInMemoryStorage()
	require.NoError(t, err)
	ts := store.NewTripleStore(backend, encoding.NewTermEncoder(), encoding.NewTermDecoder())
	t.Cleanup(func() { _ = ts.Close() })

	_, err = ts.InsertAll(triples)
	require.NoError(t, err)
	return ts
}

func collect(t *testing.T, ts *store.TripleStore, pattern *store.Pattern) []*rdf.Triple {
	t.Helper()
	it, err := ts.Match(pattern)
	require.NoError(t, err)
	defer it.Close()

	var out []*rdf.Triple
	for it.Next() {
		triple, err := it.Triple()
		require.NoError(t, err)
		out = append(out, triple)
	}
	return out
}

func sampleTriples() []*rdf.Triple {
	return []*rdf.Triple{
		rdf.NewTriple(iri("LateBlight"), iri("hasSymptom"), iri("S1")),
		rdf.NewTriple(iri("LateBlight"), iri("hasSymptom"), iri("S2")),
		rdf.NewTriple(iri("LateBlight"), rdf.RDFSLabel, rdf.NewLiteral("Late Blight")),
		rdf.NewTriple(iri("EarlyRot"), iri("hasSymptom"), iri("S1")),
		rdf.NewTriple(iri("S1"), rdf.RDFSLabel, rdf.NewLiteral("Wilting")),
		rdf.NewTriple(iri("S2"), rdf.RDFSLabel, rdf.NewLiteral("Leaf spots")),
	}
}

// ===== Insert Tests =====

func TestInsert_Idempotent(t *testing.T) {
	ts := newTestStore(t)
	triple := rdf.NewTriple(iri("LateBlight"), iri("hasSymptom"), iri("S1"))

	added, err := ts.Insert(triple)
	require.NoError(t, err)
	assert.True(t, added)

	before := collect(t, ts, &store.Pattern{})

	added, err = ts.Insert(rdf.NewTriple(iri("LateBlight"), iri("hasSymptom"), iri("S1")))
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, int64(1), ts.Count())
	assert.Equal(t, before, collect(t, ts, &store.Pattern{}))
}

func TestInsert_RejectsVariables(t *testing.T) {
	ts := newTestStore(t)
	_, err := ts.Insert(rdf.NewTriple(iri("a"), iri("b"), rdf.NewVariable("x")))
	assert.True(t, errors.Is(err, rdf.ErrInvalidTriple))
	assert.Equal(t, int64(0), ts.Count())
}

func TestInsertAll_CountsNewTriples(t *testing.T) {
	ts := newTestStore(t)
	triples := append(sampleTriples(), sampleTriples()...)

	added, err := ts.InsertAll(triples)
	require.NoError(t, err)
	assert.Equal(t, 6, added)

	stats := ts.Stats()
	assert.Equal(t, int64(6), stats.TotalTriples)
	assert.Equal(t, 4, stats.DistinctSubjects)
	assert.Equal(t, 2, stats.DistinctPredicates)
	assert.Equal(t, 5, stats.DistinctObjects)
}

// ===== Match Tests =====

func TestMatch_AllBindingShapes(t *testing.T) {
	ts := newTestStore(t, sampleTriples()...)
	v := rdf.NewVariable

	tests := []struct {
		name    string
		pattern *store.Pattern
		want    int
	}{
		{"nothing bound", &store.Pattern{}, 6},
		{"variables only", &store.Pattern{Subject: v("s"), Predicate: v("p"), Object: v("o")}, 6},
		{"subject", &store.Pattern{Subject: iri("LateBlight")}, 3},
		{"predicate", &store.Pattern{Predicate: iri("hasSymptom")}, 3},
		{"object iri", &store.Pattern{Object: iri("S1")}, 2},
		{"object literal", &store.Pattern{Object: rdf.NewLiteral("Wilting")}, 1},
		{"subject predicate", &store.Pattern{Subject: iri("LateBlight"), Predicate: iri("hasSymptom")}, 2},
		{"predicate object", &store.Pattern{Predicate: iri("hasSymptom"), Object: iri("S1")}, 2},
		{"subject object", &store.Pattern{Subject: iri("EarlyRot"), Object: iri("S1")}, 1},
		{"fully bound", &store.Pattern{Subject: iri("S1"), Predicate: rdf.RDFSLabel, Object: rdf.NewLiteral("Wilting")}, 1},
		{"unknown term", &store.Pattern{Subject: iri("Nope")}, 0},
		{"term in other position", &store.Pattern{Subject: iri("hasSymptom")}, 0},
		{"literal tag mismatch", &store.Pattern{Object: rdf.NewLiteralWithLanguage("Wilting", "en")}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := collect(t, ts, tc.pattern)
			assert.Len(t, got, tc.want)
			for _, triple := range got {
				if s := tc.pattern.Subject; !rdf.IsVariable(s) {
					assert.True(t, s.Equals(triple.Subject))
				}
				if p := tc.pattern.Predicate; !rdf.IsVariable(p) {
					assert.True(t, p.Equals(triple.Predicate))
				}
				if o := tc.pattern.Object; !rdf.IsVariable(o) {
					assert.True(t, o.Equals(triple.Object))
				}
			}
		})
	}
}

func TestMatch_Restartable(t *testing.T) {
	ts := newTestStore(t, sampleTriples()...)
	pattern := &store.Pattern{Predicate: rdf.RDFSLabel}

	first := collect(t, ts, pattern)
	second := collect(t, ts, pattern)
	assert.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestMatch_EmptyStore(t *testing.T) {
	ts := newTestStore(t)
	assert.Empty(t, collect(t, ts, &store.Pattern{}))
	assert.Empty(t, collect(t, ts, &store.Pattern{Subject: iri("LateBlight")}))
}

func TestMatch_NilTermPointerIsUnbound(t *testing.T) {
	ts := newTestStore(t, sampleTriples()...)

	got := collect(t, ts, &store.Pattern{Subject: (*rdf.NamedNode)(nil), Predicate: rdf.RDFSLabel})
	assert.Len(t, got, 3)

	_, err := ts.Insert(rdf.NewTriple(iri("S1"), rdf.RDFSLabel, (*rdf.Literal)(nil)))
	assert.True(t, errors.Is(err, rdf.ErrInvalidTriple))
	assert.Equal(t, int64(6), ts.Count())
}

func TestSelectIndex(t *testing.T) {
	ts := newTestStore(t)
	v := rdf.NewVariable("x")

	tests := []struct {
		name    string
		pattern *store.Pattern
		want    store.Table
	}{
		{"none", &store.Pattern{Subject: v, Predicate: v, Object: v}, store.TableSPO},
		{"s", &store.Pattern{Subject: iri("a")}, store.TableSPO},
		{"p", &store.Pattern{Predicate: iri("a")}, store.TablePOS},
		{"o", &store.Pattern{Object: iri("a")}, store.TableOSP},
		{"sp", &store.Pattern{Subject: iri("a"), Predicate: iri("b")}, store.TableSPO},
		{"po", &store.Pattern{Predicate: iri("a"), Object: iri("b")}, store.TablePOS},
		{"so", &store.Pattern{Subject: iri("a"), Object: iri("b")}, store.TableOSP},
		{"spo", &store.Pattern{Subject: iri("a"), Predicate: iri("b"), Object: iri("c")}, store.TableSPO},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ts.SelectIndex(tc.pattern).Table)
		})
	}
}

func TestEstimate(t *testing.T) {
	ts := newTestStore(t, sampleTriples()...)

	assert.Equal(t, int64(6), ts.Estimate(&store.Pattern{}))
	assert.Equal(t, int64(3), ts.Estimate(&store.Pattern{Predicate: rdf.RDFSLabel}))
	assert.Equal(t, int64(2), ts.Estimate(&store.Pattern{Predicate: rdf.RDFSLabel, Object: iri("S1")}))
	assert.Equal(t, int64(0), ts.Estimate(&store.Pattern{Subject: iri("Nope")}))
}

// ===== TransitiveClosure Tests =====

func iris(nodes []*rdf.NamedNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.IRI
	}
	return out
}

func TestTransitiveClosure_IncludesStart(t *testing.T) {
	ts := newTestStore(t)
	closure, err := ts.TransitiveClosure(iri("Disease"), rdf.RDFSSubClassOf, store.Backward)
	require.NoError(t, err)
	assert.Equal(t, []string{ex + "Disease"}, iris(closure))
}

func TestTransitiveClosure_Directions(t *testing.T) {
	sub := rdf.RDFSSubClassOf
	ts := newTestStore(t,
		rdf.NewTriple(iri("FungalDisease"), sub, iri("Disease")),
		rdf.NewTriple(iri("BlightSubtype"), sub, iri("FungalDisease")),
		rdf.NewTriple(iri("ViralDisease"), sub, iri("Disease")),
		rdf.NewTriple(iri("Disease"), rdf.RDFSLabel, rdf.NewLiteral("Disease")),
	)

	down, err := ts.TransitiveClosure(iri("Disease"), sub, store.Backward)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{ex + "Disease", ex + "FungalDisease", ex + "ViralDisease", ex + "BlightSubtype"},
		iris(down))
	assert.Equal(t, ex+"Disease", down[0].IRI)

	up, err := ts.TransitiveClosure(iri("BlightSubtype"), sub, store.Forward)
	require.NoError(t, err)
	assert.Equal(t, []string{ex + "BlightSubtype", ex + "FungalDisease", ex + "Disease"}, iris(up))
}

func TestTransitiveClosure_Cycle(t *testing.T) {
	rel := iri("relatedTo")
	ts := newTestStore(t,
		rdf.NewTriple(iri("A"), rel, iri("B")),
		rdf.NewTriple(iri("B"), rel, iri("A")),
		rdf.NewTriple(iri("B"), rel, iri("C")),
		rdf.NewTriple(iri("C"), rel, rdf.NewLiteral("not followed")),
	)

	fromA, err := ts.TransitiveClosure(iri("A"), rel, store.Forward)
	require.NoError(t, err)
	fromB, err := ts.TransitiveClosure(iri("B"), rel, store.Forward)
	require.NoError(t, err)

	assert.ElementsMatch(t, iris(fromA), iris(fromB))
	assert.Len(t, fromA, 3)
}

func TestTransitiveClosure_SelfLoop(t *testing.T) {
	rel := iri("relatedTo")
	ts := newTestStore(t, rdf.NewTriple(iri("A"), rel, iri("A")))

	closure, err := ts.TransitiveClosure(iri("A"), rel, store.Backward)
	require.NoError(t, err)
	assert.Equal(t, []string{ex + "A"}, iris(closure))
}
