package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/stylespec/pkg/design"
)

func TestResolveAll_MatchesSequential(t *testing.T) {
	e := newTestEngine(t)

	docs := make([]*design.Document, 12)
	for i := range docs {
		doc := cardDocument()
		doc.Name = fmt.Sprintf("card-%02d", i)
		docs[i] = doc
	}

	results, err := e.ResolveAll(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, results, len(docs))

	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, docs[i].Name, res.Document, "results keep input order")

		want, err := e.Resolve(context.Background(), docs[i])
		require.NoError(t, err)
		wantJSON, _ := json.Marshal(want)
		gotJSON, _ := json.Marshal(res)
		assert.JSONEq(t, string(wantJSON), string(gotJSON))
	}
}

func TestResolveAll_WorkerLimit(t *testing.T) {
	e := newTestEngine(t)
	docs := []*design.Document{cardDocument(), cardDocument(), cardDocument()}

	results, err := e.ResolveAllWithLimit(context.Background(), docs, 1)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestResolveAll_Error(t *testing.T) {
	e := newTestEngine(t)
	docs := []*design.Document{cardDocument(), {Name: "broken"}, cardDocument()}

	_, err := e.ResolveAll(context.Background(), docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestResolveAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(t).ResolveAll(ctx, []*design.Document{cardDocument()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResolveAll_Empty(t *testing.T) {
	results, err := newTestEngine(t).ResolveAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
