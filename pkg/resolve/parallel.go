package resolve

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gnana997/stylespec/pkg/design"
	"github.com/gnana997/stylespec/pkg/util"
)

// ResolveAll resolves independent documents in parallel. Each document is
// resolved against its own table snapshot, so runs share no alias cache.
// Results are returned in the order of docs. The first error cancels the
// remaining runs.
func (e *Engine) ResolveAll(ctx context.Context, docs []*design.Document) ([]*Result, error) {
	return e.ResolveAllWithLimit(ctx, docs, 0)
}

// ResolveAllWithLimit is ResolveAll with an explicit worker count. Zero or
// less uses util.GetOptimalPoolSize.
func (e *Engine) ResolveAllWithLimit(ctx context.Context, docs []*design.Document, workers int) ([]*Result, error) {
	results := make([]*Result, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(util.GetOptimalPoolSizeWithOverride(workers))

	for i, doc := range docs {
		g.Go(func() error {
			run := e.withTable(e.table.Snapshot())
			res, err := run.Resolve(gctx, doc)
			if err != nil {
				name := fmt.Sprintf("#%d", i)
				if doc != nil && doc.Name != "" {
					name = doc.Name
				}
				return fmt.Errorf("document %s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("documents resolved", "count", len(docs))
	return results, nil
}
