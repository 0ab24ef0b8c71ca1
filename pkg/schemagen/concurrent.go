package schemagen

import (
	"context"
	"runtime"

	"github.com/apache/arrow-go/v18/parquet/schema"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/colschema/pkg/observability"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

// BuildAll derives the schemas of several root types in parallel, at most
// GOMAXPROCS at a time. Each derivation has its own recursion state. The
// result is index-aligned with roots; the first failure cancels the rest and
// is returned.
func (b *Builder) BuildAll(ctx context.Context, roots []typeinfo.Type) (_ []*schema.GroupNode, err error) {
	ctx, span := observability.StartSpan(ctx, "schemagen.BuildAll")
	span.SetAttribute("roots", len(roots))
	span.SetAttribute("encoding", b.encoding)
	defer func() { span.End(err) }()

	out := make([]*schema.GroupNode, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, root := range roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, span := observability.StartSpan(ctx, "schemagen.Build")
			span.SetAttribute("type", root.String())
			node, err := b.Build(root)
			span.End(err)
			if err != nil {
				return err
			}
			out[i] = node
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
