package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

const (
	mergeDocumentQuery = `
MERGE (d:PolicyDocument {key: $source_ref})
SET d.category = $category, d.segment_count = $segment_count`

	mergeClausesQuery = `
UNWIND $nodes AS n
MERGE (c:Clause {key: n.key})
SET c.title = n.title, c.depth = n.depth, c.source_ref = $source_ref, c.category = $category`

	linkClausesQuery = `
UNWIND $nodes AS n
MATCH (p) WHERE p.key = n.parent AND (p:PolicyDocument OR p:Clause)
MATCH (c:Clause {key: n.key})
MERGE (p)-[:CONTAINS]->(c)`
)

type queryRunner func(ctx context.Context, query string, params map[string]any) error

// Graph mirrors the part/chapter/section/article tree of indexed documents.
type Graph struct {
	driver neo4j.DriverWithContext
	run    queryRunner
}

func New(ctx context.Context, uri, user, password, database string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	g := &Graph{driver: driver}
	g.run = func(ctx context.Context, query string, params map[string]any) error {
		opts := []neo4j.ExecuteQueryConfigurationOption{}
		if database != "" {
			opts = append(opts, neo4j.ExecuteQueryWithDatabase(database))
		}
		_, err := neo4j.ExecuteQuery(ctx, driver, query, params, neo4j.EagerResultTransformer, opts...)
		return err
	}
	return g, nil
}

func (g *Graph) Close(ctx context.Context) error {
	if g.driver == nil {
		return nil
	}
	return g.driver.Close(ctx)
}

func (g *Graph) UpsertHierarchy(ctx context.Context, segments []domain.Segment) error {
	for ref, group := range groupBySource(segments) {
		nodes := hierarchyNodes(ref, group)
		params := map[string]any{
			"source_ref":    ref,
			"category":      string(group[0].Category),
			"segment_count": int64(len(group)),
			"nodes":         nodes,
		}
		for _, q := range []string{mergeDocumentQuery, mergeClausesQuery, linkClausesQuery} {
			if err := g.run(ctx, q, params); err != nil {
				return fmt.Errorf("upsert hierarchy for %s: %w", ref, err)
			}
		}
	}
	return nil
}

func groupBySource(segments []domain.Segment) map[string][]domain.Segment {
	out := make(map[string][]domain.Segment)
	for _, seg := range segments {
		out[seg.SourceRef] = append(out[seg.SourceRef], seg)
	}
	return out
}

// hierarchyNodes flattens the level titles into unique nodes, parents first.
// A node key is the source ref followed by its title path.
func hierarchyNodes(ref string, segments []domain.Segment) []any {
	seen := make(map[string]bool)
	var nodes []any
	for _, seg := range segments {
		parent := ref
		path := []string{ref}
		for depth, level := range seg.Levels() {
			if level == nil {
				continue
			}
			path = append(path, *level)
			key := strings.Join(path, "|")
			if !seen[key] {
				seen[key] = true
				nodes = append(nodes, map[string]any{
					"key":    key,
					"parent": parent,
					"title":  *level,
					"depth":  int64(depth + 1),
				})
			}
			parent = key
		}
	}
	return nodes
}
