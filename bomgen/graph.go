package bomgen

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
)

// Graph is the resolved dependency graph handed over by the build system:
// the subject package, every resolved package keyed by the resolver's node
// id, and the dependency edges that survived target/feature resolution.
// Build-only subtrees arrive with Package.BuildOnly set and their edges
// tagged Build.
type Graph struct {
	Root     GraphNode          `json:"root"`
	Packages map[string]Package `json:"packages"`
	Edges    []GraphEdge        `json:"edges"`
}

// GraphNode is the subject of the document.
type GraphNode struct {
	ID      string  `json:"id"`
	Package Package `json:"package"`
}

// GraphEdge is one resolved dependency edge between node ids.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Build marks edges used only at build time; they are excluded from the
	// runtime graph unless the configuration includes everything.
	Build bool `json:"build,omitempty"`
}

// LoadGraph parses a resolved-graph JSON document.
func LoadGraph(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse resolved graph JSON: %w", err)
	}
	if g.Root.ID == "" {
		return nil, fmt.Errorf("resolved graph has no root node")
	}
	return &g, nil
}

// Generate builds a document from a resolved graph under the given
// configuration.
func Generate(g *Graph, cfg Config, log *zap.Logger) (*Builder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := New(cfg.Version(),
		WithTool(cfg.Tool),
		WithLicensePolicy(cfg.Policy()),
		WithLogger(log),
	)
	if err := b.SetSubject(g.Root.ID, g.Root.Package); err != nil {
		return nil, fmt.Errorf("root package: %w", err)
	}

	include := includedNodes(g, cfg)
	for _, id := range sortedKeys(g.Packages) {
		if !include[id] {
			continue
		}
		if err := b.AddPackage(id, g.Packages[id]); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Edges {
		if !include[e.From] && e.From != g.Root.ID {
			continue
		}
		if !include[e.To] {
			log.Debug("skipping edge to excluded package", zap.String("from", e.From), zap.String("to", e.To))
			continue
		}
		if err := b.AddDependency(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// includedNodes decides which packages appear in the output: everything when
// cfg.All, otherwise only the root's direct runtime dependencies. Build-only
// edges never pull a package into the direct set; their targets are already
// scope-excluded when they do appear.
func includedNodes(g *Graph, cfg Config) map[string]bool {
	include := map[string]bool{}
	if cfg.All {
		for id := range g.Packages {
			include[id] = true
		}
		return include
	}
	for _, e := range g.Edges {
		if e.From == g.Root.ID && !e.Build {
			include[e.To] = true
		}
	}
	return include
}

// sortedKeys returns the map's keys sorted; map iteration order is random and
// the output must be stable run to run.
func sortedKeys(m map[string]Package) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
