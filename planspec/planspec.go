package planspec

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/wkalt/distplan/distplan"
	"github.com/wkalt/distplan/fragment"
	"github.com/wkalt/distplan/util/log"
	"gopkg.in/yaml.v3"
)

/*
Package planspec reads YAML plan specifications and builds plan graphs from
them. A specification lists the participating nodes by name, each with an
optional fragment in its textual form, and the edges between them:

	query_id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
	distributed: true
	nodes:
	  - name: pem-1
	    query_broker_address: qb:50300
	    has_data_store: true
	    fragment: '[grpcsink ("kelvin:59300" 1) [memsrc (http_events)]]'
	  - ref: kelvin
	edges:
	  - [pem-1, kelvin]

A node with ref set takes its descriptor from the catalog entry of that name.
Nodes are added to the graph in declaration order, so the i'th declared node
receives id i.
*/

////////////////////////////////////////////////////////////////////////////////

// NodeSpec declares one execution node.
type NodeSpec struct {
	distplan.Descriptor `yaml:",inline"`

	// Ref names a catalog entry supplying the descriptor.
	Ref string `yaml:"ref,omitempty"`

	// Fragment is the textual form of the node's fragment.
	Fragment string `yaml:"fragment,omitempty"`
}

// Key returns the name edges use to refer to the node.
func (n NodeSpec) Key() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Ref
}

// Spec is a parsed plan specification.
type Spec struct {
	QueryID     uuid.UUID  `yaml:"query_id"`
	Distributed bool       `yaml:"distributed"`
	Nodes       []NodeSpec `yaml:"nodes"`
	Edges       [][]string `yaml:"edges"`
}

// File is a specification loaded from disk.
type File struct {
	Path string
	Spec *Spec
}

// Load parses a specification from r.
func Load(r io.Reader) (*Spec, error) {
	spec := &Spec{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(spec); err != nil {
		if err == io.EOF {
			return spec, nil
		}
		return nil, fmt.Errorf("failed to decode plan spec: %w", err)
	}
	return spec, nil
}

// LoadFile parses the specification at path.
func LoadFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan spec: %w", err)
	}
	defer f.Close()
	spec, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Glob loads every specification under root matching pattern, which may
// contain ** to match any number of directories. Files are returned sorted by
// path.
func Glob(root string, pattern string) ([]File, error) {
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to match %s: %w", pattern, err)
	}
	slices.Sort(matches)
	files := make([]File, 0, len(matches))
	for _, match := range matches {
		path := filepath.Join(root, filepath.FromSlash(match))
		spec, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: path, Spec: spec})
	}
	return files, nil
}

// Build constructs a plan graph from the specification. It returns the graph
// and the id assigned to each node name.
func Build(
	ctx context.Context,
	spec *Spec,
	opts ...BuildOption,
) (*distplan.PlanGraph, map[string]int64, error) {
	options := BuildOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	ctx = log.AddTags(ctx, "query", spec.QueryID.String())
	defer log.Time(ctx, "build plan graph")()

	graph := distplan.NewPlanGraph()
	graph.SetQueryID(spec.QueryID)
	graph.SetDistributed(spec.Distributed)

	ids := make(map[string]int64, len(spec.Nodes))
	for i, node := range spec.Nodes {
		key := node.Key()
		if key == "" {
			return nil, nil, fmt.Errorf("node %d has neither name nor ref", i)
		}
		if _, ok := ids[key]; ok {
			return nil, nil, NewDuplicateNameError(key)
		}
		descriptor, err := resolve(ctx, node, options)
		if err != nil {
			return nil, nil, err
		}
		id := graph.AddNode(descriptor)
		ids[key] = id
		if node.Fragment == "" {
			continue
		}
		frag, err := fragment.Parse(node.Fragment)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", key, err)
		}
		executionNode, err := graph.Get(id)
		if err != nil {
			return nil, nil, err
		}
		executionNode.InstallFragment(frag)
	}

	for _, edge := range spec.Edges {
		if len(edge) != 2 {
			return nil, nil, fmt.Errorf("edge %v: expected [from, to]", edge)
		}
		from, ok := ids[edge[0]]
		if !ok {
			return nil, nil, NewUnknownNameError(edge[0])
		}
		to, ok := ids[edge[1]]
		if !ok {
			return nil, nil, NewUnknownNameError(edge[1])
		}
		if err := graph.AddEdge(from, to); err != nil {
			return nil, nil, err
		}
	}

	if options.Validate {
		if err := graph.Validate(); err != nil {
			return nil, nil, err
		}
	}
	log.Debugw(ctx, "built plan graph", "nodes", graph.Len(), "edges", len(spec.Edges))
	return graph, ids, nil
}

func resolve(ctx context.Context, node NodeSpec, options BuildOptions) (distplan.Descriptor, error) {
	if node.Ref == "" {
		return node.Descriptor, nil
	}
	if options.Catalog == nil {
		return distplan.Descriptor{}, fmt.Errorf("node %s: %w", node.Key(), ErrCatalogRequired)
	}
	descriptor, err := options.Catalog.Get(ctx, node.Ref)
	if err != nil {
		return distplan.Descriptor{}, fmt.Errorf("failed to resolve %s: %w", node.Ref, err)
	}
	if node.Name != "" {
		descriptor.Name = node.Name
	}
	return descriptor, nil
}
