package planspec_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/distplan/catalog"
	"github.com/wkalt/distplan/dag"
	"github.com/wkalt/distplan/distplan"
	"github.com/wkalt/distplan/fragment"
	"github.com/wkalt/distplan/planspec"
	"github.com/wkalt/distplan/util/testutils"
)

const twoAgents = `
query_id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
distributed: true
nodes:
  - name: pem-1
    query_broker_address: qb:50300
    agent_id: f47ac10b-58cc-4372-a567-0e02b2c3d479
    has_data_store: true
    processes_data: true
    asid: 1
    fragment: '[grpcsink ("kelvin:59300" 1) [memsrc (http_events)]]'
  - name: pem-2
    query_broker_address: qb:50300
    has_data_store: true
    asid: 2
    fragment: '[grpcsink ("kelvin:59300" 2) [memsrc (http_events)]]'
  - name: kelvin
    query_broker_address: qb:50300
    grpc_address: kelvin:59300
    has_grpc_server: true
    accepts_remote_sources: true
    fragment: '[resultsink (output) [union [grpcsource (1)] [grpcsource (2)]]]'
edges:
  - [pem-1, kelvin]
  - [pem-2, kelvin]
`

func load(t *testing.T, text string) *planspec.Spec {
	t.Helper()
	spec, err := planspec.Load(strings.NewReader(text))
	require.NoError(t, err)
	return spec
}

func TestLoad(t *testing.T) {
	spec := load(t, twoAgents)
	require.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), spec.QueryID)
	require.True(t, spec.Distributed)
	require.Len(t, spec.Nodes, 3)
	require.Equal(t, "pem-1", spec.Nodes[0].Name)
	require.Equal(t, uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479"), spec.Nodes[0].AgentID)
	require.True(t, spec.Nodes[0].HasDataStore)
	require.Equal(t, uint32(1), spec.Nodes[0].ASID)
	require.Equal(t, "kelvin:59300", spec.Nodes[2].GRPCAddress)
	require.Equal(t, [][]string{{"pem-1", "kelvin"}, {"pem-2", "kelvin"}}, spec.Edges)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		assertion string
		input     string
	}{
		{"unknown field", "nodes:\n  - name: a\n    colour: red\n"},
		{"bad query id", "query_id: not-a-uuid\n"},
		{"not yaml", "nodes: [\n"},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			_, err := planspec.Load(strings.NewReader(c.input))
			require.Error(t, err)
		})
	}
	t.Run("empty input is an empty spec", func(t *testing.T) {
		spec, err := planspec.Load(strings.NewReader(""))
		require.NoError(t, err)
		require.Empty(t, spec.Nodes)
	})
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	graph, ids, err := planspec.Build(ctx, load(t, twoAgents), planspec.WithValidation(true))
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"pem-1": 0, "pem-2": 1, "kelvin": 2}, ids)
	require.Equal(t, 3, graph.Len())
	require.True(t, graph.Distributed())
	require.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), graph.QueryID())
	require.Equal(t, []dag.Edge{{From: 0, To: 2}, {From: 1, To: 2}}, graph.DAG().Edges())

	kelvin, err := graph.Get(ids["kelvin"])
	require.NoError(t, err)
	require.True(t, kelvin.HasFragment())
	frag, ok := kelvin.Fragment().(*fragment.Node)
	require.True(t, ok)
	require.Equal(t, fragment.ResultSink, frag.Type)
	require.False(t, kelvin.Descriptor().IsAgent())

	plan, err := graph.Render()
	require.NoError(t, err)
	require.Len(t, plan.Nodes, 3)
	require.Equal(t, "pem-1", plan.Nodes[0].Info.Name)
	decoded, err := fragment.Decode(plan.Nodes[0].Fragment)
	require.NoError(t, err)
	require.Equal(t, `[grpcsink ("kelvin:59300" 1) [memsrc (http_events)]]`, decoded.String())
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		assertion string
		input     string
		opts      []planspec.BuildOption
		target    error
	}{
		{
			"unknown edge endpoint",
			"nodes:\n  - name: a\nedges:\n  - [a, b]\n",
			nil,
			planspec.UnknownNameError{},
		},
		{
			"duplicate name",
			"nodes:\n  - name: a\n  - name: a\n",
			nil,
			planspec.DuplicateNameError{},
		},
		{
			"invalid fragment",
			"nodes:\n  - name: a\n    fragment: '[limit (1)]'\n",
			nil,
			fragment.InvalidFragmentError{},
		},
		{
			"reference without catalog",
			"nodes:\n  - ref: kelvin\n",
			nil,
			planspec.ErrCatalogRequired,
		},
		{
			"reference missing from catalog",
			"nodes:\n  - ref: kelvin\n",
			[]planspec.BuildOption{planspec.WithCatalog(catalog.NewMemCatalog())},
			catalog.NodeNotFoundError{},
		},
		{
			"cycle with validation",
			"nodes:\n  - name: a\n  - name: b\nedges:\n  - [a, b]\n  - [b, a]\n",
			[]planspec.BuildOption{planspec.WithValidation(true)},
			dag.CycleError{},
		},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			_, _, err := planspec.Build(ctx, load(t, c.input), c.opts...)
			require.ErrorIs(t, err, c.target)
		})
	}
	t.Run("malformed edge", func(t *testing.T) {
		_, _, err := planspec.Build(ctx, load(t, "nodes:\n  - name: a\nedges:\n  - [a]\n"))
		require.Error(t, err)
	})
	t.Run("unnamed node", func(t *testing.T) {
		_, _, err := planspec.Build(ctx, load(t, "nodes:\n  - query_broker_address: qb\n"))
		require.Error(t, err)
	})
	t.Run("cycle without validation", func(t *testing.T) {
		graph, _, err := planspec.Build(ctx, load(t, "nodes:\n  - name: a\nedges:\n  - [a, a]\n"))
		require.NoError(t, err)
		require.Error(t, graph.Validate())
	})
}

func TestBuildWithCatalog(t *testing.T) {
	ctx := context.Background()
	c := catalog.NewMemCatalog()
	require.NoError(t, c.Put(ctx, distplan.Descriptor{
		Name:               "kelvin",
		QueryBrokerAddress: "qb:50300",
		GRPCAddress:        "kelvin:59300",
		HasGRPCServer:      true,
	}))
	spec := load(t, `
nodes:
  - ref: kelvin
  - ref: kelvin
    name: kelvin-2
edges:
  - [kelvin-2, kelvin]
`)
	graph, ids, err := planspec.Build(ctx, spec, planspec.WithCatalog(c))
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"kelvin": 0, "kelvin-2": 1}, ids)
	first, err := graph.Get(0)
	require.NoError(t, err)
	require.Equal(t, "kelvin", first.Descriptor().Name)
	require.Equal(t, "kelvin:59300", first.Descriptor().GRPCAddress)
	second, err := graph.Get(1)
	require.NoError(t, err)
	require.Equal(t, "kelvin-2", second.Descriptor().Name)
	require.Equal(t, "kelvin:59300", second.Descriptor().GRPCAddress)
}

func TestGlob(t *testing.T) {
	root := testutils.WriteFiles(t, map[string]string{
		"b.yaml":              "nodes:\n  - name: b\n",
		"nested/a.yaml":       "nodes:\n  - name: a\n",
		"nested/deep/c.yaml":  "nodes:\n  - name: c\n",
		"nested/deep/ignored": "not a spec",
	})
	files, err := planspec.Glob(root, "**/*.yaml")
	require.NoError(t, err)
	names := []string{}
	for _, f := range files {
		require.True(t, strings.HasPrefix(f.Path, root))
		names = append(names, f.Spec.Nodes[0].Name)
	}
	require.Equal(t, []string{"b", "a", "c"}, names)

	t.Run("bad file is reported with its path", func(t *testing.T) {
		root := testutils.WriteFiles(t, map[string]string{"x.yaml": "nodes: [\n"})
		_, err := planspec.Glob(root, "*.yaml")
		require.ErrorContains(t, err, "x.yaml")
	})
}
