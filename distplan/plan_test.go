package distplan_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/distplan/dag"
	"github.com/wkalt/distplan/distplan"
	"github.com/wkalt/distplan/planwire"
)

type staticFragment string

func (f staticFragment) Render() ([]byte, error) {
	return []byte(f), nil
}

type failingFragment struct {
	err error
}

func (f failingFragment) Render() ([]byte, error) {
	return nil, f.err
}

func descriptor(name string) distplan.Descriptor {
	return distplan.Descriptor{
		Name:               name,
		QueryBrokerAddress: "qb:50300",
	}
}

func TestAddNodeAssignsSequentialIDs(t *testing.T) {
	g := distplan.NewPlanGraph()
	for i := 0; i < 100; i++ {
		require.Equal(t, int64(i), g.AddNode(descriptor("n")))
	}
	require.Equal(t, 100, g.Len())
	seen := map[int64]bool{}
	for _, n := range g.Nodes() {
		require.False(t, seen[n.ID()])
		seen[n.ID()] = true
	}
}

func TestGet(t *testing.T) {
	g := distplan.NewPlanGraph()
	id := g.AddNode(descriptor("pem"))
	g.AddNode(descriptor("kelvin"))

	t.Run("existing node", func(t *testing.T) {
		node, err := g.Get(id)
		require.NoError(t, err)
		require.Equal(t, id, node.ID())
		require.Equal(t, "pem", node.Descriptor().Name)
	})
	t.Run("returned handle is the owned node", func(t *testing.T) {
		node, err := g.Get(id)
		require.NoError(t, err)
		node.InstallFragment(staticFragment("a"))
		again, err := g.Get(id)
		require.NoError(t, err)
		require.True(t, again.HasFragment())
	})
	t.Run("unknown id", func(t *testing.T) {
		_, err := g.Get(42)
		require.ErrorIs(t, err, distplan.UnknownNodeError{})
		var unknown distplan.UnknownNodeError
		require.True(t, errors.As(err, &unknown))
		require.Equal(t, int64(42), unknown.ID)
	})
}

func TestAddEdge(t *testing.T) {
	t.Run("edge between known nodes", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		a := g.AddNode(descriptor("a"))
		b := g.AddNode(descriptor("b"))
		require.NoError(t, g.AddEdge(a, b))
		require.Equal(t, []dag.Edge{{From: a, To: b}}, g.DAG().Edges())
	})
	t.Run("unknown ids on an empty graph", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		require.ErrorIs(t, g.AddEdge(5, 6), distplan.UnknownNodeError{})
		require.Empty(t, g.DAG().Nodes())
		require.Empty(t, g.DAG().Edges())
	})
	t.Run("one unknown endpoint leaves the graph unchanged", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		a := g.AddNode(descriptor("a"))
		require.ErrorIs(t, g.AddEdge(a, 7), distplan.UnknownNodeError{ID: 7})
		require.ErrorIs(t, g.AddEdge(7, a), distplan.UnknownNodeError{ID: 7})
		require.Equal(t, []int64{a}, g.DAG().Nodes())
		require.Empty(t, g.DAG().Edges())
	})
	t.Run("edge endpoints are always nodes", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		for i := 0; i < 5; i++ {
			g.AddNode(descriptor("n"))
		}
		for i := int64(0); i < 4; i++ {
			require.NoError(t, g.AddEdge(i, i+1))
			require.NoError(t, g.AddEdge(0, i+1))
		}
		for _, e := range g.DAG().Edges() {
			_, err := g.Get(e.From)
			require.NoError(t, err)
			_, err = g.Get(e.To)
			require.NoError(t, err)
		}
	})
	t.Run("handles", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		a, err := g.Get(g.AddNode(descriptor("a")))
		require.NoError(t, err)
		b, err := g.Get(g.AddNode(descriptor("b")))
		require.NoError(t, err)
		require.NoError(t, g.AddNodeEdge(a, b))
		require.Equal(t, []int64{b.ID()}, g.DAG().Children(a.ID()))

		other := distplan.NewPlanGraph()
		foreign, err := other.Get(other.AddNode(descriptor("c")))
		require.NoError(t, err)
		require.ErrorIs(t, g.AddNodeEdge(a, foreign), distplan.UnknownNodeError{})
		require.ErrorIs(t, g.AddNodeEdge(nil, b), distplan.ErrNilNode)
		require.ErrorIs(t, g.AddNodeEdge(a, nil), distplan.ErrNilNode)
		require.Len(t, g.DAG().Edges(), 1)
	})
}

func TestValidate(t *testing.T) {
	g := distplan.NewPlanGraph()
	a := g.AddNode(descriptor("a"))
	b := g.AddNode(descriptor("b"))
	require.NoError(t, g.AddEdge(a, b))
	require.NoError(t, g.Validate())

	require.NoError(t, g.AddEdge(b, a))
	require.ErrorIs(t, g.Validate(), dag.CycleError{})
}

func TestRender(t *testing.T) {
	t.Run("two node distributed plan", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		require.Equal(t, int64(0), g.AddNode(descriptor("pem")))
		require.Equal(t, int64(1), g.AddNode(descriptor("kelvin")))
		require.NoError(t, g.AddEdge(0, 1))
		n0, err := g.Get(0)
		require.NoError(t, err)
		n0.InstallFragment(staticFragment("F0"))
		n1, err := g.Get(1)
		require.NoError(t, err)
		n1.InstallFragment(staticFragment("F1"))
		g.SetDistributed(true)

		plan, err := g.Render()
		require.NoError(t, err)
		require.Equal(t, planwire.Version, plan.Version)
		require.True(t, plan.Distributed)
		require.Len(t, plan.Nodes, 2)
		require.Equal(t, []byte("F0"), plan.Nodes[0].Fragment)
		require.Equal(t, "pem", plan.Nodes[0].Info.Name)
		require.Equal(t, []byte("F1"), plan.Nodes[1].Fragment)
		require.Equal(t, []planwire.Edge{{From: 0, To: 1}}, plan.Edges)
	})
	t.Run("single node without a fragment", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		g.AddNode(descriptor("pem"))
		plan, err := g.Render()
		require.ErrorIs(t, err, distplan.MissingFragmentError{ID: 0})
		require.Nil(t, plan)
	})
	t.Run("any missing fragment fails the render", func(t *testing.T) {
		for missing := 0; missing < 4; missing++ {
			g := distplan.NewPlanGraph()
			for i := 0; i < 4; i++ {
				id := g.AddNode(descriptor("n"))
				if i == missing {
					continue
				}
				node, err := g.Get(id)
				require.NoError(t, err)
				node.InstallFragment(staticFragment("f"))
			}
			plan, err := g.Render()
			require.ErrorIs(t, err, distplan.MissingFragmentError{})
			require.Nil(t, plan)
		}
	})
	t.Run("fragment failures are wrapped", func(t *testing.T) {
		cause := errors.New("boom")
		g := distplan.NewPlanGraph()
		node, err := g.Get(g.AddNode(descriptor("n")))
		require.NoError(t, err)
		node.InstallFragment(failingFragment{cause})
		plan, err := g.Render()
		require.ErrorIs(t, err, distplan.SerializationError{})
		require.ErrorIs(t, err, cause)
		require.Nil(t, plan)
	})
	t.Run("last installed fragment wins", func(t *testing.T) {
		g := distplan.NewPlanGraph()
		node, err := g.Get(g.AddNode(descriptor("n")))
		require.NoError(t, err)
		node.InstallFragment(staticFragment("first"))
		node.InstallFragment(staticFragment("second"))
		data, err := node.RenderFragment()
		require.NoError(t, err)
		require.Equal(t, []byte("second"), data)
		plan, err := g.Render()
		require.NoError(t, err)
		require.Equal(t, []byte("second"), plan.Nodes[0].Fragment)
	})
	t.Run("empty graph renders", func(t *testing.T) {
		plan, err := distplan.NewPlanGraph().Render()
		require.NoError(t, err)
		require.Empty(t, plan.Nodes)
		require.Empty(t, plan.Edges)
		require.False(t, plan.Distributed)
	})
}

func TestRenderIsDeterministic(t *testing.T) {
	queryID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	build := func() *distplan.PlanGraph {
		g := distplan.NewPlanGraph()
		g.SetQueryID(queryID)
		for i := 0; i < 6; i++ {
			node, err := g.Get(g.AddNode(descriptor("n")))
			require.NoError(t, err)
			node.InstallFragment(staticFragment([]byte{byte('a' + i)}))
		}
		for _, e := range [][2]int64{{4, 5}, {0, 5}, {3, 5}, {1, 4}, {2, 4}, {0, 3}} {
			require.NoError(t, g.AddEdge(e[0], e[1]))
		}
		g.SetDistributed(true)
		return g
	}
	a, err := build().Render()
	require.NoError(t, err)
	b, err := build().Render()
	require.NoError(t, err)
	require.Equal(t, a, b)

	abytes, err := a.MarshalBinary()
	require.NoError(t, err)
	bbytes, err := b.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, abytes, bbytes)
	require.Equal(t, queryID, a.QueryID)
	require.Equal(t, planwire.Edge{From: 0, To: 3}, a.Edges[0])
}
