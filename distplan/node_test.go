package distplan_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/distplan/distplan"
)

func TestExecutionNode(t *testing.T) {
	g := distplan.NewPlanGraph()
	d := distplan.Descriptor{
		Name:               "pem-1",
		QueryBrokerAddress: "qb:50300",
		HasDataStore:       true,
	}
	node, err := g.Get(g.AddNode(d))
	require.NoError(t, err)

	t.Run("descriptor is a copy", func(t *testing.T) {
		copied := node.Descriptor()
		copied.Name = "changed"
		require.Equal(t, "pem-1", node.Descriptor().Name)
	})
	t.Run("role", func(t *testing.T) {
		require.True(t, node.Descriptor().IsAgent())
		require.False(t, distplan.Descriptor{AcceptsRemoteSources: true}.IsAgent())
	})
	t.Run("describe", func(t *testing.T) {
		require.Equal(t, "ExecutionNode(id=0, address=qb:50300)", node.String())
		empty := distplan.NewPlanGraph()
		n, err := empty.Get(empty.AddNode(distplan.Descriptor{}))
		require.NoError(t, err)
		require.Equal(t, "ExecutionNode(id=0, address=)", n.String())
	})
	t.Run("render without a fragment", func(t *testing.T) {
		require.False(t, node.HasFragment())
		require.Nil(t, node.Fragment())
		_, err := node.RenderFragment()
		require.ErrorIs(t, err, distplan.MissingFragmentError{})
	})
	t.Run("render is side effect free", func(t *testing.T) {
		node.InstallFragment(staticFragment("f"))
		first, err := node.RenderFragment()
		require.NoError(t, err)
		second, err := node.RenderFragment()
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.True(t, node.HasFragment())
	})
}
