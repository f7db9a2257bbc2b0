package distplan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wkalt/distplan/planwire"
)

////////////////////////////////////////////////////////////////////////////////

// Fragment is the portion of a query plan assigned to a single execution
// node. The plan graph knows nothing about its contents beyond how to
// render it.
type Fragment interface {
	// Render returns the wire encoding of the fragment.
	Render() ([]byte, error)
}

// Descriptor is the static physical metadata of an execution node, as
// supplied by the node catalog.
type Descriptor struct {
	Name                 string    `yaml:"name" json:"name"`
	QueryBrokerAddress   string    `yaml:"query_broker_address" json:"queryBrokerAddress"`
	AgentID              uuid.UUID `yaml:"agent_id" json:"agentId"`
	GRPCAddress          string    `yaml:"grpc_address" json:"grpcAddress"`
	HasGRPCServer        bool      `yaml:"has_grpc_server" json:"hasGrpcServer"`
	HasDataStore         bool      `yaml:"has_data_store" json:"hasDataStore"`
	ProcessesData        bool      `yaml:"processes_data" json:"processesData"`
	AcceptsRemoteSources bool      `yaml:"accepts_remote_sources" json:"acceptsRemoteSources"`
	ASID                 uint32    `yaml:"asid" json:"asid"`
}

// Address returns the address results are delivered to.
func (d Descriptor) Address() string {
	return d.QueryBrokerAddress
}

// IsAgent reports whether the node is an ingestion agent. Agents own a
// local data store; nodes without one only coordinate or merge.
func (d Descriptor) IsAgent() bool {
	return d.HasDataStore
}

func (d Descriptor) wire() planwire.NodeInfo {
	return planwire.NodeInfo{
		Name:                 d.Name,
		QueryBrokerAddress:   d.QueryBrokerAddress,
		AgentID:              d.AgentID,
		GRPCAddress:          d.GRPCAddress,
		HasGRPCServer:        d.HasGRPCServer,
		HasDataStore:         d.HasDataStore,
		ProcessesData:        d.ProcessesData,
		AcceptsRemoteSources: d.AcceptsRemoteSources,
		ASID:                 d.ASID,
	}
}

// ExecutionNode is one physical participant in a distributed plan. Nodes are
// created and owned by a PlanGraph.
type ExecutionNode struct {
	id         int64
	descriptor Descriptor
	fragment   Fragment
}

// ID returns the node's identifier within its plan graph.
func (n *ExecutionNode) ID() int64 {
	return n.id
}

// Descriptor returns a copy of the node's physical metadata.
func (n *ExecutionNode) Descriptor() Descriptor {
	return n.descriptor
}

// InstallFragment sets the node's fragment, replacing any previous one.
func (n *ExecutionNode) InstallFragment(f Fragment) {
	n.fragment = f
}

// Fragment returns the installed fragment, or nil.
func (n *ExecutionNode) Fragment() Fragment {
	return n.fragment
}

// HasFragment reports whether a fragment has been installed.
func (n *ExecutionNode) HasFragment() bool {
	return n.fragment != nil
}

// RenderFragment renders the installed fragment.
func (n *ExecutionNode) RenderFragment() ([]byte, error) {
	if n.fragment == nil {
		return nil, NewMissingFragmentError(n.id)
	}
	data, err := n.fragment.Render()
	if err != nil {
		return nil, NewSerializationError(n.id, err)
	}
	return data, nil
}

// String returns a short description of the node.
func (n *ExecutionNode) String() string {
	return fmt.Sprintf("ExecutionNode(id=%d, address=%s)", n.id, n.descriptor.Address())
}
