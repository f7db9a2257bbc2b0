package planwire

import (
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

/*
Package planwire defines the message a distributed plan is rendered into
before it is handed to transport. The message is a plain value: it does not
reference the in-memory plan graph, and its binary layout is fixed by the
protobuf field numbers in encoding.go rather than by Go struct layout.
Changing the meaning of a field requires bumping Version.
*/

////////////////////////////////////////////////////////////////////////////////

// Version is the current wire format version.
const Version uint32 = 1

// NodeInfo describes the physical participant an entry is assigned to.
type NodeInfo struct {
	Name                 string    `json:"name,omitempty"`
	QueryBrokerAddress   string    `json:"queryBrokerAddress"`
	AgentID              uuid.UUID `json:"agentId"`
	GRPCAddress          string    `json:"grpcAddress,omitempty"`
	HasGRPCServer        bool      `json:"hasGrpcServer"`
	HasDataStore         bool      `json:"hasDataStore"`
	ProcessesData        bool      `json:"processesData"`
	AcceptsRemoteSources bool      `json:"acceptsRemoteSources"`
	ASID                 uint32    `json:"asid"`
}

// PlanNode pairs a node id with its descriptor and rendered fragment.
type PlanNode struct {
	ID       int64    `json:"id"`
	Info     NodeInfo `json:"info"`
	Fragment []byte   `json:"fragment"`
}

// Edge is a data-flow dependency: From produces input for To.
type Edge struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// DistributedPlan is the complete rendered plan.
type DistributedPlan struct {
	Version     uint32     `json:"version"`
	QueryID     uuid.UUID  `json:"queryId"`
	Distributed bool       `json:"distributed"`
	Nodes       []PlanNode `json:"nodes"`
	Edges       []Edge     `json:"edges"`
}

// Node returns the entry with the given id.
func (p *DistributedPlan) Node(id int64) (PlanNode, bool) {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return PlanNode{}, false
}

// Fingerprint returns a 64-bit hash of the binary encoding. Two messages
// with the same fingerprint are, for practical purposes, the same plan.
func (p *DistributedPlan) Fingerprint() uint64 {
	return murmur3.Sum64(p.marshal(nil))
}
