package planwire

import (
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

/*
Binary encoding of the plan message. The layout is protobuf wire format so
that receivers in other languages can decode it with a generated message of
the following shape:

	message DistributedPlan {
	  uint32 version = 1;
	  bytes query_id = 2;
	  bool distributed = 3;
	  repeated PlanNode nodes = 4;
	  repeated Edge edges = 5;
	}
	message PlanNode { int64 id = 1; NodeInfo info = 2; bytes fragment = 3; }
	message Edge { int64 from = 1; int64 to = 2; }
	message NodeInfo {
	  string name = 1;
	  string query_broker_address = 2;
	  bytes agent_id = 3;
	  string grpc_address = 4;
	  bool has_grpc_server = 5;
	  bool has_data_store = 6;
	  bool processes_data = 7;
	  bool accepts_remote_sources = 8;
	  uint32 asid = 9;
	}

Zero values are omitted and fields are always written in field number
order, so equal messages encode to equal bytes.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	planVersionField     protowire.Number = 1
	planQueryIDField     protowire.Number = 2
	planDistributedField protowire.Number = 3
	planNodesField       protowire.Number = 4
	planEdgesField       protowire.Number = 5

	nodeIDField       protowire.Number = 1
	nodeInfoField     protowire.Number = 2
	nodeFragmentField protowire.Number = 3

	edgeFromField protowire.Number = 1
	edgeToField   protowire.Number = 2

	infoNameField                 protowire.Number = 1
	infoQueryBrokerAddressField   protowire.Number = 2
	infoAgentIDField              protowire.Number = 3
	infoGRPCAddressField          protowire.Number = 4
	infoHasGRPCServerField        protowire.Number = 5
	infoHasDataStoreField         protowire.Number = 6
	infoProcessesDataField        protowire.Number = 7
	infoAcceptsRemoteSourcesField protowire.Number = 8
	infoASIDField                 protowire.Number = 9
)

// MarshalBinary encodes the plan in protobuf wire format.
func (p *DistributedPlan) MarshalBinary() ([]byte, error) {
	return p.marshal(nil), nil
}

// UnmarshalBinary decodes a plan from protobuf wire format. Unknown fields
// are skipped. A version other than Version is rejected.
func (p *DistributedPlan) UnmarshalBinary(data []byte) error {
	var plan DistributedPlan
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case planVersionField:
			v, n, err := consumeVarint(typ, b)
			plan.Version = uint32(v)
			return n, err
		case planQueryIDField:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return n, fmt.Errorf("%w: invalid query id: %w", ErrMalformedPlan, err)
			}
			plan.QueryID = id
			return n, nil
		case planDistributedField:
			v, n, err := consumeVarint(typ, b)
			plan.Distributed = protowire.DecodeBool(v)
			return n, err
		case planNodesField:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			node, err := unmarshalNode(v)
			if err != nil {
				return n, err
			}
			plan.Nodes = append(plan.Nodes, node)
			return n, nil
		case planEdgesField:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			edge, err := unmarshalEdge(v)
			if err != nil {
				return n, err
			}
			plan.Edges = append(plan.Edges, edge)
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return err
	}
	if plan.Version != Version {
		return NewUnsupportedVersionError(plan.Version)
	}
	if plan.Nodes == nil {
		plan.Nodes = []PlanNode{}
	}
	if plan.Edges == nil {
		plan.Edges = []Edge{}
	}
	*p = plan
	return nil
}

func (p *DistributedPlan) marshal(b []byte) []byte {
	b = appendVarint(b, planVersionField, uint64(p.Version))
	if p.QueryID != uuid.Nil {
		b = appendBytes(b, planQueryIDField, p.QueryID[:])
	}
	b = appendBool(b, planDistributedField, p.Distributed)
	for _, node := range p.Nodes {
		b = appendMessage(b, planNodesField, node.marshal(nil))
	}
	for _, edge := range p.Edges {
		b = appendMessage(b, planEdgesField, edge.marshal(nil))
	}
	return b
}

func (n PlanNode) marshal(b []byte) []byte {
	b = appendVarint(b, nodeIDField, uint64(n.ID))
	b = appendBytes(b, nodeInfoField, n.Info.marshal(nil))
	b = appendBytes(b, nodeFragmentField, n.Fragment)
	return b
}

func (e Edge) marshal(b []byte) []byte {
	b = appendVarint(b, edgeFromField, uint64(e.From))
	b = appendVarint(b, edgeToField, uint64(e.To))
	return b
}

func (i NodeInfo) marshal(b []byte) []byte {
	b = appendBytes(b, infoNameField, []byte(i.Name))
	b = appendBytes(b, infoQueryBrokerAddressField, []byte(i.QueryBrokerAddress))
	if i.AgentID != uuid.Nil {
		b = appendBytes(b, infoAgentIDField, i.AgentID[:])
	}
	b = appendBytes(b, infoGRPCAddressField, []byte(i.GRPCAddress))
	b = appendBool(b, infoHasGRPCServerField, i.HasGRPCServer)
	b = appendBool(b, infoHasDataStoreField, i.HasDataStore)
	b = appendBool(b, infoProcessesDataField, i.ProcessesData)
	b = appendBool(b, infoAcceptsRemoteSourcesField, i.AcceptsRemoteSources)
	b = appendVarint(b, infoASIDField, uint64(i.ASID))
	return b
}

func unmarshalNode(data []byte) (PlanNode, error) {
	var node PlanNode
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case nodeIDField:
			v, n, err := consumeVarint(typ, b)
			node.ID = int64(v)
			return n, err
		case nodeInfoField:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			info, err := unmarshalInfo(v)
			node.Info = info
			return n, err
		case nodeFragmentField:
			v, n, err := consumeBytes(typ, b)
			node.Fragment = append([]byte{}, v...)
			return n, err
		}
		return -1, nil
	})
	return node, err
}

func unmarshalEdge(data []byte) (Edge, error) {
	var edge Edge
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case edgeFromField:
			v, n, err := consumeVarint(typ, b)
			edge.From = int64(v)
			return n, err
		case edgeToField:
			v, n, err := consumeVarint(typ, b)
			edge.To = int64(v)
			return n, err
		}
		return -1, nil
	})
	return edge, err
}

func unmarshalInfo(data []byte) (NodeInfo, error) {
	var info NodeInfo
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case infoNameField:
			v, n, err := consumeBytes(typ, b)
			info.Name = string(v)
			return n, err
		case infoQueryBrokerAddressField:
			v, n, err := consumeBytes(typ, b)
			info.QueryBrokerAddress = string(v)
			return n, err
		case infoAgentIDField:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return n, fmt.Errorf("%w: invalid agent id: %w", ErrMalformedPlan, err)
			}
			info.AgentID = id
			return n, nil
		case infoGRPCAddressField:
			v, n, err := consumeBytes(typ, b)
			info.GRPCAddress = string(v)
			return n, err
		case infoHasGRPCServerField:
			v, n, err := consumeVarint(typ, b)
			info.HasGRPCServer = protowire.DecodeBool(v)
			return n, err
		case infoHasDataStoreField:
			v, n, err := consumeVarint(typ, b)
			info.HasDataStore = protowire.DecodeBool(v)
			return n, err
		case infoProcessesDataField:
			v, n, err := consumeVarint(typ, b)
			info.ProcessesData = protowire.DecodeBool(v)
			return n, err
		case infoAcceptsRemoteSourcesField:
			v, n, err := consumeVarint(typ, b)
			info.AcceptsRemoteSources = protowire.DecodeBool(v)
			return n, err
		case infoASIDField:
			v, n, err := consumeVarint(typ, b)
			info.ASID = uint32(v)
			return n, err
		}
		return -1, nil
	})
	return info, err
}

// consumeFields iterates the fields of an encoded message. f consumes the
// value of a field it recognizes and returns the number of bytes read, or
// returns -1 to have the field skipped.
func consumeFields(
	data []byte,
	f func(num protowire.Number, typ protowire.Type, b []byte) (int, error),
) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedPlan, protowire.ParseError(n))
		}
		data = data[n:]
		m, err := f(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedPlan, protowire.ParseError(m))
			}
		}
		data = data[m:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: expected varint, got wire type %d", ErrMalformedPlan, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: %w", ErrMalformedPlan, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: expected bytes, got wire type %d", ErrMalformedPlan, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedPlan, protowire.ParseError(n))
	}
	return v, n, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	return appendMessage(b, num, v)
}

// appendMessage writes a length-delimited field even when it is empty.
// Elements of repeated fields must always be present.
func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
