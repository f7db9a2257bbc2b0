package publish

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/wkalt/distplan/planwire"
	"github.com/wkalt/distplan/storage"
	"github.com/wkalt/distplan/util"
	"github.com/wkalt/distplan/util/log"
	"golang.org/x/sync/errgroup"
)

/*
Package publish distributes rendered plans through a storage provider. A plan
for query q is laid out as

	q/plan.bin         binary plan message
	q/plan.json        the same message as JSON, for inspection
	q/nodes/<id>.json  one assignment per execution node

plan.bin is written only after every other object has been stored, so a
reader that finds it can rely on the rest of the layout being present.
*/

////////////////////////////////////////////////////////////////////////////////

const defaultConcurrency = 8

// Assignment is the portion of a plan addressed to a single node: its entry
// plus the ids of the nodes it exchanges data with.
type Assignment struct {
	QueryID    uuid.UUID         `json:"queryId"`
	Node       planwire.PlanNode `json:"node"`
	Upstream   []int64           `json:"upstream"`
	Downstream []int64           `json:"downstream"`
}

// Publisher writes rendered plans to a storage provider.
type Publisher struct {
	store       storage.Provider
	concurrency int
}

// NewPublisher constructs a new publisher.
func NewPublisher(store storage.Provider, opts ...PublishOption) *Publisher {
	options := PublishOptions{Concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&options)
	}
	return &Publisher{store: store, concurrency: options.Concurrency}
}

// PlanKey returns the key of the binary plan for a query.
func PlanKey(queryID uuid.UUID) string {
	return path.Join(queryID.String(), "plan.bin")
}

// PlanJSONKey returns the key of the JSON plan for a query.
func PlanJSONKey(queryID uuid.UUID) string {
	return path.Join(queryID.String(), "plan.json")
}

// AssignmentKey returns the key of a node's assignment.
func AssignmentKey(queryID uuid.UUID, nodeID int64) string {
	return path.Join(queryID.String(), "nodes", strconv.FormatInt(nodeID, 10)+".json")
}

// Assignments splits a plan into per-node assignments, in ascending node id
// order.
func Assignments(plan *planwire.DistributedPlan) []Assignment {
	upstream := util.GroupBy(plan.Edges, func(e planwire.Edge) int64 { return e.To })
	downstream := util.GroupBy(plan.Edges, func(e planwire.Edge) int64 { return e.From })
	assignments := make([]Assignment, len(plan.Nodes))
	for i, node := range plan.Nodes {
		a := Assignment{
			QueryID:    plan.QueryID,
			Node:       node,
			Upstream:   []int64{},
			Downstream: []int64{},
		}
		for _, e := range upstream[node.ID] {
			a.Upstream = append(a.Upstream, e.From)
		}
		for _, e := range downstream[node.ID] {
			a.Downstream = append(a.Downstream, e.To)
		}
		assignments[i] = a
	}
	return assignments
}

// Publish stores the plan and its per-node assignments. The plan must carry a
// query id.
func (p *Publisher) Publish(ctx context.Context, plan *planwire.DistributedPlan) error {
	if plan.QueryID == uuid.Nil {
		return ErrMissingQueryID
	}
	ctx = log.AddTags(ctx, "query", plan.QueryID.String(), "store", p.store.String())
	defer log.Time(ctx, "publish plan")()

	bin, err := plan.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := plan.WriteJSON(buf); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	g.Go(func() error {
		return p.put(gctx, PlanJSONKey(plan.QueryID), buf.Bytes())
	})
	for _, assignment := range Assignments(plan) {
		assignment := assignment
		g.Go(func() error {
			data, err := json.Marshal(assignment)
			if err != nil {
				return fmt.Errorf("failed to encode assignment for node %d: %w", assignment.Node.ID, err)
			}
			return p.put(gctx, AssignmentKey(plan.QueryID, assignment.Node.ID), data)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := p.put(ctx, PlanKey(plan.QueryID), bin); err != nil {
		return err
	}
	log.Infow(ctx, "published plan",
		"nodes", len(plan.Nodes),
		"edges", len(plan.Edges),
		"size", util.HumanBytes(uint64(len(bin))),
		"fingerprint", plan.Fingerprint(),
	)
	return nil
}

func (p *Publisher) put(ctx context.Context, key string, data []byte) error {
	if err := p.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	log.Debugw(ctx, "stored object", "key", key, "size", len(data))
	return nil
}

// Fetch reads back the binary plan for a query.
func (p *Publisher) Fetch(ctx context.Context, queryID uuid.UUID) (*planwire.DistributedPlan, error) {
	data, err := p.store.Get(ctx, PlanKey(queryID))
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %s: %w", queryID, err)
	}
	plan := &planwire.DistributedPlan{}
	if err := plan.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", queryID, err)
	}
	return plan, nil
}

// FetchAssignment reads back the assignment of a single node.
func (p *Publisher) FetchAssignment(ctx context.Context, queryID uuid.UUID, nodeID int64) (*Assignment, error) {
	key := AssignmentKey(queryID, nodeID)
	data, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	assignment := &Assignment{}
	if err := json.Unmarshal(data, assignment); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return assignment, nil
}
