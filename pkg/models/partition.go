package models

import (
	"fmt"
	"sort"
)

// Partition is one part of a k-way partition: an id and a set of member vertex ids.
type Partition struct {
	id          int
	members     map[int]struct{}
	vertexCount int
}

// NewPartition creates an empty partition.
func NewPartition(id int) *Partition {
	return &Partition{id: id, members: make(map[int]struct{})}
}

// ID returns the partition id.
func (p *Partition) ID() int { return p.id }

// VertexCount returns the cached member count.
func (p *Partition) VertexCount() int { return p.vertexCount }

// Contains reports whether v is a member.
func (p *Partition) Contains(v int) bool {
	_, ok := p.members[v]
	return ok
}

// AddNode inserts v. Inserting an existing member is a no-op and returns false.
func (p *Partition) AddNode(v int) bool {
	if _, ok := p.members[v]; ok {
		return false
	}
	p.members[v] = struct{}{}
	p.vertexCount++
	return true
}

// RemoveNode deletes v and reports whether it was a member.
func (p *Partition) RemoveNode(v int) bool {
	if _, ok := p.members[v]; !ok {
		return false
	}
	delete(p.members, v)
	p.vertexCount--
	return true
}

// Members returns the member ids in ascending order.
func (p *Partition) Members() []int {
	out := make([]int, 0, len(p.members))
	for v := range p.members {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func (p *Partition) clear() {
	p.members = make(map[int]struct{})
	p.vertexCount = 0
}

// PartitionData owns the ordered partitions of one partitioning attempt.
type PartitionData struct {
	partitions []*Partition
}

// NewPartitionData creates partsCount empty partitions with ids 0..partsCount-1.
func NewPartitionData(partsCount int) *PartitionData {
	pd := &PartitionData{}
	pd.Reset(partsCount)
	return pd
}

// NewPartitionDataFromGraph builds partition membership from the nodes' partIds.
// Nodes with an id outside [0, g.Partitions()) are left out.
func NewPartitionDataFromGraph(g *Graph) *PartitionData {
	pd := NewPartitionData(g.Partitions())
	for _, n := range g.Nodes() {
		if n.PartID() >= 0 && n.PartID() < pd.PartsCount() {
			pd.partitions[n.PartID()].AddNode(n.ID())
		}
	}
	return pd
}

// PartsCount returns the number of partitions.
func (pd *PartitionData) PartsCount() int { return len(pd.partitions) }

// Partitions returns the partitions ordered by id. The slice must not be modified.
func (pd *PartitionData) Partitions() []*Partition { return pd.partitions }

// Partition returns the partition with the given id.
func (pd *PartitionData) Partition(id int) (*Partition, error) {
	if id < 0 || id >= len(pd.partitions) {
		return nil, fmt.Errorf("%w: %d (parts=%d)", ErrPartitionOutOfRange, id, len(pd.partitions))
	}
	return pd.partitions[id], nil
}

// Size returns the vertex count of partition id without bounds checking.
func (pd *PartitionData) Size(id int) int { return pd.partitions[id].vertexCount }

// Sizes returns every partition's vertex count indexed by id.
func (pd *PartitionData) Sizes() []int {
	sizes := make([]int, len(pd.partitions))
	for i, p := range pd.partitions {
		sizes[i] = p.vertexCount
	}
	return sizes
}

// Reset empties every partition, rebuilding the list when partsCount differs.
func (pd *PartitionData) Reset(partsCount int) {
	if partsCount < 0 {
		partsCount = 0
	}
	if partsCount != len(pd.partitions) {
		pd.partitions = make([]*Partition, partsCount)
		for i := range pd.partitions {
			pd.partitions[i] = NewPartition(i)
		}
		return
	}
	for _, p := range pd.partitions {
		p.clear()
	}
}

// AddVertexToPartition inserts v into partition id without touching the node.
func (pd *PartitionData) AddVertexToPartition(id, v int) error {
	p, err := pd.Partition(id)
	if err != nil {
		return err
	}
	p.AddNode(v)
	return nil
}

// Assign moves v into partition id, updating the old partition, the new partition and the node together.
func (pd *PartitionData) Assign(g *Graph, v, id int) error {
	node, err := g.Node(v)
	if err != nil {
		return err
	}
	target, err := pd.Partition(id)
	if err != nil {
		return err
	}
	if old := node.PartID(); old >= 0 && old < len(pd.partitions) {
		pd.partitions[old].RemoveNode(v)
	}
	target.AddNode(v)
	node.SetPartID(id)
	return nil
}

// Unassign removes v from its partition and marks the node unassigned.
func (pd *PartitionData) Unassign(g *Graph, v int) error {
	node, err := g.Node(v)
	if err != nil {
		return err
	}
	if old := node.PartID(); old >= 0 && old < len(pd.partitions) {
		pd.partitions[old].RemoveNode(v)
	}
	node.SetPartID(Unassigned)
	return nil
}

// Verify checks that membership and node partIds agree in both directions.
func (pd *PartitionData) Verify(g *Graph) error {
	var errs ValidationErrors
	for _, n := range g.Nodes() {
		owners := 0
		for _, p := range pd.partitions {
			if p.Contains(n.ID()) {
				owners++
				if p.ID() != n.PartID() {
					errs = append(errs, ValidationError{
						Field:   "membership",
						Message: fmt.Sprintf("vertex %d is in partition %d but has partId %d", n.ID(), p.ID(), n.PartID()),
						Err:     ErrInconsistentPartition,
					})
				}
			}
		}
		if n.PartID() != Unassigned && owners == 0 {
			errs = append(errs, ValidationError{
				Field:   "membership",
				Message: fmt.Sprintf("vertex %d has partId %d but no partition contains it", n.ID(), n.PartID()),
				Err:     ErrInconsistentPartition,
			})
		}
	}
	for _, p := range pd.partitions {
		for v := range p.members {
			if v < 0 || v >= g.Vertices() {
				errs = append(errs, ValidationError{
					Field:   "membership",
					Message: fmt.Sprintf("partition %d contains unknown vertex %d", p.ID(), v),
					Err:     ErrVertexOutOfRange,
				})
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
