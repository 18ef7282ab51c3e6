package edit

import (
	"fmt"

	"github.com/editgrad/editgrad/internal/tensor"
)

// linearModel computes Forward(x) = w*x element-wise. w is declared; b is a
// reachable member the operation never touches.
type linearModel struct {
	backend tensor.Backend
	w       *tensor.Tensor
	b       *tensor.Tensor
}

func newLinearModel(backend tensor.Backend) *linearModel {
	w, _ := tensor.FromFloat32([]float32{2, 3}, tensor.Shape{2})
	b, _ := tensor.FromFloat32([]float32{1, 1}, tensor.Shape{2})
	return &linearModel{backend: backend, w: w, b: b}
}

func (m *linearModel) Forward(x *tensor.Tensor) *tensor.Tensor {
	return m.backend.Mul(m.w, x)
}

func (m *linearModel) GetParams(method string) []*tensor.Tensor {
	switch method {
	case "Forward":
		return []*tensor.Tensor{m.w}
	default:
		return nil
	}
}

func (m *linearModel) SetParams(method string, params ...*tensor.Tensor) (int, error) {
	switch method {
	case "Forward":
		if len(params) < 1 {
			return 0, fmt.Errorf("linearModel: Forward needs 1 parameter, got %d", len(params))
		}
		m.w = params[0]
		return 1, nil
	default:
		return 0, nil
	}
}

func (m *linearModel) Slots() []Slot {
	return []Slot{
		{Key: "w", Get: func() any { return m.w }, Set: func(v any) { m.w = v.(*tensor.Tensor) }},
		{Key: "b", Get: func() any { return m.b }, Set: func(v any) { m.b = v.(*tensor.Tensor) }},
	}
}

// affineModel computes Forward(x) = w*x + b but declares only w, so the
// verifier should flag b as missing (advisory).
type affineModel struct {
	linearModel
}

func newAffineModel(backend tensor.Backend) *affineModel {
	return &affineModel{linearModel: *newLinearModel(backend)}
}

func (m *affineModel) Forward(x *tensor.Tensor) *tensor.Tensor {
	return m.backend.Add(m.backend.Mul(m.w, x), m.b)
}

// overdeclaredModel ignores b in Forward but declares it anyway, which is an
// excess-parameter contract violation.
type overdeclaredModel struct {
	linearModel
}

func newOverdeclaredModel(backend tensor.Backend) *overdeclaredModel {
	return &overdeclaredModel{linearModel: *newLinearModel(backend)}
}

func (m *overdeclaredModel) GetParams(method string) []*tensor.Tensor {
	switch method {
	case "Forward":
		return []*tensor.Tensor{m.w, m.b}
	default:
		return nil
	}
}

func (m *overdeclaredModel) SetParams(method string, params ...*tensor.Tensor) (int, error) {
	switch method {
	case "Forward":
		if len(params) < 2 {
			return 0, fmt.Errorf("overdeclaredModel: Forward needs 2 parameters, got %d", len(params))
		}
		m.w, m.b = params[0], params[1]
		return 2, nil
	default:
		return 0, nil
	}
}

// foreignModel declares a tensor that is not reachable from the object graph.
type foreignModel struct {
	linearModel
	foreign *tensor.Tensor // deliberately absent from Slots
}

func newForeignModel(backend tensor.Backend) *foreignModel {
	foreign, _ := tensor.FromFloat32([]float32{4, 4}, tensor.Shape{2})
	return &foreignModel{linearModel: *newLinearModel(backend), foreign: foreign}
}

func (m *foreignModel) GetParams(method string) []*tensor.Tensor {
	switch method {
	case "Forward":
		return []*tensor.Tensor{m.w, m.foreign}
	default:
		return nil
	}
}

func (m *foreignModel) SetParams(method string, params ...*tensor.Tensor) (int, error) {
	switch method {
	case "Forward":
		if len(params) < 2 {
			return 0, fmt.Errorf("foreignModel: Forward needs 2 parameters, got %d", len(params))
		}
		m.w, m.foreign = params[0], params[1]
		return 2, nil
	default:
		return 0, nil
	}
}

// mutatingModel rewrites one of its tensors in place during Forward, which
// the state-preservation check must catch.
type mutatingModel struct {
	linearModel
}

func newMutatingModel(backend tensor.Backend) *mutatingModel {
	return &mutatingModel{linearModel: *newLinearModel(backend)}
}

func (m *mutatingModel) Forward(x *tensor.Tensor) *tensor.Tensor {
	m.w.AsFloat32()[0] += 1
	return m.backend.Mul(m.w, x)
}

// swappedModel crosses its slots in SetParams, breaking the get/set/get
// identity round trip.
type swappedModel struct {
	backend tensor.Backend
	w       *tensor.Tensor
	b       *tensor.Tensor
}

func newSwappedModel(backend tensor.Backend) *swappedModel {
	w, _ := tensor.FromFloat32([]float32{2, 3}, tensor.Shape{2})
	b, _ := tensor.FromFloat32([]float32{1, 1}, tensor.Shape{2})
	return &swappedModel{backend: backend, w: w, b: b}
}

func (m *swappedModel) Forward(x *tensor.Tensor) *tensor.Tensor {
	return m.backend.Add(m.backend.Mul(m.w, x), m.b)
}

func (m *swappedModel) GetParams(method string) []*tensor.Tensor {
	switch method {
	case "Forward":
		return []*tensor.Tensor{m.w, m.b}
	default:
		return nil
	}
}

func (m *swappedModel) SetParams(method string, params ...*tensor.Tensor) (int, error) {
	switch method {
	case "Forward":
		if len(params) < 2 {
			return 0, fmt.Errorf("swappedModel: Forward needs 2 parameters, got %d", len(params))
		}
		m.w, m.b = params[1], params[0] // crossed on purpose
		return 2, nil
	default:
		return 0, nil
	}
}

func (m *swappedModel) Slots() []Slot {
	return []Slot{
		{Key: "w", Get: func() any { return m.w }, Set: func(v any) { m.w = v.(*tensor.Tensor) }},
		{Key: "b", Get: func() any { return m.b }, Set: func(v any) { m.b = v.(*tensor.Tensor) }},
	}
}

// miscountModel reports one more consumed parameter than GetParams declares.
type miscountModel struct {
	linearModel
}

func newMiscountModel(backend tensor.Backend) *miscountModel {
	return &miscountModel{linearModel: *newLinearModel(backend)}
}

func (m *miscountModel) SetParams(method string, params ...*tensor.Tensor) (int, error) {
	n, err := m.linearModel.SetParams(method, params...)
	return n + 1, err
}

// aliasedModel exposes the full list [a, b, a, c] for its Combine operation,
// with a repeated by identity.
type aliasedModel struct {
	backend tensor.Backend
	a, b, c *tensor.Tensor
}

func newAliasedModel(backend tensor.Backend) *aliasedModel {
	a, _ := tensor.FromFloat32([]float32{1, 1}, tensor.Shape{2})
	b, _ := tensor.FromFloat32([]float32{2, 2}, tensor.Shape{2})
	c, _ := tensor.FromFloat32([]float32{3, 3}, tensor.Shape{2})
	return &aliasedModel{backend: backend, a: a, b: b, c: c}
}

func (m *aliasedModel) Combine() *tensor.Tensor {
	// a participates twice, matching its two positions in the full list.
	return m.backend.Add(m.backend.Mul(m.a, m.a), m.backend.Mul(m.b, m.c))
}

func (m *aliasedModel) GetParams(method string) []*tensor.Tensor {
	switch method {
	case "Combine":
		return []*tensor.Tensor{m.a, m.b, m.a, m.c}
	default:
		return nil
	}
}

func (m *aliasedModel) SetParams(method string, params ...*tensor.Tensor) (int, error) {
	switch method {
	case "Combine":
		if len(params) < 4 {
			return 0, fmt.Errorf("aliasedModel: Combine needs 4 parameters, got %d", len(params))
		}
		m.a, m.b, m.c = params[0], params[1], params[3]
		return 4, nil
	default:
		return 0, nil
	}
}

func (m *aliasedModel) Slots() []Slot {
	return []Slot{
		{Key: "a", Get: func() any { return m.a }, Set: func(v any) { m.a = v.(*tensor.Tensor) }},
		{Key: "b", Get: func() any { return m.b }, Set: func(v any) { m.b = v.(*tensor.Tensor) }},
		{Key: "c", Get: func() any { return m.c }, Set: func(v any) { m.c = v.(*tensor.Tensor) }},
	}
}

// Traversal-only fixtures.

// block is a leaf container holding a single weight.
type block struct {
	weight *tensor.Tensor
}

func (b *block) Slots() []Slot {
	return []Slot{
		{Key: "weight", Get: func() any { return b.weight }, Set: func(v any) { b.weight = v.(*tensor.Tensor) }},
	}
}

// deepModel nests tensors inside slices, maps, and sub-containers, plus
// values the traversal must skip.
type deepModel struct {
	layers []*block
	lookup map[string]*tensor.Tensor
	scale  *tensor.Tensor
	labels []string
	steps  int
	ints   *tensor.Tensor // non-float tensor, must be invisible
}

func (m *deepModel) Slots() []Slot {
	return []Slot{
		{Key: "layers", Get: func() any { return m.layers }, Set: func(v any) { m.layers = v.([]*block) }},
		{Key: "lookup", Get: func() any { return m.lookup }, Set: func(v any) { m.lookup = v.(map[string]*tensor.Tensor) }},
		{Key: "scale", Get: func() any { return m.scale }, Set: func(v any) { m.scale = v.(*tensor.Tensor) }},
		{Key: "labels", Get: func() any { return m.labels }, Set: func(v any) { m.labels = v.([]string) }},
		{Key: "steps", Get: func() any { return m.steps }, Set: func(v any) { m.steps = v.(int) }},
		{Key: "ints", Get: func() any { return m.ints }, Set: func(v any) { m.ints = v.(*tensor.Tensor) }},
	}
}

// cyclic fixtures: two nodes referencing each other.
type nodeA struct {
	t    *tensor.Tensor
	peer *nodeB
}

func (n *nodeA) Slots() []Slot {
	return []Slot{
		{Key: "t", Get: func() any { return n.t }, Set: func(v any) { n.t = v.(*tensor.Tensor) }},
		{Key: "peer", Get: func() any { return n.peer }, Set: func(v any) { n.peer = v.(*nodeB) }},
	}
}

type nodeB struct {
	t    *tensor.Tensor
	peer *nodeA
}

func (n *nodeB) Slots() []Slot {
	return []Slot{
		{Key: "t", Get: func() any { return n.t }, Set: func(v any) { n.t = v.(*tensor.Tensor) }},
		{Key: "peer", Get: func() any { return n.peer }, Set: func(v any) { n.peer = v.(*nodeA) }},
	}
}

// chainNode builds arbitrarily deep linear graphs for depth-bound tests.
type chainNode struct {
	t    *tensor.Tensor
	next *chainNode
}

func (n *chainNode) Slots() []Slot {
	slots := []Slot{
		{Key: "t", Get: func() any { return n.t }, Set: func(v any) { n.t = v.(*tensor.Tensor) }},
	}
	if n.next != nil {
		slots = append(slots, Slot{Key: "next", Get: func() any { return n.next }, Set: func(v any) { n.next = v.(*chainNode) }})
	}
	return slots
}

func newChain(depth int) *chainNode {
	head := &chainNode{t: tensor.Ones(tensor.Shape{1}, tensor.Float32)}
	node := head
	for i := 1; i < depth; i++ {
		node.next = &chainNode{t: tensor.Ones(tensor.Shape{1}, tensor.Float32)}
		node = node.next
	}
	return head
}
