package edit

import (
	"fmt"
	"log/slog"

	"github.com/editgrad/editgrad/internal/tensor"
)

// GradProber is the injected differentiation capability used by Verify.
//
// A prober runs the supplied closure, reduces the tensor it returns to a
// scalar, and computes the gradient of that scalar with respect to each
// leaf. Leaves the output does not depend on get a nil gradient.
type GradProber func(leaves []*tensor.Tensor, run func() (*tensor.Tensor, error)) ([]*tensor.Tensor, error)

// Editor provides parameter deduplication, scoped substitution, and contract
// verification for a single Module instance.
//
// The per-operation unique-index cache assumes the identity structure of
// GetParams is stable for a given operation: the same positions alias the
// same tensors call after call. If a module ever changes that structure,
// Invalidate must be called before the next unique-parameter operation.
//
// An Editor is not safe for concurrent use; the module's object graph must
// be exclusively owned by the calling goroutine for the duration of any call.
type Editor struct {
	mod      Module
	maxDepth int
	logger   *slog.Logger
	prober   GradProber
	rtol     float64
	atol     float64

	uniqueIdxs map[string][]int   // per method: positions of first occurrences
	uniqueMaps map[string][][]int // per method: unique position -> all aliased positions
	numParams  map[string]int     // per method: full parameter list length
}

// Option configures an Editor.
type Option func(*Editor)

// WithMaxDepth sets the traversal depth budget (default DefaultMaxDepth).
func WithMaxDepth(depth int) Option {
	return func(e *Editor) { e.maxDepth = depth }
}

// WithLogger sets the logger used for advisory warnings and substitution
// failure traces (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithProber sets the gradient-probing capability required by Verify.
func WithProber(p GradProber) Option {
	return func(e *Editor) { e.prober = p }
}

// WithTolerance sets the relative and absolute tolerances for the verifier's
// state-preservation comparison.
func WithTolerance(rtol, atol float64) Option {
	return func(e *Editor) { e.rtol, e.atol = rtol, atol }
}

// NewEditor creates an Editor for the given module.
func NewEditor(m Module, opts ...Option) *Editor {
	e := &Editor{
		mod:        m,
		maxDepth:   DefaultMaxDepth,
		logger:     slog.Default(),
		rtol:       tensor.DefaultRtol,
		atol:       tensor.DefaultAtol,
		uniqueIdxs: make(map[string][]int),
		uniqueMaps: make(map[string][][]int),
		numParams:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Module returns the module under edit.
func (e *Editor) Module() Module {
	return e.mod
}

// UniqueParams returns the identity-deduplicated subset of the module's full
// parameter list for the named operation, in first-occurrence order.
func (e *Editor) UniqueParams(method string) []*tensor.Tensor {
	all := e.mod.GetParams(method)
	idxs := e.uniqueIndices(method, all)
	unique := make([]*tensor.Tensor, len(idxs))
	for i, idx := range idxs {
		if idx >= len(all) {
			panic(fmt.Sprintf("edit: stale unique-index cache for %q: index %d out of %d parameters (call Invalidate after changing the parameter structure)", method, idx, len(all)))
		}
		unique[i] = all[idx]
	}
	return unique
}

// SetUniqueParams installs one replacement per unique parameter, broadcasting
// each to every aliased position of its group, then delegates to the module's
// SetParams. Returns the count SetParams consumed.
func (e *Editor) SetUniqueParams(method string, unique ...*tensor.Tensor) (int, error) {
	if _, ok := e.uniqueMaps[method]; !ok {
		e.uniqueIndices(method, nil)
	}
	groups := e.uniqueMaps[method]
	if len(unique) > len(groups) {
		return 0, &ContractError{
			Class:  className(e.mod),
			Method: method,
			Msg:    fmt.Sprintf("SetUniqueParams given %d tensors but only %d unique parameter groups exist", len(unique), len(groups)),
		}
	}

	all := make([]*tensor.Tensor, e.numParams[method])
	for j, p := range unique {
		for _, i := range groups[j] {
			all[i] = p
		}
	}
	return e.mod.SetParams(method, all...)
}

// Invalidate drops the cached unique-index structure for the named operation.
// Call it when the identity set GetParams returns has changed.
func (e *Editor) Invalidate(method string) {
	delete(e.uniqueIdxs, method)
	delete(e.uniqueMaps, method)
	delete(e.numParams, method)
}

// WithParams installs the given unique parameters for the named operation,
// runs fn, and restores the original unique parameters afterwards — on
// normal completion, on error, and on panic alike.
//
// An error from fn is traced to the logger and returned after restoration;
// it is not swallowed.
func (e *Editor) WithParams(method string, params []*tensor.Tensor, fn func() error) (err error) {
	orig := e.UniqueParams(method)
	if _, err = e.SetUniqueParams(method, params...); err != nil {
		return fmt.Errorf("edit: substituting parameters for %q: %w", method, err)
	}

	defer func() {
		if _, rerr := e.SetUniqueParams(method, orig...); rerr != nil {
			rerr = fmt.Errorf("edit: restoring parameters for %q: %w", method, rerr)
			if err == nil {
				err = rerr
			} else {
				e.logger.Error("parameter restoration failed", "method", method, "error", rerr)
			}
		}
	}()

	if err = fn(); err != nil {
		e.logger.Error("scoped substitution body failed", "method", method, "error", err)
		return err
	}
	return nil
}

// uniqueIndices computes (or returns the cached) first-occurrence positions
// of each distinct tensor identity in the full parameter list, along with the
// position groups sharing each identity.
//
// Identity matching is a linear scan of the seen list; parameter lists are
// expected to be small.
func (e *Editor) uniqueIndices(method string, allParams []*tensor.Tensor) []int {
	if idxs, ok := e.uniqueIdxs[method]; ok {
		return idxs
	}
	if allParams == nil {
		allParams = e.mod.GetParams(method)
	}

	var (
		seen   []*tensor.Tensor
		idxs   []int
		groups [][]int
	)
	for i, p := range allParams {
		if j := indexOfIdentity(seen, p); j >= 0 {
			groups[j] = append(groups[j], i)
			continue
		}
		seen = append(seen, p)
		idxs = append(idxs, i)
		groups = append(groups, []int{i})
	}

	e.numParams[method] = len(allParams)
	e.uniqueIdxs[method] = idxs
	e.uniqueMaps[method] = groups
	return idxs
}

// indexOfIdentity returns the position of p in list by pointer identity,
// or -1 when absent.
func indexOfIdentity(list []*tensor.Tensor, p *tensor.Tensor) int {
	for i, q := range list {
		if q == p {
			return i
		}
	}
	return -1
}
