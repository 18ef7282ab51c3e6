package edit

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/editgrad/editgrad/internal/tensor"
)

// Verify performs a rigorous check of the module's GetParams/SetParams
// implementation for the named operation, invoked with the given arguments.
//
// Three checks run in order; the first fatal failure stops verification:
//
//  1. State preservation: invoking the operation must not change any
//     floating-point tensor reachable from the module (count, shapes, and
//     values within tolerance).
//  2. Declaration consistency: SetParams must consume exactly what GetParams
//     reports and a get/set/get round trip must be identity-stable per
//     position.
//  3. Gradient probing: fresh gradient-tracked clones replace every
//     reachable tensor, the operation runs, and the gradients of the summed
//     output decide which tensors the operation actually uses. Declared
//     tensors that are not floating-point members of the module, or that the
//     operation provably never uses, are fatal. Used-but-undeclared tensors
//     only produce a warning: the operation can still be correct when such a
//     tensor is never differentiated in practice.
//
// Fatal failures are reported as *ContractError.
func (e *Editor) Verify(method string, args ...any) error {
	if err := e.checkPreservesState(method, args); err != nil {
		return err
	}
	if err := e.checkGetSetMatch(method); err != nil {
		return err
	}
	return e.checkDeclaredParams(method, args)
}

// checkPreservesState asserts that invoking the operation leaves every
// reachable floating-point tensor unchanged.
func (e *Editor) checkPreservesState(method string, args []any) error {
	before, names, err := collectDepth(e.mod, e.maxDepth)
	if err != nil {
		return err
	}
	snapshots := make([]*tensor.Tensor, len(before))
	for i, t := range before {
		snapshots[i] = t.Clone()
	}

	if _, err := e.invoke(method, args); err != nil {
		return err
	}

	after, _, err := collectDepth(e.mod, e.maxDepth)
	if err != nil {
		return err
	}

	msg := "the operation does not preserve the object's float tensors"
	if len(before) != len(after) {
		return e.contractErr(method, "%s: %d tensors before, %d after", msg, len(before), len(after))
	}
	for i := range snapshots {
		if !snapshots[i].Shape().Equal(after[i].Shape()) {
			return e.contractErr(method, "%s: %s changed shape from %v to %v",
				msg, names[i], snapshots[i].Shape(), after[i].Shape())
		}
		if !tensor.AllClose(snapshots[i], after[i], e.rtol, e.atol) {
			return e.contractErr(method, "%s: %s changed value", msg, names[i])
		}
	}
	return nil
}

// checkGetSetMatch asserts that GetParams and SetParams agree on count and
// that a get/set/get round trip is identity-stable position by position.
func (e *Editor) checkGetSetMatch(method string) error {
	params0 := e.mod.GetParams(method)

	n, err := e.mod.SetParams(method, params0...)
	if err != nil {
		return e.contractErr(method, "SetParams failed on its own GetParams output: %v", err)
	}
	if n != len(params0) {
		return e.contractErr(method,
			"the number of parameters returned by GetParams and consumed by SetParams do not match (GetParams: %d, SetParams: %d)",
			len(params0), n)
	}

	params1 := e.mod.GetParams(method)
	if len(params1) != len(params0) {
		return e.contractErr(method,
			"GetParams returned %d parameters before SetParams and %d after", len(params0), len(params1))
	}
	for i := range params0 {
		if params0[i] != params1[i] {
			return e.contractErr(method, "parameter #%d does not survive a get/set/get round trip\n%s",
				i, e.localizeParam(method, params1, i))
		}
	}
	return nil
}

// checkDeclaredParams probes which tensors the operation actually uses and
// compares that against the declared parameter list.
func (e *Editor) checkDeclaredParams(method string, args []any) error {
	if e.prober == nil {
		return ErrNoProber
	}

	allTensors, allNames, err := collectDepth(e.mod, e.maxDepth)
	if err != nil {
		return err
	}

	// Replace every reachable tensor with an independent clone so gradients
	// attach to fresh leaves, not to the caller's tensors.
	clones := make([]*tensor.Tensor, len(allTensors))
	for i, t := range allTensors {
		clones[i] = t.Clone()
	}
	if err := installDepth(e.mod, clones, e.maxDepth); err != nil {
		return err
	}

	grads, probeErr := e.prober(clones, func() (*tensor.Tensor, error) {
		return e.invoke(method, args)
	})

	// Reinstall the originals before anything else can fail.
	if err := installDepth(e.mod, allTensors, e.maxDepth); err != nil {
		return err
	}
	if probeErr != nil {
		return probeErr
	}

	// Tensors whose clone received a gradient are the ones the operation
	// actually depends on.
	var operParams []*tensor.Tensor
	var operNames []string
	for i, g := range grads {
		if g == nil {
			continue
		}
		operParams = append(operParams, allTensors[i])
		operNames = append(operNames, allNames[i])
	}

	userParams := e.mod.GetParams(method)

	for i, p := range userParams {
		if p == nil || !p.DType().IsFloat() {
			return e.contractErr(method, "non-floating-point parameter detected at position #%d (%s)\n%s",
				i, describeTensor(p), e.localizeParam(method, userParams, i))
		}
	}

	// Used but undeclared: advisory only. The operation can still be correct
	// when the tensor is never set to require gradients.
	var missing []string
	for i, p := range operParams {
		if indexOfIdentity(userParams, p) < 0 {
			missing = append(missing, operNames[i])
		}
	}
	if len(missing) > 0 {
		e.logger.Warn("GetParams does not include tensors the operation uses",
			"class", className(e.mod), "method", method, "missing", strings.Join(missing, ", "))
	}

	// Declared but unused: fatal. A solver walking the backward graph for a
	// parameter that is never part of it may recurse forever.
	var excess []string
	for i, p := range userParams {
		if indexOfIdentity(operParams, p) >= 0 {
			continue
		}
		j := indexOfIdentity(allTensors, p)
		if j < 0 {
			return e.contractErr(method, "parameter #%d in GetParams is not a float tensor member of the object\n%s",
				i, e.localizeParam(method, userParams, i))
		}
		excess = append(excess, allNames[j])
	}
	if len(excess) > 0 {
		return e.contractErr(method, "GetParams has excess parameters: %s", strings.Join(excess, ", "))
	}
	return nil
}

// invoke calls the named exported method on the module via reflection.
// The method must return *tensor.Tensor or (*tensor.Tensor, error).
func (e *Editor) invoke(method string, args []any) (out *tensor.Tensor, err error) {
	m := reflect.ValueOf(e.mod).MethodByName(method)
	if !m.IsValid() {
		return nil, e.contractErr(method, "no such method on %T", e.mod)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = e.contractErr(method, "invoking the operation panicked: %v", r)
		}
	}()

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}
	results := m.Call(in)

	if len(results) == 0 {
		return nil, e.contractErr(method, "the operation returns no values")
	}
	if last := results[len(results)-1]; last.Type() == reflect.TypeOf((*error)(nil)).Elem() {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}
	t, ok := results[0].Interface().(*tensor.Tensor)
	if !ok || t == nil {
		return nil, e.contractErr(method, "the operation did not return a tensor (got %v)", results[0].Type())
	}
	return t, nil
}

// localizeParam builds a diagnostic aid for the i-th parameter: it replays
// SetParams with only the first i parameters and captures whatever failure
// that produces, which usually pinpoints the slot the position maps to.
func (e *Editor) localizeParam(method string, params []*tensor.Tensor, i int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "the position of parameter #%d (0-based) can be located by replaying SetParams with the first %d parameters:\n--------\n", i, i)
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(&b, "panic: %v\n%s", r, debug.Stack())
			}
		}()
		if _, err := e.mod.SetParams(method, params[:i]...); err != nil {
			b.WriteString(err.Error())
			b.WriteString("\n")
		} else {
			b.WriteString("SetParams accepted the truncated list without error\n")
		}
	}()
	return b.String()
}

// contractErr builds a ContractError naming the module's concrete type.
func (e *Editor) contractErr(method, format string, args ...any) *ContractError {
	return &ContractError{
		Class:  className(e.mod),
		Method: method,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// className returns the concrete (pointer-stripped) type name of v.
func className(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

// describeTensor renders a tensor for diagnostics, tolerating nil.
func describeTensor(t *tensor.Tensor) string {
	if t == nil {
		return "nil tensor"
	}
	return fmt.Sprintf("dtype %s", t.DType())
}
