package activation

import (
	"context"
	"reflect"
	"time"

	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/graph"
	"github.com/weftlab/weft/pkg/metadata"
	"github.com/weftlab/weft/pkg/observability"
	"github.com/weftlab/weft/pkg/ref"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Engine answers contract queries against one graph, producing deferred
// activation descriptors. Engines are read-only after construction and safe
// for concurrent use.
type Engine struct {
	graph      *graph.Graph
	rt         *ref.Runtime
	byContract map[string][]*Activation
}

// NewEngine indexes the graph's instantiable exports by contract.
func NewEngine(g *graph.Graph, rt *ref.Runtime) *Engine {
	e := &Engine{
		graph:      g,
		rt:         rt,
		byContract: make(map[string][]*Activation),
	}
	for _, p := range g.Parts() {
		if !p.Instantiable() {
			continue
		}
		for _, ex := range p.Exports {
			e.byContract[ex.Contract] = append(e.byContract[ex.Contract], &Activation{
				engine: e,
				part:   p,
				export: ex,
			})
		}
	}
	return e
}

// Graph returns the graph this engine activates against.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// ExportsFor returns the activation candidates for a contract, in graph
// order. No candidates is a valid outcome and yields an empty slice; callers
// enforce whatever cardinality their import site requires.
func (e *Engine) ExportsFor(contract string) []*Activation {
	list := e.byContract[contract]
	out := make([]*Activation, len(list))
	copy(out, list)
	return out
}

// Activation is a deferred handle on one exported value. Nothing is
// instantiated until Activate runs.
type Activation struct {
	engine *Engine
	part   *graph.Part
	export *graph.Export
}

// Part returns the part that would be instantiated.
func (a *Activation) Part() *graph.Part { return a.part }

// Export returns the export this activation produces.
func (a *Activation) Export() *graph.Export { return a.export }

// Boundary returns the effective sharing boundary: the part's own boundary,
// or empty when the part is non-shared.
func (a *Activation) Boundary() string { return a.part.SharingBoundary }

// Metadata returns a resolving view over the export's metadata.
func (a *Activation) Metadata() *metadata.View {
	return metadata.NewView(a.export.Metadata, a.engine.rt)
}

// Activate produces the exported value, instantiating the part (or retrieving
// its shared instance from the scope) and everything it transitively imports.
func (a *Activation) Activate(scope *Scope) (any, error) {
	start := time.Now()
	v, err := newRequest(a.engine, scope).exportValue(a.export, false)
	observability.Activation().OnActivation(context.Background(), a.export.Contract, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// =============================================================================
// Activation request
// =============================================================================

// request carries the per-activation scratch state. The provisional table
// holds instances that exist but have not finished member population; it is
// what lets a dependency cycle through member imports terminate.
type request struct {
	engine      *Engine
	scope       *Scope
	provisional map[ref.TypeRef]any
	building    map[ref.TypeRef]bool
}

func newRequest(e *Engine, s *Scope) *request {
	return &request{
		engine:      e,
		scope:       s,
		provisional: make(map[ref.TypeRef]any),
		building:    make(map[ref.TypeRef]bool),
	}
}

// exportValue activates the export's part as needed and extracts the exported
// value: the instance itself, or the named field or method result.
func (r *request) exportValue(ex *graph.Export, forceNew bool) (reflect.Value, error) {
	p, err := r.engine.graph.PartFor(ex)
	if err != nil {
		return reflect.Value{}, err
	}
	inst, err := r.partInstance(p, forceNew)
	if err != nil {
		return reflect.Value{}, err
	}
	if !ex.FromMember() {
		return reflect.ValueOf(inst), nil
	}

	switch ex.Member.Kind {
	case ref.MemberField:
		f, err := r.engine.rt.ResolveField(ex.Member)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.ValueOf(inst)
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		return v.FieldByIndex(f.Index), nil
	case ref.MemberMethod:
		m := reflect.ValueOf(inst).MethodByName(ex.Member.Name)
		if !m.IsValid() {
			return reflect.Value{}, errors.New(errors.ErrCodeUnresolvedReference,
				"instance of %s has no method %s", ex.Declaring, ex.Member.Name)
		}
		out := m.Call(nil)
		if len(out) == 0 {
			return reflect.Value{}, errors.New(errors.ErrCodeUnresolvedReference,
				"export method %s returns no value", ex.Member)
		}
		return out[0], nil
	default:
		return reflect.Value{}, errors.New(errors.ErrCodeUnresolvedReference,
			"export member %s has unknown kind", ex.Member)
	}
}

// partInstance returns a live instance of p, honoring sharing unless the
// requesting import forces a fresh instance.
func (r *request) partInstance(p *graph.Part, forceNew bool) (any, error) {
	if !p.Instantiable() {
		return nil, errors.New(errors.ErrCodeNotInstantiable,
			"part %s has no activator and cannot be instantiated", p.Type)
	}
	// A provisional hit means this part is mid-population somewhere up the
	// call stack; handing it out now is what breaks member-import cycles.
	if inst, ok := r.provisional[p.Type]; ok {
		return inst, nil
	}
	if r.building[p.Type] {
		return nil, errors.New(errors.ErrCodeUnsatisfiableImport,
			"activator-argument dependency cycle through part %s", p.Type)
	}
	if p.Shared() && !forceNew {
		key := instanceKey{boundary: p.SharingBoundary, part: p.Type}
		return r.scope.getOrCreate(key, func() (any, error) {
			return r.construct(p)
		})
	}
	return r.construct(p)
}

// construct runs the full activation protocol: resolve the activator, satisfy
// its argument imports, call it, publish the provisional instance, populate
// member imports, then run on-activated callbacks.
func (r *request) construct(p *graph.Part) (any, error) {
	r.building[p.Type] = true
	defer delete(r.building, p.Type)

	fn, err := r.engine.rt.ResolveFactory(p.Activator)
	if err != nil {
		return nil, err
	}
	ft := fn.Type()
	if ft.NumIn() != len(p.ActivatorImports) {
		return nil, errors.New(errors.ErrCodeGraphConstruction,
			"activator %s takes %d arguments, part declares %d imports",
			p.Activator, ft.NumIn(), len(p.ActivatorImports))
	}

	args := make([]reflect.Value, ft.NumIn())
	for i, im := range p.ActivatorImports {
		v, err := r.satisfy(im, ft.In(i))
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	out := fn.Call(args)
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeNotInstantiable,
			"activator %s returns no value", p.Activator)
	}
	if last := out[len(out)-1]; last.Type() == errorType && !last.IsNil() {
		return nil, errors.Wrap(errors.ErrCodeNotInstantiable, last.Interface().(error),
			"activator %s failed", p.Activator)
	}
	inst := out[0].Interface()

	r.provisional[p.Type] = inst
	defer delete(r.provisional, p.Type)

	for _, im := range p.MemberImports {
		if err := r.populate(inst, im); err != nil {
			return nil, err
		}
	}
	for _, cb := range p.OnActivated {
		if err := r.invokeCallback(inst, cb); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// populate satisfies one member import by setting the named field on inst.
func (r *request) populate(inst any, im *graph.Import) error {
	f, err := r.engine.rt.ResolveField(im.Member)
	if err != nil {
		return err
	}
	v := reflect.ValueOf(inst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return errors.New(errors.ErrCodeNotInstantiable,
			"part %s must activate to a struct pointer to take member imports", im.Containing)
	}
	target := v.Elem().FieldByIndex(f.Index)
	if !target.CanSet() {
		return errors.New(errors.ErrCodeUnresolvedReference,
			"field %s on %s is not settable", im.Member.Name, im.Containing)
	}

	val, err := r.satisfy(im, target.Type())
	if err != nil {
		return err
	}
	target.Set(val)
	return nil
}

// satisfy produces the value for one import site, shaped for the target type.
func (r *request) satisfy(im *graph.Import, target reflect.Type) (reflect.Value, error) {
	if im.Factory {
		return r.factoryValue(im, target)
	}

	switch im.Cardinality {
	case graph.ExactlyOne:
		if len(im.Satisfying) != 1 {
			return reflect.Value{}, errors.New(errors.ErrCodeUnsatisfiableImport,
				"%s requires exactly one satisfying export, has %d", im.Site(), len(im.Satisfying))
		}
		return r.coerce(im, im.Satisfying[0], target)

	case graph.ZeroOrOne:
		if len(im.Satisfying) > 1 {
			return reflect.Value{}, errors.New(errors.ErrCodeUnsatisfiableImport,
				"%s permits at most one satisfying export, has %d", im.Site(), len(im.Satisfying))
		}
		if len(im.Satisfying) == 0 {
			return reflect.Zero(target), nil
		}
		return r.coerce(im, im.Satisfying[0], target)

	case graph.ZeroOrMany:
		if target.Kind() != reflect.Slice {
			return reflect.Value{}, errors.New(errors.ErrCodeUnsatisfiableImport,
				"%s collects many exports but its site type %s is not a slice", im.Site(), target)
		}
		out := reflect.MakeSlice(target, 0, len(im.Satisfying))
		for _, ex := range im.Satisfying {
			v, err := r.coerce(im, ex, target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
		}
		return out, nil

	default:
		return reflect.Value{}, errors.New(errors.ErrCodeGraphConstruction,
			"%s declares unknown cardinality %d", im.Site(), im.Cardinality)
	}
}

// coerce activates one export and adapts its value to the site type.
func (r *request) coerce(im *graph.Import, ex *graph.Export, target reflect.Type) (reflect.Value, error) {
	v, err := r.exportValue(ex, im.ForceNonShared)
	if err != nil {
		return reflect.Value{}, err
	}
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if v.Type().ConvertibleTo(target) {
		return v.Convert(target), nil
	}
	return reflect.Value{}, errors.New(errors.ErrCodeUnsatisfiableImport,
		"export %q on %s yields %s, not assignable to site type %s",
		ex.Contract, ex.Declaring, v.Type(), target)
}

// factoryValue builds an invoker that creates a fresh product per call. Each
// invocation runs in a nested scope where the import's declared boundaries
// start empty, so boundary-scoped dependencies of the product are new too.
//
// The site type must be a niladic func returning the product, optionally with
// a trailing error. Without an error result, a failed invocation panics; the
// func signature is the caller's only channel for the failure.
func (r *request) factoryValue(im *graph.Import, target reflect.Type) (reflect.Value, error) {
	if target.Kind() != reflect.Func || target.NumIn() != 0 ||
		target.NumOut() < 1 || target.NumOut() > 2 {
		return reflect.Value{}, errors.New(errors.ErrCodeUnsatisfiableImport,
			"factory site %s needs a func() signature producing the import, got %s", im.Site(), target)
	}
	returnsErr := target.NumOut() == 2
	if returnsErr && target.Out(1) != errorType {
		return reflect.Value{}, errors.New(errors.ErrCodeUnsatisfiableImport,
			"factory site %s: second result of %s must be error", im.Site(), target)
	}
	if len(im.Satisfying) != 1 {
		return reflect.Value{}, errors.New(errors.ErrCodeUnsatisfiableImport,
			"factory site %s requires exactly one satisfying export, has %d", im.Site(), len(im.Satisfying))
	}

	ex := im.Satisfying[0]
	engine, scope := r.engine, r.scope
	force := im.ForceNonShared
	boundaries := im.FactoryBoundaries
	product := target.Out(0)

	invoke := func([]reflect.Value) []reflect.Value {
		req := newRequest(engine, scope.Nested(boundaries...))
		v, err := req.exportValue(ex, force)
		if err == nil && v.IsValid() && !v.Type().AssignableTo(product) {
			if v.Type().ConvertibleTo(product) {
				v = v.Convert(product)
			} else {
				err = errors.New(errors.ErrCodeUnsatisfiableImport,
					"factory product %s is not assignable to %s", v.Type(), product)
			}
		}
		if err != nil {
			if !returnsErr {
				panic(err)
			}
			return []reflect.Value{reflect.Zero(product), reflect.ValueOf(err)}
		}
		if !v.IsValid() {
			v = reflect.Zero(product)
		}
		if returnsErr {
			return []reflect.Value{v, reflect.Zero(errorType)}
		}
		return []reflect.Value{v}
	}
	return reflect.MakeFunc(target, invoke), nil
}

// invokeCallback runs one on-activated callback on the fresh instance.
func (r *request) invokeCallback(inst any, cb ref.MemberRef) error {
	m := reflect.ValueOf(inst).MethodByName(cb.Name)
	if !m.IsValid() {
		return errors.New(errors.ErrCodeUnresolvedReference,
			"instance of %s has no callback method %s", cb.Declaring, cb.Name)
	}
	out := m.Call(nil)
	if n := len(out); n > 0 {
		if last := out[n-1]; last.Type() == errorType && !last.IsNil() {
			return errors.Wrap(errors.ErrCodeNotInstantiable, last.Interface().(error),
				"callback %s failed", cb)
		}
	}
	return nil
}
