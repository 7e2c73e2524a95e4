package service

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/naming"
)

// Store persists registry snapshots
type Store interface {
	SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// EndpointStatus is the liveness view of a component with a network endpoint
type EndpointStatus struct {
	Ref      string
	Endpoint string
	Alive    bool
}

// defaultDataProps are applied to data port connectors unless overridden
var defaultDataProps = map[string]string{
	"dataport.dataflow_type":         "push",
	"dataport.interface_type":        "corba_cdr",
	"dataport.subscription_type":     "flush",
	"dataport.publisher.push_policy": "all",
}

var _ naming.Service = (*Registry)(nil)

// Registry is an in-process name server and component framework. It
// implements naming.Service.
type Registry struct {
	mu         sync.RWMutex
	contexts   map[string]struct{}
	components map[string]*domain.ComponentRecord
	managers   map[string]*domain.ManagerRecord
	// order records discovery order of every binding
	order map[string]int
	seq   int

	store  Store
	events *EventBus
	logger *zap.Logger
}

// NewRegistry creates an empty registry. store, events and logger may be nil.
func NewRegistry(store Store, events *EventBus, logger *zap.Logger) *Registry {
	if events == nil {
		events = NewEventBus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		store:  store,
		events: events,
		logger: logger,
	}
	r.reset()
	return r
}

// Events returns the bus on which the registry publishes changes
func (r *Registry) Events() *EventBus {
	return r.events
}

func (r *Registry) reset() {
	r.contexts = map[string]struct{}{"/": {}}
	r.components = make(map[string]*domain.ComponentRecord)
	r.managers = make(map[string]*domain.ManagerRecord)
	r.order = map[string]int{"/": 0}
	r.seq = 0
}

func cleanRef(ref string) string {
	return path.Clean("/" + ref)
}

// Restore replaces the registry contents with snap
func (r *Registry) Restore(ctx context.Context, snap *domain.Snapshot) error {
	return r.mutate(ctx, func() (Event, error) {
		r.reset()
		for _, c := range snap.Contexts {
			r.ensureContextLocked(cleanRef(c))
		}
		for _, c := range snap.Components {
			rec := c
			rec.Ref = cleanRef(rec.Ref)
			rec.Component = c.Component.Clone()
			r.components[rec.Ref] = &rec
			r.bindLocked(rec.Ref)
		}
		for _, m := range snap.Managers {
			rec := m
			rec.Ref = cleanRef(rec.Ref)
			rec.Manager = m.Manager.Clone()
			r.managers[rec.Ref] = &rec
			r.bindLocked(rec.Ref)
		}
		contexts, comps, zombies := r.snapshotLocked().Stats()
		return Event{
			Type: EventSnapshotLoaded,
			Payload: map[string]string{
				"contexts":   fmt.Sprint(contexts),
				"components": fmt.Sprint(comps),
				"zombies":    fmt.Sprint(zombies),
			},
		}, nil
	})
}

// Snapshot returns a copy of the registry contents in discovery order
func (r *Registry) Snapshot() *domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		Contexts:   []string{},
		Components: []domain.ComponentRecord{},
		Managers:   []domain.ManagerRecord{},
	}
	for ref := range r.contexts {
		if ref != "/" {
			snap.Contexts = append(snap.Contexts, ref)
		}
	}
	for _, c := range r.components {
		rec := *c
		rec.Component = c.Component.Clone()
		snap.Components = append(snap.Components, rec)
	}
	for _, m := range r.managers {
		rec := *m
		rec.Manager = m.Manager.Clone()
		snap.Managers = append(snap.Managers, rec)
	}
	sort.Slice(snap.Contexts, func(i, j int) bool { return r.order[snap.Contexts[i]] < r.order[snap.Contexts[j]] })
	sort.Slice(snap.Components, func(i, j int) bool {
		return r.order[snap.Components[i].Ref] < r.order[snap.Components[j].Ref]
	})
	sort.Slice(snap.Managers, func(i, j int) bool {
		return r.order[snap.Managers[i].Ref] < r.order[snap.Managers[j].Ref]
	})
	return snap
}

// mutate runs fn under the write lock, then persists and publishes the
// resulting event when fn succeeds
func (r *Registry) mutate(ctx context.Context, fn func() (Event, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	ev, err := fn()
	var snap *domain.Snapshot
	if err == nil {
		snap = r.snapshotLocked()
	}
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.logger.Debug("registry changed", zap.String("event", string(ev.Type)), zap.String("ref", ev.Ref))
	if r.store != nil {
		if err := r.store.SaveSnapshot(ctx, snap); err != nil {
			r.logger.Warn("failed to persist snapshot", zap.Error(err))
		}
	}
	r.events.Publish(ev)
	return nil
}

func (r *Registry) bindLocked(ref string) {
	parent, _ := domain.SplitRef(ref)
	r.ensureContextLocked(parent)
	if _, ok := r.order[ref]; !ok {
		r.seq++
		r.order[ref] = r.seq
	}
}

func (r *Registry) ensureContextLocked(ref string) {
	if _, ok := r.contexts[ref]; ok {
		return
	}
	if ref != "/" {
		parent, _ := domain.SplitRef(ref)
		r.ensureContextLocked(parent)
	}
	r.contexts[ref] = struct{}{}
	r.seq++
	r.order[ref] = r.seq
}

func (r *Registry) boundLocked(ref string) bool {
	if _, ok := r.contexts[ref]; ok {
		return true
	}
	if _, ok := r.components[ref]; ok {
		return true
	}
	_, ok := r.managers[ref]
	return ok
}

// componentLocked returns a live component or the matching remote error
func (r *Registry) componentLocked(ref string) (*domain.ComponentRecord, error) {
	ref = cleanRef(ref)
	if rec, ok := r.components[ref]; ok {
		if !rec.Alive {
			return nil, domain.Remotef(domain.ErrDefunct, "%s", ref)
		}
		return rec, nil
	}
	if r.boundLocked(ref) {
		return nil, domain.Remotef(domain.ErrNotComponent, "%s", ref)
	}
	return nil, domain.Remotef(domain.ErrNotFound, "%s", ref)
}

// managerLocked returns a live manager or the matching remote error
func (r *Registry) managerLocked(ref string) (*domain.ManagerRecord, error) {
	ref = cleanRef(ref)
	if rec, ok := r.managers[ref]; ok {
		if !rec.Alive {
			return nil, domain.Remotef(domain.ErrDefunct, "%s", ref)
		}
		return rec, nil
	}
	if r.boundLocked(ref) {
		return nil, domain.Remotef(domain.ErrNotManager, "%s", ref)
	}
	return nil, domain.Remotef(domain.ErrNotFound, "%s", ref)
}

func (r *Registry) List(ctx context.Context, dir string) ([]domain.Binding, error) {
	dir = cleanRef(dir)
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.contexts[dir]; !ok {
		if r.boundLocked(dir) {
			return nil, domain.Remotef(domain.ErrNotContext, "%s", dir)
		}
		return nil, domain.Remotef(domain.ErrNotFound, "%s", dir)
	}

	out := []domain.Binding{}
	add := func(ref string, kind domain.BindingKind) {
		if ref == "/" {
			return
		}
		parent, name := domain.SplitRef(ref)
		if parent == dir {
			out = append(out, domain.Binding{Name: name, Kind: kind, Ref: ref})
		}
	}
	for ref := range r.contexts {
		add(ref, domain.BindingContext)
	}
	for ref := range r.components {
		add(ref, domain.BindingObject)
	}
	for ref := range r.managers {
		add(ref, domain.BindingObject)
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].Ref] < r.order[out[j].Ref] })
	return out, nil
}

func (r *Registry) Probe(ctx context.Context, ref string) (domain.ObjectKind, error) {
	ref = cleanRef(ref)
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rec, ok := r.components[ref]; ok {
		if !rec.Alive {
			return "", domain.Remotef(domain.ErrDefunct, "%s", ref)
		}
		return domain.ObjectComponent, nil
	}
	if rec, ok := r.managers[ref]; ok {
		if !rec.Alive {
			return "", domain.Remotef(domain.ErrDefunct, "%s", ref)
		}
		return domain.ObjectManager, nil
	}
	if _, ok := r.contexts[ref]; ok {
		return "", domain.Remotef(domain.ErrBadRequest, "%s is a naming context", ref)
	}
	return "", domain.Remotef(domain.ErrNotFound, "%s", ref)
}

func (r *Registry) Component(ctx context.Context, ref string) (*domain.Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, err := r.componentLocked(ref)
	if err != nil {
		return nil, err
	}
	comp := rec.Component.Clone()
	return &comp, nil
}

func (r *Registry) Manager(ctx context.Context, ref string) (*domain.Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, err := r.managerLocked(ref)
	if err != nil {
		return nil, err
	}
	mgr := rec.Manager.Clone()
	return &mgr, nil
}

// Connect creates a connector between the requested ports
func (r *Registry) Connect(ctx context.Context, req naming.ConnectRequest) (*domain.Connector, error) {
	var conn domain.Connector
	err := r.mutate(ctx, func() (Event, error) {
		if len(req.Ports) < 2 {
			return Event{}, domain.Remotef(domain.ErrBadRequest, "a connector needs at least two ports")
		}

		ports := make([]*domain.Port, len(req.Ports))
		seen := make(map[domain.PortRef]bool)
		for i, pr := range req.Ports {
			pr.Ref = cleanRef(pr.Ref)
			if seen[pr] {
				return Event{}, domain.Remotef(domain.ErrBadRequest, "port %s listed twice", pr)
			}
			seen[pr] = true
			rec, err := r.componentLocked(pr.Ref)
			if err != nil {
				return Event{}, err
			}
			p := rec.Component.Port(pr.Port)
			if p == nil {
				return Event{}, domain.Remotef(domain.ErrPortNotFound, "%s", pr)
			}
			ports[i] = p
		}
		for _, p := range ports[1:] {
			if !ports[0].Polarity.Compatible(p.Polarity) {
				return Event{}, domain.ErrWrongPolarity
			}
		}

		id := req.ID
		if id == "" {
			id = uuid.NewString()
		}
		for i, p := range ports {
			for _, c := range p.Connectors {
				if c.ID == id {
					return Event{}, domain.Remotef(domain.ErrBadRequest, "connector %q already exists on %s", id, req.Ports[i])
				}
			}
		}

		props := make(map[string]string)
		if ports[0].Polarity != domain.PolarityService {
			for k, v := range defaultDataProps {
				props[k] = v
			}
			if dt, ok := ports[0].Properties["dataport.data_type"]; ok {
				props["dataport.data_type"] = dt
			}
		}
		for k, v := range req.Properties {
			props[k] = v
		}

		name := req.Name
		if name == "" {
			name = id
		}
		refs := make([]domain.PortRef, len(req.Ports))
		for i, pr := range req.Ports {
			refs[i] = domain.PortRef{Ref: cleanRef(pr.Ref), Port: pr.Port}
		}
		conn = domain.Connector{ID: id, Name: name, Ports: refs, Properties: props}
		for _, p := range ports {
			p.Connectors = append(p.Connectors, conn.Clone())
		}

		return Event{Type: EventConnected, Ref: refs[0].String(), Payload: map[string]string{"id": id}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// Disconnect removes a connector from every port it joins
func (r *Registry) Disconnect(ctx context.Context, port domain.PortRef, id string) error {
	return r.mutate(ctx, func() (Event, error) {
		port.Ref = cleanRef(port.Ref)
		rec, err := r.componentLocked(port.Ref)
		if err != nil {
			return Event{}, err
		}
		p := rec.Component.Port(port.Port)
		if p == nil {
			return Event{}, domain.Remotef(domain.ErrPortNotFound, "%s", port)
		}

		var ends []domain.PortRef
		for _, c := range p.Connectors {
			if c.ID == id {
				ends = c.Ports
				break
			}
		}
		if ends == nil {
			return Event{}, domain.Remotef(domain.ErrNotConnected, "%s has no connector %q", port, id)
		}
		for _, end := range ends {
			r.removeConnectorLocked(end, id)
		}
		return Event{Type: EventDisconnected, Ref: port.String(), Payload: map[string]string{"id": id}}, nil
	})
}

func (r *Registry) removeConnectorLocked(end domain.PortRef, id string) {
	rec, ok := r.components[end.Ref]
	if !ok {
		return
	}
	p := rec.Component.Port(end.Port)
	if p == nil {
		return
	}
	kept := p.Connectors[:0]
	for _, c := range p.Connectors {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	p.Connectors = kept
}

// dropRefLocked forgets every connector and manager entry pointing at ref
func (r *Registry) dropRefLocked(ref string) {
	for _, rec := range r.components {
		for i := range rec.Component.Ports {
			p := &rec.Component.Ports[i]
			kept := p.Connectors[:0]
			for _, c := range p.Connectors {
				attached := false
				for _, pr := range c.Ports {
					if pr.Ref == ref {
						attached = true
						break
					}
				}
				if !attached {
					kept = append(kept, c)
				}
			}
			p.Connectors = kept
		}
	}
	for _, m := range r.managers {
		kept := m.Manager.Components[:0]
		for _, b := range m.Manager.Components {
			if b.Ref != ref {
				kept = append(kept, b)
			}
		}
		m.Manager.Components = kept
	}
}

func (r *Registry) SetParameter(ctx context.Context, ref, set, param, value string) error {
	return r.mutate(ctx, func() (Event, error) {
		rec, err := r.componentLocked(ref)
		if err != nil {
			return Event{}, err
		}
		cs := rec.Component.ConfigSet(set)
		if cs == nil {
			return Event{}, domain.Remotef(domain.ErrNoSuchSet, "%s", set)
		}
		if !cs.Set(param, value) {
			return Event{}, domain.Remotef(domain.ErrNoSuchParameter, "%s", param)
		}
		return Event{Type: EventConfigChanged, Ref: rec.Ref, Payload: map[string]string{"set": set, "param": param, "value": value}}, nil
	})
}

// ActivateConfigSet makes set the active configuration set. Hidden sets
// cannot be activated and fail with the framework's internal error.
func (r *Registry) ActivateConfigSet(ctx context.Context, ref, set string) error {
	return r.mutate(ctx, func() (Event, error) {
		rec, err := r.componentLocked(ref)
		if err != nil {
			return Event{}, err
		}
		if rec.Component.ConfigSet(set) == nil {
			return Event{}, domain.Remotef(domain.ErrNoSuchSet, "%s", set)
		}
		if domain.IsHiddenSet(set) {
			return Event{}, domain.ErrInternal
		}
		rec.Component.ActiveConfigSet = set
		return Event{Type: EventConfigChanged, Ref: rec.Ref, Payload: map[string]string{"active": set}}, nil
	})
}

func (r *Registry) ChangeState(ctx context.Context, ref string, ec int, t domain.Transition) error {
	return r.mutate(ctx, func() (Event, error) {
		rec, err := r.componentLocked(ref)
		if err != nil {
			return Event{}, err
		}
		var e *domain.ExecutionContext
		for i := range rec.Component.ExecutionContexts {
			if rec.Component.ExecutionContexts[i].Index == ec {
				e = &rec.Component.ExecutionContexts[i]
				break
			}
		}
		if e == nil {
			return Event{}, domain.Remotef(domain.ErrNoSuchContext, "%d", ec)
		}

		switch t {
		case domain.TransitionActivate:
			switch e.State {
			case domain.StateActive:
			case domain.StateError:
				return Event{}, domain.ErrPrecondition
			default:
				if rec.FailOnActivate {
					e.State = domain.StateError
				} else {
					e.State = domain.StateActive
				}
			}
		case domain.TransitionDeactivate:
			switch e.State {
			case domain.StateActive:
				e.State = domain.StateInactive
			case domain.StateError:
				return Event{}, domain.ErrPrecondition
			}
		case domain.TransitionReset:
			if e.State != domain.StateError {
				return Event{}, domain.ErrPrecondition
			}
			e.State = domain.StateInactive
		default:
			return Event{}, domain.Remotef(domain.ErrBadRequest, "unknown transition %q", t)
		}
		return Event{Type: EventStateChanged, Ref: rec.Ref, Payload: map[string]string{"ec": fmt.Sprint(ec), "state": string(e.State)}}, nil
	})
}

// Exit terminates a component or manager. The binding stays behind as a zombie.
func (r *Registry) Exit(ctx context.Context, ref string) error {
	return r.mutate(ctx, func() (Event, error) {
		ref = cleanRef(ref)
		if m, ok := r.managers[ref]; ok && m.Alive {
			m.Alive = false
			for _, b := range m.Manager.Components {
				if c, ok := r.components[b.Ref]; ok {
					c.Alive = false
					r.dropRefLocked(b.Ref)
				}
			}
			return Event{Type: EventExited, Ref: ref}, nil
		}
		rec, err := r.componentLocked(ref)
		if err != nil {
			return Event{}, err
		}
		rec.Alive = false
		for i := range rec.Component.Ports {
			rec.Component.Ports[i].Connectors = nil
		}
		r.dropRefLocked(ref)
		return Event{Type: EventExited, Ref: ref}, nil
	})
}

// Unbind removes a binding. Naming contexts are removed with everything below them.
func (r *Registry) Unbind(ctx context.Context, ref string) error {
	return r.mutate(ctx, func() (Event, error) {
		ref = cleanRef(ref)
		if ref == "/" {
			return Event{}, domain.Remotef(domain.ErrBadRequest, "cannot unbind the root context")
		}
		if !r.boundLocked(ref) {
			return Event{}, domain.Remotef(domain.ErrNotFound, "%s", ref)
		}

		var removed []string
		if _, ok := r.contexts[ref]; ok {
			prefix := ref + "/"
			for c := range r.contexts {
				if c == ref || strings.HasPrefix(c, prefix) {
					delete(r.contexts, c)
					delete(r.order, c)
				}
			}
			for c := range r.components {
				if strings.HasPrefix(c, prefix) {
					removed = append(removed, c)
				}
			}
			for m := range r.managers {
				if strings.HasPrefix(m, prefix) {
					removed = append(removed, m)
				}
			}
		} else {
			removed = append(removed, ref)
		}

		for _, c := range removed {
			delete(r.components, c)
			delete(r.managers, c)
			delete(r.order, c)
		}
		for _, c := range removed {
			r.dropRefLocked(c)
		}
		return Event{Type: EventUnbound, Ref: ref}, nil
	})
}

func (r *Registry) LoadModule(ctx context.Context, manager, modPath, initFunc string) error {
	return r.mutate(ctx, func() (Event, error) {
		m, err := r.managerLocked(manager)
		if err != nil {
			return Event{}, err
		}
		if initFunc == "" {
			return Event{}, domain.Remotef(domain.ErrBadModule, "no initialisation function for %s", modPath)
		}
		mod := m.Manager.Module(modPath)
		if mod == nil {
			return Event{}, domain.Remotef(domain.ErrBadModule, "%s", modPath)
		}
		if mod.InitFunc != "" && mod.InitFunc != initFunc {
			return Event{}, domain.Remotef(domain.ErrBadModule, "%s has no function %s", modPath, initFunc)
		}
		if m.Manager.LoadedModule(modPath) == nil {
			loaded := domain.Manager{Modules: []domain.Module{*mod}}.Clone().Modules[0]
			loaded.InitFunc = initFunc
			m.Manager.Loaded = append(m.Manager.Loaded, loaded)
		}
		return Event{Type: EventModuleLoaded, Ref: m.Ref, Payload: map[string]string{"module": modPath}}, nil
	})
}

func (r *Registry) UnloadModule(ctx context.Context, manager, modPath string) error {
	return r.mutate(ctx, func() (Event, error) {
		m, err := r.managerLocked(manager)
		if err != nil {
			return Event{}, err
		}
		idx := -1
		for i, mod := range m.Manager.Loaded {
			if mod.Path == modPath {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Event{}, domain.Remotef(domain.ErrBadModule, "%s is not loaded", modPath)
		}
		m.Manager.Loaded = append(m.Manager.Loaded[:idx], m.Manager.Loaded[idx+1:]...)
		return Event{Type: EventModuleUnloaded, Ref: m.Ref, Payload: map[string]string{"module": modPath}}, nil
	})
}

// CreateComponent instantiates typeName from a loaded module. The new
// component is bound next to the manager as <Type><n>.rtc.
func (r *Registry) CreateComponent(ctx context.Context, manager, typeName string) (string, error) {
	var ref string
	err := r.mutate(ctx, func() (Event, error) {
		m, err := r.managerLocked(manager)
		if err != nil {
			return Event{}, err
		}
		tmpl := m.Manager.TemplateFor(typeName)
		if tmpl == nil {
			return Event{}, domain.Remotef(domain.ErrBadModule, "no loaded module provides %s", typeName)
		}

		dir, _ := domain.SplitRef(m.Ref)
		var name string
		for n := 0; ; n++ {
			name = fmt.Sprintf("%s%d", typeName, n)
			ref = domain.JoinRef(dir, name+".rtc")
			if !r.boundLocked(ref) {
				break
			}
		}

		comp := tmpl.Clone()
		comp.InstanceName = name
		if len(comp.ExecutionContexts) == 0 {
			comp.ExecutionContexts = []domain.ExecutionContext{{Index: 0, Kind: "PeriodicExecutionContext", Rate: 1000, Owned: true, State: domain.StateInactive}}
		}
		r.components[ref] = &domain.ComponentRecord{Ref: ref, Alive: true, Component: comp}
		r.bindLocked(ref)
		m.Manager.Components = append(m.Manager.Components, domain.Binding{Name: name + ".rtc", Kind: domain.BindingObject, Ref: ref})
		return Event{Type: EventBound, Ref: ref, Payload: map[string]string{"manager": m.Ref, "type": typeName}}, nil
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (r *Registry) DeleteComponent(ctx context.Context, manager, instanceName string) error {
	return r.mutate(ctx, func() (Event, error) {
		m, err := r.managerLocked(manager)
		if err != nil {
			return Event{}, err
		}
		var target string
		for _, b := range m.Manager.Components {
			if b.Name == instanceName || b.Name == instanceName+".rtc" {
				target = b.Ref
				break
			}
		}
		if target == "" {
			return Event{}, domain.Remotef(domain.ErrNotFound, "%s", instanceName)
		}
		delete(r.components, target)
		delete(r.order, target)
		r.dropRefLocked(target)
		return Event{Type: EventUnbound, Ref: target, Payload: map[string]string{"manager": m.Ref}}, nil
	})
}

// Heartbeat marks a bound object alive again
func (r *Registry) Heartbeat(ctx context.Context, ref string) error {
	return r.setAlive(ctx, ref, true)
}

// MarkDefunct marks a bound object dead, leaving its binding as a zombie
func (r *Registry) MarkDefunct(ctx context.Context, ref string) error {
	return r.setAlive(ctx, ref, false)
}

func (r *Registry) setAlive(ctx context.Context, ref string, alive bool) error {
	return r.mutate(ctx, func() (Event, error) {
		ref = cleanRef(ref)
		if c, ok := r.components[ref]; ok {
			if c.Alive != alive && !alive {
				r.dropRefLocked(ref)
				for i := range c.Component.Ports {
					c.Component.Ports[i].Connectors = nil
				}
			}
			c.Alive = alive
		} else if m, ok := r.managers[ref]; ok {
			m.Alive = alive
		} else {
			return Event{}, domain.Remotef(domain.ErrNotFound, "%s", ref)
		}
		return Event{Type: EventLiveness, Ref: ref, Payload: map[string]string{"alive": fmt.Sprint(alive)}}, nil
	})
}

// Endpoints lists the components that registered a network endpoint
func (r *Registry) Endpoints() []EndpointStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []EndpointStatus
	for ref, c := range r.components {
		if c.Component.Endpoint != "" {
			out = append(out, EndpointStatus{Ref: ref, Endpoint: c.Component.Endpoint, Alive: c.Alive})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}
