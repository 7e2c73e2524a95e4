package domain

// Module is a component library a manager knows how to load
type Module struct {
	Path     string `json:"path"`
	InitFunc string `json:"init_func,omitempty"`
	// Templates are the prototypes of the component types the module can create
	Templates []Component `json:"templates,omitempty"`
}

// Provides returns the component type names the module can create
func (m *Module) Provides() []string {
	types := make([]string, 0, len(m.Templates))
	for _, t := range m.Templates {
		types = append(types, t.TypeName)
	}
	return types
}

// Template returns the prototype for a component type, or nil
func (m *Module) Template(typeName string) *Component {
	for i := range m.Templates {
		if m.Templates[i].TypeName == typeName {
			return &m.Templates[i]
		}
	}
	return nil
}

// Manager is the live profile of a component manager
type Manager struct {
	Name       string    `json:"name"`
	Modules    []Module  `json:"modules"`
	Loaded     []Module  `json:"loaded"`
	Components []Binding `json:"components"`
}

// LoadedModule returns the loaded module with the given path, or nil
func (m *Manager) LoadedModule(path string) *Module {
	for i := range m.Loaded {
		if m.Loaded[i].Path == path {
			return &m.Loaded[i]
		}
	}
	return nil
}

// Module returns the loadable module with the given path, or nil
func (m *Manager) Module(path string) *Module {
	for i := range m.Modules {
		if m.Modules[i].Path == path {
			return &m.Modules[i]
		}
	}
	return nil
}

// TemplateFor returns the prototype of a type provided by a loaded module
func (m *Manager) TemplateFor(typeName string) *Component {
	for i := range m.Loaded {
		if t := m.Loaded[i].Template(typeName); t != nil {
			return t
		}
	}
	return nil
}

// Clone returns a deep copy of the manager
func (m Manager) Clone() Manager {
	out := m
	out.Modules = cloneModules(m.Modules)
	out.Loaded = cloneModules(m.Loaded)
	out.Components = append([]Binding(nil), m.Components...)
	return out
}

func cloneModules(mods []Module) []Module {
	if mods == nil {
		return nil
	}
	out := make([]Module, len(mods))
	for i, mod := range mods {
		out[i] = mod
		out[i].Templates = make([]Component, len(mod.Templates))
		for j, t := range mod.Templates {
			out[i].Templates[j] = t.Clone()
		}
	}
	return out
}
