package domain

import "sort"

// ComponentRecord is a bound component as held by a registry
type ComponentRecord struct {
	Ref       string    `json:"ref" yaml:"ref"`
	Alive     bool      `json:"alive" yaml:"alive"`
	Component Component `json:"component" yaml:"component"`
	// FailOnActivate puts the component into the Error state when activated
	FailOnActivate bool `json:"fail_on_activate,omitempty" yaml:"fail_on_activate,omitempty"`
}

// ManagerRecord is a bound manager as held by a registry
type ManagerRecord struct {
	Ref     string  `json:"ref" yaml:"ref"`
	Alive   bool    `json:"alive" yaml:"alive"`
	Manager Manager `json:"manager" yaml:"manager"`
}

// Snapshot is the complete state of one naming service
type Snapshot struct {
	Contexts   []string          `json:"contexts"`
	Components []ComponentRecord `json:"components"`
	Managers   []ManagerRecord   `json:"managers"`
}

// Sort orders every section by reference so snapshots compare stably
func (s *Snapshot) Sort() {
	sort.Strings(s.Contexts)
	sort.Slice(s.Components, func(i, j int) bool { return s.Components[i].Ref < s.Components[j].Ref })
	sort.Slice(s.Managers, func(i, j int) bool { return s.Managers[i].Ref < s.Managers[j].Ref })
}

// Stats returns the number of contexts, components and zombies in the snapshot
func (s *Snapshot) Stats() (contexts, components, zombies int) {
	for _, c := range s.Components {
		if c.Alive {
			components++
		} else {
			zombies++
		}
	}
	return len(s.Contexts), components, zombies
}
