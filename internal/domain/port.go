package domain

import "strings"

// Polarity is the direction/kind of a port
type Polarity string

const (
	PolarityDataIn  Polarity = "DataIn"
	PolarityDataOut Polarity = "DataOut"
	PolarityService Polarity = "Service"
)

// Label returns the port type name used in listings
func (p Polarity) Label() string {
	switch p {
	case PolarityDataIn:
		return "DataInPort"
	case PolarityDataOut:
		return "DataOutPort"
	case PolarityService:
		return "CorbaPort"
	}
	return "UnknownPort"
}

func (p Polarity) index() int {
	switch p {
	case PolarityDataIn:
		return 0
	case PolarityDataOut:
		return 1
	case PolarityService:
		return 2
	}
	return -1
}

// Compatible reports whether two ports of these polarities may be connected
func (p Polarity) Compatible(other Polarity) bool {
	switch p {
	case PolarityDataIn:
		return other == PolarityDataOut
	case PolarityDataOut:
		return other == PolarityDataIn
	case PolarityService:
		return other == PolarityService
	}
	return false
}

// Port is a named connection point on a component
type Port struct {
	Name       string            `json:"name"`
	Polarity   Polarity          `json:"polarity"`
	Properties map[string]string `json:"properties,omitempty"`
	Connectors []Connector       `json:"connectors,omitempty"`
}

// PortRef identifies a port by its component reference and port name
type PortRef struct {
	Ref  string `json:"ref"`
	Port string `json:"port"`
}

// String renders the reference as ref:port
func (p PortRef) String() string {
	return p.Ref + ":" + p.Port
}

// ParsePortRef splits a ref:port string
func ParsePortRef(s string) (PortRef, bool) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return PortRef{}, false
	}
	return PortRef{Ref: s[:i], Port: s[i+1:]}, true
}

// Connector is a live wiring between two or more ports
type Connector struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	Ports      []PortRef         `json:"ports"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Involves checks if this connector is attached to the given port
func (c *Connector) Involves(p PortRef) bool {
	for _, pr := range c.Ports {
		if pr == p {
			return true
		}
	}
	return false
}

// Joins reports whether the connector links both ports, in either direction
func (c *Connector) Joins(a, b PortRef) bool {
	return c.Involves(a) && c.Involves(b)
}

// OtherEnds returns the ports on the other side of this connector from p
func (c *Connector) OtherEnds(p PortRef) []PortRef {
	var others []PortRef
	for _, pr := range c.Ports {
		if pr != p {
			others = append(others, pr)
		}
	}
	return others
}

// FindConnector returns the connectors on a port that join it to other,
// optionally restricted to one id
func (p *Port) FindConnector(self, other PortRef, id string) []Connector {
	var found []Connector
	for _, c := range p.Connectors {
		if id != "" && c.ID != id {
			continue
		}
		if other != (PortRef{}) && !c.Joins(self, other) {
			continue
		}
		found = append(found, c)
	}
	return found
}

// Clone returns a deep copy of the port and its connectors
func (p Port) Clone() Port {
	out := p
	out.Properties = cloneProps(p.Properties)
	out.Connectors = make([]Connector, len(p.Connectors))
	for i, c := range p.Connectors {
		out.Connectors[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of the connector
func (c Connector) Clone() Connector {
	out := c
	out.Ports = append([]PortRef(nil), c.Ports...)
	out.Properties = cloneProps(c.Properties)
	return out
}

func cloneProps(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
