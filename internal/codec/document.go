package codec

import (
	"fmt"

	"rtshell/internal/domain"
	"rtshell/internal/profile"
)

// document is the on-disk shape shared by the YAML and JSON codecs
type document struct {
	RTSProfile rtsProfile `yaml:"rtsProfile" json:"rtsProfile"`
}

type rtsProfile struct {
	ID                    string         `yaml:"id" json:"id"`
	Abstract              string         `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Version               string         `yaml:"version,omitempty" json:"version,omitempty"`
	Components            []docComponent `yaml:"components,omitempty" json:"components,omitempty"`
	DataPortConnectors    []docConnector `yaml:"dataPortConnectors,omitempty" json:"dataPortConnectors,omitempty"`
	ServicePortConnectors []docConnector `yaml:"servicePortConnectors,omitempty" json:"servicePortConnectors,omitempty"`
}

type docComponent struct {
	ID                     string          `yaml:"id" json:"id"`
	InstanceName           string          `yaml:"instanceName" json:"instanceName"`
	PathURI                string          `yaml:"pathUri" json:"pathUri"`
	IsRequired             bool            `yaml:"isRequired" json:"isRequired"`
	ActiveConfigurationSet string          `yaml:"activeConfigurationSet,omitempty" json:"activeConfigurationSet,omitempty"`
	ConfigurationSets      []docConfigSet  `yaml:"configurationSets,omitempty" json:"configurationSets,omitempty"`
	DataPorts              []docPort       `yaml:"dataPorts,omitempty" json:"dataPorts,omitempty"`
	ServicePorts           []docPort       `yaml:"servicePorts,omitempty" json:"servicePorts,omitempty"`
	TargetState            *docTargetState `yaml:"targetState,omitempty" json:"targetState,omitempty"`
}

type docConfigSet struct {
	ID                string          `yaml:"id" json:"id"`
	ConfigurationData []docConfigData `yaml:"configurationData,omitempty" json:"configurationData,omitempty"`
}

type docConfigData struct {
	Name string `yaml:"name" json:"name"`
	Data string `yaml:"data" json:"data"`
}

type docPort struct {
	Name       string `yaml:"name" json:"name"`
	IsRequired bool   `yaml:"isRequired" json:"isRequired"`
}

type docTargetState struct {
	ExecutionContext int    `yaml:"executionContext" json:"executionContext"`
	State            string `yaml:"state" json:"state"`
	IsRequired       bool   `yaml:"isRequired" json:"isRequired"`
}

type docConnector struct {
	ConnectorID string            `yaml:"connectorId" json:"connectorId"`
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	IsRequired  bool              `yaml:"isRequired" json:"isRequired"`
	Properties  map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
	SourcePort  docEndpoint       `yaml:"sourcePort" json:"sourcePort"`
	TargetPort  docEndpoint       `yaml:"targetPort" json:"targetPort"`
}

type docEndpoint struct {
	PathURI  string `yaml:"pathUri" json:"pathUri"`
	PortName string `yaml:"portName" json:"portName"`
}

// toProfile converts a decoded document and validates the result
func (d *document) toProfile() (*profile.Profile, error) {
	src := d.RTSProfile
	p := &profile.Profile{
		ID:       src.ID,
		Abstract: src.Abstract,
		Version:  src.Version,
	}

	for _, dc := range src.Components {
		c := profile.Component{
			TypeID:          dc.ID,
			InstanceName:    dc.InstanceName,
			PathURI:         dc.PathURI,
			Required:        dc.IsRequired,
			ActiveConfigSet: dc.ActiveConfigurationSet,
		}
		for _, ds := range dc.ConfigurationSets {
			set := profile.ConfigSet{ID: ds.ID}
			for _, kv := range ds.ConfigurationData {
				set.Parameters = append(set.Parameters, domain.Parameter{Name: kv.Name, Value: kv.Data})
			}
			c.ConfigSets = append(c.ConfigSets, set)
		}
		for _, dp := range dc.DataPorts {
			c.Ports = append(c.Ports, profile.Port{Name: dp.Name, Required: dp.IsRequired})
		}
		for _, dp := range dc.ServicePorts {
			c.Ports = append(c.Ports, profile.Port{Name: dp.Name, Service: true, Required: dp.IsRequired})
		}
		if ts := dc.TargetState; ts != nil {
			state, ok := domain.ParseExecState(ts.State)
			if !ok {
				return nil, fmt.Errorf("component %q: unknown target state %q", dc.InstanceName, ts.State)
			}
			c.TargetState = &profile.TargetState{
				ExecutionContext: ts.ExecutionContext,
				State:            state,
				Required:         ts.IsRequired,
			}
		}
		p.Components = append(p.Components, c)
	}

	add := func(conns []docConnector, service bool) {
		for _, dc := range conns {
			p.Connectors = append(p.Connectors, profile.Connector{
				ID:         dc.ConnectorID,
				Name:       dc.Name,
				Service:    service,
				Required:   dc.IsRequired,
				Properties: dc.Properties,
				Source:     profile.Endpoint{PathURI: dc.SourcePort.PathURI, PortName: dc.SourcePort.PortName},
				Target:     profile.Endpoint{PathURI: dc.TargetPort.PathURI, PortName: dc.TargetPort.PortName},
			})
		}
	}
	add(src.DataPortConnectors, false)
	add(src.ServicePortConnectors, true)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

func fromProfile(p *profile.Profile) *document {
	out := rtsProfile{
		ID:       p.ID,
		Abstract: p.Abstract,
		Version:  p.Version,
	}

	for _, c := range p.Components {
		dc := docComponent{
			ID:                     c.TypeID,
			InstanceName:           c.InstanceName,
			PathURI:                c.PathURI,
			IsRequired:             c.Required,
			ActiveConfigurationSet: c.ActiveConfigSet,
		}
		for _, s := range c.ConfigSets {
			ds := docConfigSet{ID: s.ID}
			for _, kv := range s.Parameters {
				ds.ConfigurationData = append(ds.ConfigurationData, docConfigData{Name: kv.Name, Data: kv.Value})
			}
			dc.ConfigurationSets = append(dc.ConfigurationSets, ds)
		}
		for _, port := range c.Ports {
			dp := docPort{Name: port.Name, IsRequired: port.Required}
			if port.Service {
				dc.ServicePorts = append(dc.ServicePorts, dp)
			} else {
				dc.DataPorts = append(dc.DataPorts, dp)
			}
		}
		if ts := c.TargetState; ts != nil {
			dc.TargetState = &docTargetState{
				ExecutionContext: ts.ExecutionContext,
				State:            string(ts.State),
				IsRequired:       ts.Required,
			}
		}
		out.Components = append(out.Components, dc)
	}

	for _, conn := range p.Connectors {
		dc := docConnector{
			ConnectorID: conn.ID,
			Name:        conn.Name,
			IsRequired:  conn.Required,
			Properties:  conn.Properties,
			SourcePort:  docEndpoint{PathURI: conn.Source.PathURI, PortName: conn.Source.PortName},
			TargetPort:  docEndpoint{PathURI: conn.Target.PathURI, PortName: conn.Target.PortName},
		}
		if conn.Service {
			out.ServicePortConnectors = append(out.ServicePortConnectors, dc)
		} else {
			out.DataPortConnectors = append(out.DataPortConnectors, dc)
		}
	}
	return &document{RTSProfile: out}
}
