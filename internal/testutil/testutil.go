// Package testutil builds registry-backed fixtures for tests.
package testutil

import (
	"context"
	"testing"

	"rtshell/internal/domain"
	"rtshell/internal/loader"
	"rtshell/internal/naming"
	"rtshell/internal/profile"
	"rtshell/internal/service"
)

// SystemProfile returns the two-component test system: Output0:out wired to
// Std0:in as connection_id0, with param set to 42 in Std0's set2
func SystemProfile() *profile.Profile {
	return &profile.Profile{
		ID:       "RTSystem :Geoffrey Biggs.test.0",
		Abstract: "Test system",
		Version:  "0",
		Components: []profile.Component{
			{
				TypeID:          "RTC:Geoffrey Biggs:test:Std:1.0",
				InstanceName:    "Std0",
				PathURI:         "localhost/local.host_cxt/Std0.rtc",
				Required:        true,
				ActiveConfigSet: "default",
				ConfigSets: []profile.ConfigSet{
					{ID: "default", Parameters: []domain.Parameter{{Name: "param", Value: "0"}}},
					{ID: "set2", Parameters: []domain.Parameter{{Name: "param", Value: "42"}}},
				},
				Ports: []profile.Port{{Name: "in", Required: true}},
			},
			{
				TypeID:       "RTC:Geoffrey Biggs:Test:Output:1.0",
				InstanceName: "Output0",
				PathURI:      "localhost/local.host_cxt/Output0.rtc",
				Required:     true,
				Ports:        []profile.Port{{Name: "out", Required: true}},
			},
		},
		Connectors: []profile.Connector{
			{
				ID:       "connection_id0",
				Name:     "in_out",
				Required: true,
				Properties: map[string]string{
					"dataport.data_type":         "TimedLong",
					"dataport.dataflow_type":     "push",
					"dataport.interface_type":    "corba_cdr",
					"dataport.subscription_type": "new",
				},
				Source: profile.Endpoint{PathURI: "localhost/local.host_cxt/Output0.rtc", PortName: "Output0.out"},
				Target: profile.Endpoint{PathURI: "localhost/local.host_cxt/Std0.rtc", PortName: "Std0.in"},
			},
		},
	}
}

// DemoRegistry returns an in-process registry loaded with the demo system
func DemoRegistry(t testing.TB) *service.Registry {
	t.Helper()
	snap, err := loader.Demo()
	if err != nil {
		t.Fatalf("failed to parse demo seed: %v", err)
	}
	reg := service.NewRegistry(nil, nil, nil)
	if err := reg.Restore(context.Background(), snap); err != nil {
		t.Fatalf("failed to restore demo seed: %v", err)
	}
	return reg
}

// Dialer returns a dialer serving svc under every name in servers and
// failing with naming.ErrUnreachable for any other name
func Dialer(svc naming.Service, servers ...string) naming.Dialer {
	known := make(map[string]bool, len(servers))
	for _, s := range servers {
		known[s] = true
	}
	return func(ctx context.Context, server string) (naming.Service, error) {
		if !known[server] {
			return nil, naming.ErrUnreachable
		}
		return svc, nil
	}
}
