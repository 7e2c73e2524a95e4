package loader

import (
	_ "embed"

	"rtshell/internal/domain"
)

//go:embed demo.yaml
var demoSeed []byte

// Demo returns the built-in demonstration system: a Std0/Output0 pair, a
// component that fails on activation, a zombie and a manager owning
// Controller0, Sensor0 and Motor0.
func Demo() (*domain.Snapshot, error) {
	return ParseYAML(demoSeed)
}

// DemoYAML returns the seed document behind Demo
func DemoYAML() []byte {
	return append([]byte(nil), demoSeed...)
}
