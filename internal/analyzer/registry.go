package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

// Options are the parameters shared by every detector variant.
type Options struct {
	Range     HSVRange
	MinWidth  int
	MinHeight int
}

// Factory builds a detector variant from Options.
type Factory func(opts Options) (Detector, error)

var factories = map[string]Factory{
	"color": func(opts Options) (Detector, error) {
		return &ColorDetector{Range: opts.Range, MinWidth: opts.MinWidth, MinHeight: opts.MinHeight}, nil
	},
}

// Register adds a detector variant. Backends behind build tags call it from init.
func Register(variant string, f Factory) {
	factories[variant] = f
}

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string, opts Options) (Detector, error) {
	if variant == "" {
		variant = "color"
	}
	f, ok := factories[variant]
	if !ok {
		if variant == "opencv" {
			return nil, fmt.Errorf("opencv detector not compiled in (build with -tags gocv)")
		}
		return nil, fmt.Errorf("unknown detector variant: %s (available: %s)", variant, strings.Join(Variants(), ", "))
	}
	return f(opts)
}

// Variants lists the registered detector names.
func Variants() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
