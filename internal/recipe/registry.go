package recipe

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultRecipe is used by definitions that do not name one.
const DefaultRecipe = "standard"

// errUnknownRecipe is returned by Lookup for unregistered names.
var errUnknownRecipe = errors.New("unknown recipe")

// Factory creates the recipe for a definition.
type Factory func(def *Definition) Recipe

// registry maps recipe names to factories. Entries are added here, not at run time.
//
//nolint:gochecknoglobals // Static registry.
var registry = map[string]Factory{
	DefaultRecipe: func(def *Definition) Recipe {
		return NewStandard(def)
	},
	"native": func(def *Definition) Recipe {
		return NewNative(def)
	},
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownRecipe, name)
	}

	return factory, nil
}

// Names returns the registered recipe names in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// For returns the recipe of a definition.
func For(def *Definition) (Recipe, error) {
	factory, err := Lookup(def.Recipe)
	if err != nil {
		return nil, err
	}

	return factory(def), nil
}
