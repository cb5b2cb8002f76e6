package binding

import (
	"fmt"
	"slices"

	"github.com/tlauterbach/potato-eval/pkg/potato/registry"
	"github.com/tlauterbach/potato-eval/pkg/potato/value"
)

// Library is a reusable set of host functions built once and imported into
// any number of Tables. It is safe for concurrent use.
type Library struct {
	funcs *registry.Registry[string, Func]
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{funcs: registry.New[string, Func]()}
}

// Register adds fn under name. Names must be valid identifiers and unique
// within the library.
func (l *Library) Register(name string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("binding: nil function %q", name)
	}
	if _, err := value.NewAddress(name); err != nil {
		return fmt.Errorf("binding: invalid function name %q", name)
	}
	if l.funcs.Has(name) {
		return fmt.Errorf("binding: function %q already registered", name)
	}
	l.funcs.Register(name, fn)
	return nil
}

// MustRegister is like Register but panics on error.
func (l *Library) MustRegister(name string, fn Func) *Library {
	if err := l.Register(name, fn); err != nil {
		panic(err)
	}
	return l
}

// Get returns the function registered under name.
func (l *Library) Get(name string) (Func, bool) {
	return l.funcs.Get(name)
}

// Names returns the registered names in sorted order.
func (l *Library) Names() []string {
	names := l.funcs.Keys()
	slices.Sort(names)
	return names
}

// Len returns the number of registered functions.
func (l *Library) Len() int {
	return l.funcs.Len()
}
