// Package dispatch maps command names and string arguments to
// registered functions. Typed functions can be registered directly;
// their arguments are parsed from the string form before the call.
package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Func is the native call interface. Implementations receive the raw
// string arguments and render their result back to a string.
type Func func(args []string) (string, error)

type command struct {
	fn    Func
	nargs int
}

// Dispatcher is a registry of named commands. It is safe for
// concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	commands map[string]command
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		commands: make(map[string]command),
	}
}

// Add registers a command under name. The command must be called with
// exactly nargs arguments.
func (d *Dispatcher) Add(name string, fn Func, nargs int) error {
	if name == "" {
		return errors.New("command name must not be empty")
	}
	if nargs < 0 {
		return fmt.Errorf("command %q: negative argument count %d", name, nargs)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	d.commands[name] = command{fn: fn, nargs: nargs}
	return nil
}

// Call invokes the named command with the given arguments.
func (d *Dispatcher) Call(name string, args []string) (string, error) {
	d.mu.RLock()
	cmd, exists := d.commands[name]
	d.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("unknown command %q", name)
	}
	if len(args) != cmd.nargs {
		return "", fmt.Errorf("command %q expects %d arguments but %d given",
			name, cmd.nargs, len(args))
	}
	return cmd.fn(args)
}

// Names returns the registered command names in sorted order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
