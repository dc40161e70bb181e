package logger

import (
	"sync"
)

// registry is the global named-logger registry.
var registry = &loggerRegistry{
	loggers: make(map[string]*Logger),
}

type loggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

// Register stores a named logger in the registry. Pipelines created with
// WithName look up their logger here before falling back to the
// "pipeline" component logger.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// Unregister removes a named logger from the registry.
func Unregister(name string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.loggers, name)
}

// Lookup returns the registered logger for name, if any.
func Lookup(name string) (*Logger, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	l, ok := registry.loggers[name]
	return l, ok
}

// Get retrieves a named logger. If the name is not registered it returns the
// global logger tagged with the requested component name.
func Get(name string) *Logger {
	if l, ok := Lookup(name); ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
