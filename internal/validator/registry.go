package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrBlankFilename is returned by Select for an empty or whitespace-only name.
var ErrBlankFilename = errors.New("file name is blank")

// UnsupportedFormatError reports an extension with no registered strategy.
type UnsupportedFormatError struct {
	Extension string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file format: %s (supported: %s)", ext, strings.Join(e.Supported, ", "))
}

// Registry maps lower-cased file extensions to strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Default returns a registry with the csv and xlsx strategies.
func Default() *Registry {
	r := NewRegistry()
	r.Register("csv", CSV())
	r.Register("xlsx", XLSX())
	return r
}

// Register binds ext (without the dot, any case) to s, replacing a previous binding.
func (r *Registry) Register(ext string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[strings.ToLower(strings.TrimPrefix(ext, "."))] = s
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.strategies))
	for ext := range r.strategies {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Select picks the strategy for filename by its extension.
func (r *Registry) Select(filename string) (Strategy, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrBlankFilename
	}

	ext := strings.ToLower(Extension(filename))

	r.mu.RLock()
	s, ok := r.strategies[ext]
	r.mu.RUnlock()
	if !ok || ext == "" {
		return nil, &UnsupportedFormatError{Extension: ext, Supported: r.Extensions()}
	}
	return s, nil
}

// Extension returns the text after the last dot, or "" when there is no dot
// or the dot is the final character.
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return filename[i+1:]
}
