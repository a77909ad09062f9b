// Package native opens the shared codec libraries at runtime and binds
// their C functions to Go function variables. No cgo is involved; a
// library which is not installed is reported as an error when a codec
// of that library is created, not when the program starts.
package native

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ebitengine/purego"
)

// ErrNotFound is returned when none of the candidate files of a library
// could be opened.
var ErrNotFound = errors.New("shared library not found")

// Library is an opened shared library.
type Library struct {
	Name   string
	Path   string
	handle uintptr
}

var (
	mu          sync.Mutex
	searchPath  []string
	openLibs    = make(map[string]*Library)
	openErrs    = make(map[string]error)
	envOverride = "REMOTECODEC_LIBRARY_PATH"
)

// SetSearchPath sets additional directories which are searched before the
// default locations of the dynamic linker. It must be called before the
// first library is opened.
func SetSearchPath(dirs ...string) {
	mu.Lock()
	defer mu.Unlock()
	searchPath = nil
	for _, d := range dirs {
		for _, p := range filepath.SplitList(d) {
			if p = strings.TrimSpace(p); p != "" {
				searchPath = append(searchPath, p)
			}
		}
	}
}

// candidates returns the files which are tried in order for a library
// with the given base names (e.g. "libspandsp").
func candidates(baseNames ...string) []string {
	ext := ".so"
	if runtime.GOOS == "darwin" {
		ext = ".dylib"
	}

	dirs := append([]string{}, searchPath...)
	if env := os.Getenv(envOverride); env != "" {
		dirs = append(dirs, filepath.SplitList(env)...)
	}

	var paths []string
	for _, dir := range dirs {
		for _, b := range baseNames {
			paths = append(paths, filepath.Join(dir, b+ext))
		}
	}

	// let the dynamic linker search its own paths
	for _, b := range baseNames {
		paths = append(paths, b+ext)
	}

	switch runtime.GOOS {
	case "darwin":
		for _, b := range baseNames {
			paths = append(paths,
				filepath.Join("/usr/local/lib", b+ext),
				filepath.Join("/opt/homebrew/lib", b+ext))
		}
	case "linux":
		for _, b := range baseNames {
			// distributions usually only ship the versioned file
			// without the -dev package
			for _, v := range []string{".so.3", ".so.2", ".so.1", ".so.0"} {
				paths = append(paths, b+v)
			}
		}
	}
	return paths
}

// Open opens the shared library name, trying the given base names. Opened
// libraries (and failures) are cached for the lifetime of the process.
func Open(name string, baseNames ...string) (*Library, error) {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := openLibs[name]; ok {
		return l, nil
	}
	if err, ok := openErrs[name]; ok {
		return nil, err
	}

	if len(baseNames) == 0 {
		baseNames = []string{name}
	}

	var lastErr error
	for _, path := range candidates(baseNames...) {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		l := &Library{
			Name:   name,
			Path:   path,
			handle: handle,
		}
		openLibs[name] = l
		return l, nil
	}

	err := fmt.Errorf("%s: %w", name, ErrNotFound)
	if lastErr != nil {
		err = fmt.Errorf("%s: %w (%v)", name, ErrNotFound, lastErr)
	}
	openErrs[name] = err
	return nil, err
}

// Bind binds the C function symbol to the Go function pointed to by fptr.
// Unlike purego.RegisterLibFunc a missing symbol is returned as an error.
func (l *Library) Bind(fptr interface{}, symbol string) error {
	sym, err := purego.Dlsym(l.handle, symbol)
	if err != nil {
		return fmt.Errorf("%s: symbol %s: %w", l.Name, symbol, err)
	}
	purego.RegisterFunc(fptr, sym)
	return nil
}

// binding is a function pointer and the name of its C symbol.
type binding struct {
	fptr   interface{}
	symbol string
}

func (l *Library) bindAll(bs []binding) error {
	for _, b := range bs {
		if err := l.Bind(b.fptr, b.symbol); err != nil {
			return err
		}
	}
	return nil
}

// loader opens a library once and binds its function table.
type loader struct {
	once sync.Once
	err  error
}

func (ld *loader) load(f func() error) error {
	ld.once.Do(func() {
		ld.err = f()
	})
	return ld.err
}
