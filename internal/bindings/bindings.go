//go:build !ios && !android && (amd64 || arm64)

// Package bindings handles locating and loading the libdav1d shared library
// using purego.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/dav1dgo/internal/platform"
)

// ErrNotLoaded is returned when dav1d functions are called before Load().
var ErrNotLoaded = errors.New("dav1dgo: libdav1d not loaded; call dav1dgo.Init() first")

// ErrLibraryNotFound is returned when libdav1d cannot be found.
var ErrLibraryNotFound = errors.New("dav1dgo: libdav1d not found")

// sonameVersions lists the libdav1d sonames we accept, newest first.
// soname 5 corresponds to the 0.9.x releases whose settings ABI (separate
// frame/tile thread counts) this package is written against.
var sonameVersions = []int{5, 4}

var (
	libDav1d uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

var dav1dVersion func() string

// IsLoaded returns true if libdav1d has been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load loads libdav1d and registers the version binding.
// It is safe to call multiple times; subsequent calls are no-ops.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	lib, err := loadLibrary("dav1d", sonameVersions)
	if err != nil {
		return fmt.Errorf("loading libdav1d: %w", err)
	}
	libDav1d = lib

	purego.RegisterLibFunc(&dav1dVersion, libDav1d, "dav1d_version")
	return nil
}

// loadLibrary attempts to load a library by trying versioned names.
func loadLibrary(name string, versions []int) (uintptr, error) {
	// Try each search path
	for _, searchPath := range LibrarySearchPaths() {
		// Versioned names first (more specific)
		for _, ver := range versions {
			libName := platform.FormatLibraryName(name, ver)
			fullPath := filepath.Join(searchPath, libName)

			lib, err := tryOpen(fullPath)
			if err == nil {
				return lib, nil
			}
		}

		// Unversioned name
		libName := platform.FormatLibraryName(name, 0)
		fullPath := filepath.Join(searchPath, libName)
		lib, err := tryOpen(fullPath)
		if err == nil {
			return lib, nil
		}
	}

	// Bare library names (let the dynamic linker find it)
	for _, ver := range versions {
		libName := platform.FormatLibraryName(name, ver)
		lib, err := tryOpen(libName)
		if err == nil {
			return lib, nil
		}
	}

	libName := platform.FormatLibraryName(name, 0)
	lib, err := tryOpen(libName)
	if err == nil {
		return lib, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// tryOpen attempts to open a library with RTLD_NOW | RTLD_GLOBAL.
func tryOpen(path string) (uintptr, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return lib, nil
}

// FindLibrary searches for libdav1d and returns its full path.
// This is useful for diagnostics.
func FindLibrary() (string, error) {
	for _, searchPath := range LibrarySearchPaths() {
		for _, ver := range sonameVersions {
			libName := platform.FormatLibraryName("dav1d", ver)
			fullPath := filepath.Join(searchPath, libName)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
		libName := platform.FormatLibraryName("dav1d", 0)
		fullPath := filepath.Join(searchPath, libName)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("%w: dav1d", ErrLibraryNotFound)
}

// LibrarySearchPaths returns platform-specific library search paths.
func LibrarySearchPaths() []string {
	var paths []string

	// Explicit override first
	if envPath := os.Getenv("DAV1D_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}

	switch runtime.GOOS {
	case "linux":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)

	case "darwin":
		if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
			paths = append(paths, filepath.SplitList(dyldPath)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib", // Apple Silicon
			"/usr/local/lib",    // Intel
			"/opt/homebrew/opt/dav1d/lib",
			"/usr/local/opt/dav1d/lib",
		)

	case "windows":
		if winPath := os.Getenv("PATH"); winPath != "" {
			paths = append(paths, filepath.SplitList(winPath)...)
		}
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}

	case "freebsd":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/local/lib",
			"/usr/lib",
		)
	}

	return paths
}

// Version returns the dav1d version string, or "" if not loaded.
func Version() string {
	if !loaded || dav1dVersion == nil {
		return ""
	}
	return dav1dVersion()
}

// LibDav1d returns the libdav1d library handle.
func LibDav1d() uintptr {
	return libDav1d
}
