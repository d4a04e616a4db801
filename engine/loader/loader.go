package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy2d/common"
)

// ErrDecode wraps every failure to turn a file or byte stream into pixels.
var ErrDecode = errors.New("loader: decode failed")

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache        map[string]common.TextureStagingData
	cacheEnabled bool

	workers  int
	poolOnce sync.Once
	pool     worker.DynamicWorkerPool

	maxWidth, maxHeight int

	backend loaderBackend
}

// Loader decodes image files into RGBA staging data for texture creation and caches the
// results by path. A decode failure only affects the call that requested it.
type Loader interface {
	// Decode reads and decodes the image at path.
	// If the image is already cached (by file path), the cached pixels are returned.
	//
	// Parameters:
	//   - path: the file path to the image
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA pixels and dimensions
	//   - error: error wrapping ErrDecode if the file cannot be read or decoded
	Decode(path string) (common.TextureStagingData, error)

	// DecodeBytes decodes an in-memory encoded image without caching it.
	//
	// Parameters:
	//   - data: the encoded image bytes (PNG, JPEG, GIF, BMP, TIFF or WebP)
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA pixels and dimensions
	//   - error: error wrapping ErrDecode if the bytes are not a supported image
	DecodeBytes(data []byte) (common.TextureStagingData, error)

	// DecodeAll decodes every path in parallel on the loader's worker pool.
	// Results are returned in argument order. When any path fails, the returned error joins
	// every failure and the slice holds zero values at the failed positions.
	//
	// Parameters:
	//   - paths: the file paths to decode
	//
	// Returns:
	//   - []common.TextureStagingData: the decoded images, index-aligned with paths
	//   - error: the joined decode errors, or nil
	DecodeAll(paths ...string) ([]common.TextureStagingData, error)

	// Cached reports whether path has a cached decode result.
	//
	// Parameters:
	//   - path: the file path to look up
	//
	// Returns:
	//   - bool: true if cached
	Cached(path string) bool

	// Evict drops the cached decode result for path, if any.
	//
	// Parameters:
	//   - path: the file path to evict
	Evict(path string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache:        make(map[string]common.TextureStagingData),
		cacheEnabled: true,
		workers:      max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(l)
	}
	l.backend = newImageLoaderBackend(l.maxWidth, l.maxHeight)
	return l
}

func (l *loader) Decode(path string) (common.TextureStagingData, error) {
	if l.cacheEnabled {
		l.mu.RLock()
		cached, ok := l.cache[path]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	staging, format, err := l.backend.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	common.Logger().Debug("image decoded", "path", path, "format", format, "width", staging.Width, "height", staging.Height)

	if l.cacheEnabled {
		l.mu.Lock()
		l.cache[path] = staging
		l.mu.Unlock()
	}
	return staging, nil
}

func (l *loader) DecodeBytes(data []byte) (common.TextureStagingData, error) {
	staging, _, err := l.backend.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return staging, nil
}

func (l *loader) DecodeAll(paths ...string) ([]common.TextureStagingData, error) {
	results := make([]common.TextureStagingData, len(paths))
	errs := make([]error, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	l.poolOnce.Do(func() {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	})

	// The WaitGroup is the barrier; pool.Wait() blocks until workers idle-exit.
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path
		l.pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: p,
			Do: func() (any, error) {
				defer wg.Done()
				results[idx], errs[idx] = l.Decode(p)
				return nil, nil
			},
		})
	}
	wg.Wait()

	return results, errors.Join(errs...)
}

func (l *loader) Cached(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cache[path]
	return ok
}

func (l *loader) Evict(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}
