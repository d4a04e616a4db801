package loader

import "github.com/Carmen-Shannon/oxy2d/common"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets the maximum number of parallel decode workers used by DecodeAll.
// Values <= 0 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithCache enables or disables the path-keyed decode cache. Enabled by default.
//
// Parameters:
//   - enabled: true to cache decode results
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithCache(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.cacheEnabled = enabled
	}
}

// WithMaxSize downsamples decoded images that exceed width or height, keeping the aspect ratio.
// Zero leaves an axis unbounded.
//
// Parameters:
//   - width: the maximum width in pixels
//   - height: the maximum height in pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the size limit to a loader
func WithMaxSize(width, height int) LoaderBuilderOption {
	return func(l *loader) {
		l.maxWidth = width
		l.maxHeight = height
	}
}

// WithImage pre-populates the cache with already-decoded pixels under key.
//
// Parameters:
//   - key: the cache key, usually a file path
//   - staging: the decoded pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the image option to a loader
func WithImage(key string, staging common.TextureStagingData) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = staging
	}
}
