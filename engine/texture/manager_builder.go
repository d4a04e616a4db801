package texture

import "github.com/Carmen-Shannon/oxy2d/engine/loader"

// ManagerBuilderOption is a functional option for configuring a Manager via NewManager.
type ManagerBuilderOption func(*manager)

// WithMinAtlasSize sets the smallest atlas size BufferDimensionsRequired reports.
// Zero values keep the 256x256 default.
//
// Parameters:
//   - width: minimum atlas width in texels
//   - height: minimum atlas height in texels
//
// Returns:
//   - ManagerBuilderOption: a function that applies the atlas size option to a manager
func WithMinAtlasSize(width, height uint32) ManagerBuilderOption {
	return func(m *manager) {
		if width > 0 {
			m.atlasWidth = width
		}
		if height > 0 {
			m.atlasHeight = height
		}
	}
}

// WithLoader sets the image loader used by CreateTextureFromFile and CreateTexturesFromFiles.
// When unset a default loader is created.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - ManagerBuilderOption: a function that applies the loader option to a manager
func WithLoader(l loader.Loader) ManagerBuilderOption {
	return func(m *manager) {
		m.loader = l
	}
}
