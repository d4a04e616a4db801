package loader

import (
	"image"
	"io"

	"github.com/Carmen-Shannon/oxy2d/common"
)

// loaderBackend decodes one encoded image stream into tightly packed RGBA staging data.
// Concrete implementations (e.g., imageLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Decode reads an encoded image from r.
	//
	// Parameters:
	//   - r: the reader providing encoded image bytes
	//
	// Returns:
	//   - common.TextureStagingData: the decoded RGBA pixels and dimensions
	//   - string: the format name reported by the decoder (e.g. "png")
	//   - error: error if the stream is not a supported image
	Decode(r io.Reader) (common.TextureStagingData, string, error)

	// Convert packs an already-decoded image into RGBA staging data.
	//
	// Parameters:
	//   - img: the source image
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA pixels and dimensions
	Convert(img image.Image) common.TextureStagingData
}
