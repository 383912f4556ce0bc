package domain

// Size is an output size accepted by the images API
type Size string

const (
	SizeSquare    Size = "1024x1024"
	SizeLandscape Size = "1536x1024"
	SizePortrait  Size = "1024x1536"
	SizeAuto      Size = "auto"
)

// Size choices offered by the form besides the concrete sizes
const (
	ChoiceMatchUpload = "match_upload"
	ChoiceAuto        = "auto"
)

// DefaultSize is used when nothing better can be derived
const DefaultSize = SizeSquare

var allowedSizes = map[Size]bool{
	SizeSquare:    true,
	SizeLandscape: true,
	SizePortrait:  true,
}

// IsAllowedSize reports whether s is one of the three concrete sizes
func IsAllowedSize(s string) bool {
	return allowedSizes[Size(s)]
}

// SizeForRatio maps a width/height ratio onto a size bucket.
// Ratios in [0.9, 1.1] count as square.
func SizeForRatio(ratio float64) Size {
	switch {
	case ratio >= 0.9 && ratio <= 1.1:
		return SizeSquare
	case ratio > 1.1:
		return SizeLandscape
	default:
		return SizePortrait
	}
}

// ResolveSize picks the output size for a request.
//
// With a source image, match_upload and auto follow the image's ratio and a
// concrete size is honored. Without one, a concrete size or auto is passed
// through. Everything else falls back to DefaultSize.
func ResolveSize(choice string, ratio float64, hasImage bool) Size {
	if hasImage {
		if choice == ChoiceMatchUpload || choice == ChoiceAuto {
			return SizeForRatio(ratio)
		}
		if IsAllowedSize(choice) {
			return Size(choice)
		}
		return DefaultSize
	}

	if IsAllowedSize(choice) {
		return Size(choice)
	}
	if choice == ChoiceAuto {
		return SizeAuto
	}
	return DefaultSize
}
