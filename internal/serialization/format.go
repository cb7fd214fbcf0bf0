package serialization

// Format constants.
const (
	MagicBytes    = "GNET"
	FormatVersion = 1

	// Sanity bounds applied before any allocation, so a corrupted or
	// hostile header cannot request absurd buffers.
	maxLayerCount = 1 << 10
	maxLayerDim   = 1 << 24
)
