package media

// Framework property keys read from producers. These match the MLT names the
// documents already carry.
const (
	PropResource       = "resource"
	PropService        = "mlt_service"
	PropWarpResource   = "warp_resource"
	PropWarpSpeed      = "warp_speed"
	PropAudioIndex     = "audio_index"
	PropVideoIndex     = "video_index"
	PropMetaWidth      = "meta.media.width"
	PropMetaHeight     = "meta.media.height"
	PropMetaColorspace = "meta.media.colorspace"
	PropMetaColorRange = "meta.media.color_range"
	PropMetaDuration   = "meta.media.duration"
)

// Property keys standin owns. The standin: namespace keeps them from colliding
// with framework properties when documents are serialized.
const (
	// PropIsProxy marks a producer whose resource currently points at a proxy.
	PropIsProxy = "standin:proxy"
	// PropOriginalResource preserves the pre-proxy resource. Present iff
	// PropIsProxy is set.
	PropOriginalResource = "standin:originalResource"
	// PropDisableProxy makes a producer immune to lifecycle decisions.
	PropDisableProxy = "standin:disableProxy"
	// PropSequence marks a still-image producer that is really a synthetic
	// image sequence, which is never proxied.
	PropSequence = "standin:sequence"
	// PropHash caches the content hash so repeated resolves are cheap.
	PropHash = "standin:hash"
)
