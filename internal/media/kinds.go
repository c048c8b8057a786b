package media

import "strings"

// IsAVFormat reports whether the object is backed by the libavformat producer
// family (avformat, avformat-novalidate, and friends).
func IsAVFormat(o *Object) bool {
	return strings.HasPrefix(o.Get(PropService), "avformat")
}

// IsValidImage reports whether the object is a still image that can be
// proxied. Image sequences masquerade as stills but need frame-accurate
// playback, so they are excluded.
func IsValidImage(o *Object) bool {
	service := o.Get(PropService)
	if service != "qimage" && service != "pixbuf" {
		return false
	}
	return !o.Has(PropSequence)
}

// IsTimewarp reports whether the object is a speed-change wrapper around
// another resource.
func IsTimewarp(o *Object) bool {
	return o.Get(PropService) == "timewarp"
}
