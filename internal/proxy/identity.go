package proxy

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"standin/internal/media"
)

// File name suffixes for proxies in their two lifecycle states. The pending
// suffixes are distinct per kind so a crashed image render can never be
// mistaken for a finished file.
const (
	VideoExtension        = ".mp4"
	PendingVideoExtension = ".pending.mp4"
	ImageExtension        = ".jpg"
	PendingImageExtension = ".pending.jpg"
)

// Kind distinguishes the video and still image proxy pipelines.
type Kind int

const (
	KindVideo Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "video"
}

// Identity ties a producer to its proxy file names. Derived on demand, never
// stored.
type Identity struct {
	Hash        string
	Kind        Kind
	FileName    string
	PendingName string
}

// EffectiveResource returns the path that identifies a producer's source
// media: a proxied producer unwraps to its original resource, a timewarp
// wrapper to the resource it wraps.
func EffectiveResource(obj *media.Object) string {
	if obj.GetInt(media.PropIsProxy) != 0 {
		if original := obj.Get(media.PropOriginalResource); original != "" {
			return original
		}
	}
	if media.IsTimewarp(obj) {
		return obj.Get(media.PropWarpResource)
	}
	return obj.Get(media.PropResource)
}

// ContentHash fingerprints a producer's identity. The hash covers the
// effective resource path rather than pixel content, so editing a file in
// place keeps its proxy while renaming the file orphans it. The result is
// cached on the object.
func ContentHash(obj *media.Object) string {
	if cached := obj.Get(media.PropHash); cached != "" {
		return cached
	}
	sum := sha256.Sum256([]byte(EffectiveResource(obj)))
	hash := hex.EncodeToString(sum[:])
	obj.Set(media.PropHash, hash)
	return hash
}

// Resolve derives the proxy identity for a producer. It always succeeds for
// a valid object; whether the named files exist is a separate question.
func Resolve(obj *media.Object) Identity {
	id := Identity{Hash: ContentHash(obj), Kind: KindVideo}
	if media.IsValidImage(obj) {
		id.Kind = KindImage
	}
	switch id.Kind {
	case KindImage:
		id.FileName = id.Hash + ImageExtension
		id.PendingName = id.Hash + PendingImageExtension
	default:
		id.FileName = id.Hash + VideoExtension
		id.PendingName = id.Hash + PendingVideoExtension
	}
	return id
}

// FinalName converts a pending proxy path to the final path its rename
// produces.
func FinalName(pendingPath string) string {
	dir, base := filepath.Split(pendingPath)
	return dir + strings.Replace(base, ".pending.", ".", 1)
}
