package ffprobe

import (
	"context"
	"errors"

	"standin/internal/media"
)

// Loader probes media files and projects the results onto producer objects.
// It satisfies the lifecycle's metadata interface.
type Loader struct {
	binary string
}

// NewLoader returns a Loader that runs the given ffprobe binary. An empty
// binary falls back to "ffprobe" from PATH.
func NewLoader(binary string) *Loader {
	return &Loader{binary: binary}
}

// Load inspects the object's source file and fills in the meta.media.*
// properties. Timewarp wrappers are probed through the resource they wrap.
func (l *Loader) Load(ctx context.Context, obj *media.Object) error {
	path := obj.Get(media.PropResource)
	if media.IsTimewarp(obj) {
		path = obj.Get(media.PropWarpResource)
	}
	if path == "" {
		return errors.New("ffprobe load: object has no resource")
	}
	result, err := Inspect(ctx, l.binary, path)
	if err != nil {
		return err
	}
	Apply(result, obj)
	return nil
}
