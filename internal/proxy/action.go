package proxy

import (
	"context"
	"os"
	"path/filepath"

	"standin/internal/media"
	"standin/internal/services"
)

// FinalizeAction renames a finished pending file to its final name,
// completing the cache entry without touching any in-memory producer. Used
// for batch pre-generation, where retargeting a clip mid-edit would be
// unwelcome.
type FinalizeAction struct {
	PendingPath string
}

// OnSuccess implements jobs.Action.
func (a *FinalizeAction) OnSuccess(ctx context.Context) error {
	if err := finalize(a.PendingPath); err != nil {
		return err
	}
	return nil
}

// Describe implements jobs.Action.
func (a *FinalizeAction) Describe() string {
	return "finalize " + filepath.Base(FinalName(a.PendingPath))
}

// ReplaceAction finalizes the file and then retargets the originating
// producer at it, recording the original resource so the swap can be
// reversed at save time. The mutation is applied as one step; readers of the
// object never observe a proxy resource without its markers.
type ReplaceAction struct {
	Object      *media.Object
	PendingPath string
}

// OnSuccess implements jobs.Action.
func (a *ReplaceAction) OnSuccess(ctx context.Context) error {
	if err := finalize(a.PendingPath); err != nil {
		return err
	}
	finalPath := FinalName(a.PendingPath)
	a.Object.Update(func(props map[string]string) {
		props[media.PropIsProxy] = "1"
		props[media.PropOriginalResource] = props[media.PropResource]
		props[media.PropResource] = finalPath
	})
	return nil
}

// Describe implements jobs.Action.
func (a *ReplaceAction) Describe() string {
	return "replace with " + filepath.Base(FinalName(a.PendingPath))
}

func finalize(pendingPath string) error {
	if err := os.Rename(pendingPath, FinalName(pendingPath)); err != nil {
		return services.Wrap(services.ErrIO, "proxy", "finalize", "rename finished proxy", err)
	}
	return nil
}
