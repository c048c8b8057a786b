package proxy

import (
	"context"
	"errors"

	"standin/internal/media"
)

// Walk applies the lifecycle to every leaf producer in the graph that is not
// already proxy-flagged, and returns how many producers it handled. The same
// Object may hang off several nodes when a clip is used more than once; the
// visited set keys on Object identity so each producer is handled exactly
// once. After each visit the producer is flagged regardless of outcome, so
// neither the rest of this walk nor a later one revisits it.
//
// Walk uses the finalize-only path: finished files land in the cache without
// retargeting producers, since batch generation runs against a document
// rather than a live edit session.
func (m *Manager) Walk(ctx context.Context, root *media.Node) (int, error) {
	if root == nil {
		return 0, nil
	}
	visited := make(map[*media.Object]bool)
	stack := []*media.Node{root}
	visits := 0
	var errs []error

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}

		obj := node.Object
		if obj == nil || visited[obj] {
			continue
		}
		visited[obj] = true
		if obj.GetInt(media.PropIsProxy) != 0 {
			continue
		}

		visits++
		if _, err := m.GenerateIfMissing(ctx, obj, false); err != nil {
			errs = append(errs, err)
		}
		obj.SetInt(media.PropIsProxy, 1)
	}
	return visits, errors.Join(errs...)
}
