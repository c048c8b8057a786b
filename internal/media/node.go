package media

// NodeKind names the role a node plays in a document graph.
type NodeKind string

const (
	KindRoot     NodeKind = "root"
	KindProducer NodeKind = "producer"
	KindChain    NodeKind = "chain"
	KindPlaylist NodeKind = "playlist"
	KindTractor  NodeKind = "tractor"
)

// Node is one vertex of a document graph. Composite kinds (root, playlist,
// tractor) carry children; leaf kinds (producer, chain) carry the Object with
// the producer's properties. The same *Object may hang off several nodes when
// a document references one producer from multiple playlists, so visitors
// must dedupe by Object identity rather than by position.
type Node struct {
	Kind     NodeKind
	ID       string
	Object   *Object
	Children []*Node
}

// IsLeaf reports whether the node carries a producer Object.
func (n *Node) IsLeaf() bool {
	return n != nil && n.Object != nil
}

// Append adds a child node and returns it, for loader convenience.
func (n *Node) Append(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}
