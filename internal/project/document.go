package project

import (
	"encoding/xml"
	"os"
	"path/filepath"

	"standin/internal/media"
	"standin/internal/services"
)

// Document is a loaded project file: the node graph for proxy generation
// plus an id table for looking up individual producers.
type Document struct {
	Path    string
	Root    *media.Node
	Objects map[string]*media.Object
}

// Dir returns the directory holding the project file. Project-local proxies
// live in a subfolder of this directory.
func (d *Document) Dir() string {
	return filepath.Dir(d.Path)
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlLeaf struct {
	ID         string        `xml:"id,attr"`
	Properties []xmlProperty `xml:"property"`
}

type xmlRef struct {
	Producer string `xml:"producer,attr"`
}

type xmlPlaylist struct {
	ID      string   `xml:"id,attr"`
	Entries []xmlRef `xml:"entry"`
}

type xmlTractor struct {
	ID     string   `xml:"id,attr"`
	Tracks []xmlRef `xml:"track"`
}

type xmlDocument struct {
	XMLName   xml.Name      `xml:"mlt"`
	Producers []xmlLeaf     `xml:"producer"`
	Chains    []xmlLeaf     `xml:"chain"`
	Playlists []xmlPlaylist `xml:"playlist"`
	Tractors  []xmlTractor  `xml:"tractor"`
}

// Load parses the project file at path into a document graph. Only the
// elements that matter for proxying are modeled: producers and chains become
// leaf nodes, playlists and tractors become composites whose entry and track
// references resolve through the id table to the already-loaded nodes, so a
// producer used in several places appears once per use but carries a single
// shared Object.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "project", "load", "read document", err)
	}
	parsed := &xmlDocument{}
	if err := xml.Unmarshal(data, parsed); err != nil {
		return nil, services.Wrap(services.ErrValidation, "project", "load", "parse document", err)
	}
	return build(path, parsed), nil
}

func build(path string, parsed *xmlDocument) *Document {
	root := &media.Node{Kind: media.KindRoot}
	document := &Document{Path: path, Root: root, Objects: map[string]*media.Object{}}
	nodes := map[string]*media.Node{}

	addLeaf := func(kind media.NodeKind, leaf xmlLeaf) {
		props := make(map[string]string, len(leaf.Properties))
		for _, p := range leaf.Properties {
			props[p.Name] = p.Value
		}
		node := &media.Node{Kind: kind, ID: leaf.ID, Object: media.NewObject(props)}
		if leaf.ID != "" {
			document.Objects[leaf.ID] = node.Object
			nodes[leaf.ID] = node
		}
		root.Append(node)
	}
	for _, p := range parsed.Producers {
		addLeaf(media.KindProducer, p)
	}
	for _, c := range parsed.Chains {
		addLeaf(media.KindChain, c)
	}

	// References resolve only to nodes registered before them, so the graph
	// can never contain a cycle. Blank playlist entries have no producer
	// attribute and fall through the lookup.
	for _, playlist := range parsed.Playlists {
		node := &media.Node{Kind: media.KindPlaylist, ID: playlist.ID}
		for _, entry := range playlist.Entries {
			if target, ok := nodes[entry.Producer]; ok {
				node.Append(target)
			}
		}
		if playlist.ID != "" {
			nodes[playlist.ID] = node
		}
		root.Append(node)
	}
	for _, tractor := range parsed.Tractors {
		node := &media.Node{Kind: media.KindTractor, ID: tractor.ID}
		for _, track := range tractor.Tracks {
			if target, ok := nodes[track.Producer]; ok {
				node.Append(target)
			}
		}
		if tractor.ID != "" {
			nodes[tractor.ID] = node
		}
		root.Append(node)
	}
	return document
}
