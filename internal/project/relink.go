package project

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"standin/internal/logging"
	"standin/internal/media"
	"standin/internal/services"
)

// Relink streams the document at path through the proxy rewrite: producers
// tagged as proxies are pointed back at their original resources and the
// proxy bookkeeping properties are removed, with paths under root made
// relative. The result is written to a fresh file beside the document and its
// path returned; the caller decides whether to replace the original. On any
// parse error the partial output is removed and the original left untouched.
func Relink(path, root string, logger *slog.Logger) (string, error) {
	logger = logging.NewComponentLogger(logger, "relink")

	source, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "project", "relink", "open document", err)
	}
	defer source.Close()

	temp, err := os.CreateTemp(filepath.Dir(path), "standin-*.mlt")
	if err != nil {
		return "", services.Wrap(services.ErrIO, "project", "relink", "create temp file", err)
	}
	if err := rewrite(source, temp, root); err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return "", services.Wrap(services.ErrValidation, "project", "relink", "rewrite document", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(temp.Name())
		return "", services.Wrap(services.ErrIO, "project", "relink", "finish temp file", err)
	}

	logger.Debug("document rewritten",
		logging.String(logging.FieldProject, path),
		logging.String(logging.FieldDest, temp.Name()))
	return temp.Name(), nil
}

type property struct {
	name  string
	value string
}

// rewrite copies the XML event stream from r to w. Property children of each
// element are buffered as ordered pairs and flushed, possibly rewritten,
// before the next sibling element starts and before the enclosing element
// ends. Everything else passes through; inter-element whitespace is dropped
// and regenerated by the encoder's indenting.
func rewrite(r io.Reader, w io.Writer, root string) error {
	decoder := xml.NewDecoder(r)
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	var buffered []property
	inProperty := false
	var propName string
	var propText strings.Builder

	flush := func() error {
		if len(buffered) == 0 {
			return nil
		}
		for _, p := range rewriteProperties(buffered, root) {
			start := xml.StartElement{
				Name: xml.Name{Local: "property"},
				Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: p.name}},
			}
			if err := encoder.EncodeToken(start); err != nil {
				return err
			}
			if p.value != "" {
				if err := encoder.EncodeToken(xml.CharData(p.value)); err != nil {
					return err
				}
			}
			if err := encoder.EncodeToken(xml.EndElement{Name: start.Name}); err != nil {
				return err
			}
		}
		buffered = buffered[:0]
		return nil
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if inProperty {
				return fmt.Errorf("unexpected element %q inside property", t.Name.Local)
			}
			if t.Name.Local == "property" {
				inProperty = true
				propName = attrValue(t, "name")
				propText.Reset()
				continue
			}
			if err := flush(); err != nil {
				return err
			}
			if err := encoder.EncodeToken(t); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "property" {
				buffered = append(buffered, property{name: propName, value: propText.String()})
				inProperty = false
				continue
			}
			if err := flush(); err != nil {
				return err
			}
			if err := encoder.EncodeToken(t); err != nil {
				return err
			}
		case xml.CharData:
			if inProperty {
				propText.Write(t)
				continue
			}
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			if err := flush(); err != nil {
				return err
			}
			if err := encoder.EncodeToken(t); err != nil {
				return err
			}
		case xml.Comment, xml.Directive, xml.ProcInst:
			if inProperty {
				continue
			}
			if err := encoder.EncodeToken(token); err != nil {
				return err
			}
		}
	}
	return encoder.Flush()
}

// rewriteProperties applies the proxy unwrap to one element's property list.
// Elements without the proxy marker pass through unchanged; marked elements
// get their resource pointed back at the original, keep their property order,
// and lose the bookkeeping properties.
func rewriteProperties(props []property, root string) []property {
	isProxy := false
	newResource := ""
	service := ""
	speed := "1"
	for _, p := range props {
		switch {
		case p.name == media.PropIsProxy:
			isProxy = true
		case p.name == media.PropOriginalResource:
			newResource = p.value
		case newResource == "" && p.name == media.PropResource:
			newResource = p.value
		case p.name == media.PropService:
			service = p.value
		case p.name == media.PropWarpSpeed:
			speed = p.value
		}
	}
	if !isProxy {
		return props
	}

	newResource = relativize(newResource, root)
	out := make([]property, 0, len(props))
	for _, p := range props {
		switch p.name {
		case media.PropResource:
			if service == "timewarp" {
				out = append(out, property{name: p.name, value: speed + ":" + newResource})
			} else {
				out = append(out, property{name: p.name, value: newResource})
			}
		case media.PropWarpResource:
			out = append(out, property{name: p.name, value: newResource})
		case media.PropIsProxy, media.PropOriginalResource:
			// dropped on save
		default:
			out = append(out, p)
		}
	}
	return out
}

// relativize strips the project root prefix, plus its trailing separator,
// from resource.
func relativize(resource, root string) string {
	if root == "" || !strings.HasPrefix(resource, root) {
		return resource
	}
	if strings.HasSuffix(root, "/") {
		return resource[len(root):]
	}
	if len(resource) > len(root) {
		return resource[len(root)+1:]
	}
	return ""
}

func attrValue(element xml.StartElement, name string) string {
	for _, attr := range element.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
