package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"standin/internal/logging"
	"standin/internal/services"
)

func TestRewritePropertiesPassthrough(t *testing.T) {
	in := []property{
		{name: "resource", value: "/media/a.mov"},
		{name: "mlt_service", value: "avformat"},
		{name: "kdenlive:clipname", value: "a.mov"},
	}
	out := rewriteProperties(in, "/media")
	if !reflect.DeepEqual(out, in) {
		t.Errorf("untagged properties changed: %v", out)
	}
}

func TestRewritePropertiesUnwrapsProxy(t *testing.T) {
	in := []property{
		{name: "standin:proxy", value: "1"},
		{name: "standin:originalResource", value: "/root/a.mov"},
		{name: "resource", value: "/proxies/0123abcd.mp4"},
		{name: "mlt_service", value: "avformat"},
	}
	want := []property{
		{name: "resource", value: "a.mov"},
		{name: "mlt_service", value: "avformat"},
	}
	if out := rewriteProperties(in, "/root"); !reflect.DeepEqual(out, want) {
		t.Errorf("rewriteProperties = %v, want %v", out, want)
	}
}

func TestRewritePropertiesTimewarp(t *testing.T) {
	in := []property{
		{name: "standin:proxy", value: "1"},
		{name: "standin:originalResource", value: "/root/a.mov"},
		{name: "mlt_service", value: "timewarp"},
		{name: "warp_speed", value: "2"},
		{name: "resource", value: "/proxies/0123abcd.mp4"},
		{name: "warp_resource", value: "/proxies/0123abcd.mp4"},
	}
	want := []property{
		{name: "mlt_service", value: "timewarp"},
		{name: "warp_speed", value: "2"},
		{name: "resource", value: "2:a.mov"},
		{name: "warp_resource", value: "a.mov"},
	}
	if out := rewriteProperties(in, "/root"); !reflect.DeepEqual(out, want) {
		t.Errorf("rewriteProperties = %v, want %v", out, want)
	}
}

func TestRewritePropertiesWithoutOriginalResource(t *testing.T) {
	// A marked element missing the original-resource property falls back to
	// its first resource value.
	in := []property{
		{name: "standin:proxy", value: "1"},
		{name: "resource", value: "/root/a.mov"},
		{name: "mlt_service", value: "avformat"},
	}
	out := rewriteProperties(in, "/root")
	if len(out) != 2 || out[0].value != "a.mov" {
		t.Errorf("rewriteProperties = %v", out)
	}
}

func TestRelativize(t *testing.T) {
	cases := []struct {
		resource, root, want string
	}{
		{"/media/clips/a.mov", "/media/clips", "a.mov"},
		{"/media/clips/a.mov", "/media/clips/", "a.mov"},
		{"/media/clips/sub/a.mov", "/media/clips", "sub/a.mov"},
		{"/media/clips/a.mov", "", "/media/clips/a.mov"},
		{"/elsewhere/a.mov", "/media/clips", "/elsewhere/a.mov"},
		{"/media/clips", "/media/clips", ""},
	}
	for _, tc := range cases {
		if got := relativize(tc.resource, tc.root); got != tc.want {
			t.Errorf("relativize(%q, %q) = %q, want %q", tc.resource, tc.root, got, tc.want)
		}
	}
}

const proxiedProject = `<?xml version="1.0" standalone="no"?>
<mlt LC_NUMERIC="C" version="7.9.0" producer="main_bin">
  <profile width="1920" height="1080"/>
  <!-- edited with proxies -->
  <producer id="producer0" in="0" out="119">
    <property name="standin:proxy">1</property>
    <property name="standin:originalResource">/media/a.mov</property>
    <property name="resource">/cache/proxies/0123abcd.mp4</property>
    <property name="mlt_service">avformat</property>
  </producer>
  <producer id="producer1">
    <property name="resource">/media/b.png</property>
    <property name="mlt_service">qimage</property>
  </producer>
  <playlist id="main_bin">
    <property name="xml_retain">1</property>
    <entry producer="producer0" in="0" out="119"/>
    <property name="autoclose">1</property>
  </playlist>
</mlt>
`

func TestRelinkRewritesDocument(t *testing.T) {
	path := writeProject(t, proxiedProject)

	out, err := Relink(path, "/media", logging.NewNop())
	if err != nil {
		t.Fatalf("Relink: %v", err)
	}
	if filepath.Dir(out) != filepath.Dir(path) {
		t.Errorf("temp file %q not beside document %q", out, path)
	}
	base := filepath.Base(out)
	if !strings.HasPrefix(base, "standin-") || !strings.HasSuffix(base, ".mlt") {
		t.Errorf("temp file name %q", base)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `<property name="resource">a.mov</property>`) {
		t.Errorf("proxied resource not rewritten:\n%s", text)
	}
	if strings.Contains(text, "standin:proxy") || strings.Contains(text, "standin:originalResource") {
		t.Errorf("proxy markers survived the rewrite:\n%s", text)
	}
	if !strings.Contains(text, `<property name="resource">/media/b.png</property>`) {
		t.Errorf("untagged resource changed:\n%s", text)
	}
	if !strings.Contains(text, "<!-- edited with proxies -->") {
		t.Errorf("comment dropped:\n%s", text)
	}
	if !strings.Contains(text, `<profile width="1920" height="1080">`) {
		t.Errorf("profile element dropped:\n%s", text)
	}
	if !strings.Contains(text, `<?xml version="1.0" standalone="no"?>`) {
		t.Errorf("xml declaration dropped:\n%s", text)
	}

	// Properties flush before the sibling entry and again before the
	// enclosing end tag, keeping their relative order.
	retain := strings.Index(text, `<property name="xml_retain">`)
	entry := strings.Index(text, `<entry producer="producer0"`)
	autoclose := strings.Index(text, `<property name="autoclose">`)
	if retain < 0 || entry < 0 || autoclose < 0 || !(retain < entry && entry < autoclose) {
		t.Errorf("playlist content out of order (%d, %d, %d):\n%s", retain, entry, autoclose, text)
	}

	// The source document is untouched; replacing it is the caller's call.
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(original) != proxiedProject {
		t.Error("source document was modified")
	}
}

func TestRelinkTimewarp(t *testing.T) {
	content := `<mlt>
  <producer id="producer0">
    <property name="standin:proxy">1</property>
    <property name="standin:originalResource">/media/a.mov</property>
    <property name="mlt_service">timewarp</property>
    <property name="warp_speed">0.5</property>
    <property name="resource">/cache/proxies/0123abcd.mp4</property>
    <property name="warp_resource">/cache/proxies/0123abcd.mp4</property>
  </producer>
</mlt>
`
	out, err := Relink(writeProject(t, content), "/media", logging.NewNop())
	if err != nil {
		t.Fatalf("Relink: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `<property name="resource">0.5:a.mov</property>`) {
		t.Errorf("timewarp resource not rewritten:\n%s", text)
	}
	if !strings.Contains(text, `<property name="warp_resource">a.mov</property>`) {
		t.Errorf("warp_resource not rewritten:\n%s", text)
	}
	if !strings.Contains(text, `<property name="warp_speed">0.5</property>`) {
		t.Errorf("warp_speed changed:\n%s", text)
	}
}

func TestRelinkRoundTripsUntaggedDocument(t *testing.T) {
	path := writeProject(t, sampleProject)
	before, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	out, err := Relink(path, "/media", logging.NewNop())
	if err != nil {
		t.Fatalf("Relink: %v", err)
	}
	after, err := Load(out)
	if err != nil {
		t.Fatalf("Load rewritten document: %v", err)
	}

	if len(after.Objects) != len(before.Objects) {
		t.Fatalf("rewritten document has %d objects, want %d", len(after.Objects), len(before.Objects))
	}
	for id, obj := range before.Objects {
		got := after.Objects[id]
		if got == nil {
			t.Fatalf("object %q missing after rewrite", id)
		}
		if !reflect.DeepEqual(got.Snapshot(), obj.Snapshot()) {
			t.Errorf("object %q changed: %v != %v", id, got.Snapshot(), obj.Snapshot())
		}
	}
}

func TestRelinkParseErrorRemovesTemp(t *testing.T) {
	path := writeProject(t, "<mlt><producer id=\"p\"><property name=\"resource\">a")

	_, err := Relink(path, "", logging.NewNop())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "standin-") {
			t.Errorf("partial output %q left behind", entry.Name())
		}
	}
}

func TestRelinkMissingDocument(t *testing.T) {
	_, err := Relink(filepath.Join(t.TempDir(), "absent.mlt"), "", logging.NewNop())
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("err = %v, want io error", err)
	}
}
