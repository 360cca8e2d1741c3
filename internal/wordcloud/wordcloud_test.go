package wordcloud

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRender_NoTermsIsNoOp(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cloud.png")
	if err := Render(nil, out, "whatever.ttf"); err != nil {
		t.Fatalf("empty term list must not error: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("no file must be written without terms")
	}
}

func TestRender_SkipsWithoutFont(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "cloud.png")
	if err := Render([]string{"seo", "keyword"}, out, ""); err != nil {
		t.Fatalf("missing font must skip, not fail: %v", err)
	}
	if err := Render([]string{"seo", "keyword"}, out, filepath.Join(dir, "nope.ttf")); err != nil {
		t.Fatalf("unreadable font must skip, not fail: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("no file must be written without a font")
	}
}
