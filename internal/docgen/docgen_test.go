package docgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// useMissingTool swaps the renderer for a binary that cannot exist,
// forcing the fallback path.
func useMissingTool(t *testing.T) {
	t.Helper()
	old := renderTool
	renderTool = "definitely-not-a-real-renderer-binary"
	t.Cleanup(func() { renderTool = old })
}

func TestRenderPDF_FallbackWritesPlaceholder(t *testing.T) {
	useMissingTool(t)
	dir := t.TempDir()

	md := filepath.Join(dir, "prop_ab12cd34ef.md")
	pdf := filepath.Join(dir, "prop_ab12cd34ef.pdf")
	content := "# Proposal — Acme Media\n\nOption A — Good\n"
	if err := WriteMarkdown(md, content); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}

	if err := RenderPDF(md, pdf); err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}

	out, err := os.ReadFile(pdf)
	if err != nil {
		t.Fatalf("reading placeholder: %v", err)
	}
	got := string(out)
	if !strings.HasPrefix(got, "PDF renderer missing.") {
		t.Errorf("placeholder does not start with the notice: %q", got)
	}
	if !strings.HasSuffix(got, content) {
		t.Error("placeholder does not end with the markdown verbatim")
	}
}

func TestRenderPDF_FallbackMissingSource(t *testing.T) {
	useMissingTool(t)
	dir := t.TempDir()

	err := RenderPDF(filepath.Join(dir, "absent.md"), filepath.Join(dir, "absent.pdf"))
	if err == nil {
		t.Fatal("RenderPDF succeeded without a source document")
	}
}

func TestWriteMarkdown_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := WriteMarkdown(path, "hello\n"); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q, want hello", data)
	}
}
