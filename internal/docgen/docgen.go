// Package docgen renders proposal documents.
//
// The markdown source is authoritative; PDF rendering shells out to
// pandoc when it is installed. When the tool is missing or fails, a
// plain-text placeholder is written to the same destination path so
// the pipeline never fails solely because the renderer is unavailable.
// Downstream consumers must tolerate a .pdf path that holds plain text.
package docgen

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// renderTool is the external renderer binary; a var so tests can point
// it at something that does not exist.
var renderTool = "pandoc"

// fallbackNotice prefixes the placeholder written when rendering degrades.
const fallbackNotice = "PDF renderer missing. Install pandoc to generate real PDFs.\n\n"

// WriteMarkdown writes the proposal source document.
func WriteMarkdown(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("docgen: writing markdown: %w", err)
	}
	return nil
}

// RenderPDF produces a distributable document at pdfPath from the
// markdown file at mdPath. Any renderer failure degrades to a plain
// text placeholder holding the notice plus the markdown verbatim;
// only a failure to write the destination itself is an error.
func RenderPDF(mdPath, pdfPath string) error {
	runErr := exec.Command(renderTool, mdPath, "-o", pdfPath).Run()
	if runErr == nil {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"tool": renderTool,
		"path": pdfPath,
	}).WithError(runErr).Warn("renderer unavailable, writing placeholder")

	source, err := os.ReadFile(mdPath)
	if err != nil {
		return fmt.Errorf("docgen: reading markdown for placeholder: %w", err)
	}
	if err := os.WriteFile(pdfPath, append([]byte(fallbackNotice), source...), 0o644); err != nil {
		return fmt.Errorf("docgen: writing placeholder: %w", err)
	}
	return nil
}
