// Package vault stands in for the host document application: it scans a
// directory of markdown documents for fenced timelineview blocks and watches
// the directory for structural changes.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Fence is the code-fence language tag that marks a timelineview block.
const Fence = "timelineview"

// Block is one timelineview source block found in a document.
type Block struct {
	// Doc is the document path relative to the vault root.
	Doc string
	// Index is the 0-based position of the block within its document.
	Index int
	// Source is the immutable text between the fences.
	Source string
}

// ID identifies a block across scans. Blocks keep their identity as long as
// document path and position are stable.
func (b Block) ID() string {
	return fmt.Sprintf("%s#%d", b.Doc, b.Index)
}

// Vault is a directory of markdown documents.
type Vault struct {
	dir string
}

func New(dir string) *Vault {
	return &Vault{dir: dir}
}

// Dir returns the vault root directory.
func (v *Vault) Dir() string {
	return v.dir
}

// Scan walks the vault and extracts every timelineview block from every
// .md document, in path order. Unreadable documents are skipped.
func (v *Vault) Scan() ([]Block, error) {
	blocks := make([]Block, 0)

	err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			// Document vanished or unreadable mid-scan; skip it.
			return nil
		}

		rel, relErr := filepath.Rel(v.dir, path)
		if relErr != nil {
			rel = path
		}

		blocks = append(blocks, ExtractBlocks(rel, string(content))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// ExtractBlocks finds all fenced timelineview blocks in a document. A block
// opens with a line reading "```timelineview" and closes at the next "```"
// line; an unclosed fence runs to the end of the document.
func ExtractBlocks(doc, content string) []Block {
	var blocks []Block

	lines := strings.Split(content, "\n")
	var body []string
	inBlock := false

	flush := func() {
		blocks = append(blocks, Block{
			Doc:    doc,
			Index:  len(blocks),
			Source: strings.Join(body, "\n"),
		})
		body = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock {
			if trimmed == "```"+Fence {
				inBlock = true
			}
			continue
		}
		if trimmed == "```" {
			inBlock = false
			flush()
			continue
		}
		body = append(body, line)
	}
	if inBlock {
		flush()
	}

	return blocks
}
