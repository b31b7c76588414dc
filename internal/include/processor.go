// Package include expands psql include directives so a schema split across
// several files can be compared as one desired state.
package include

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matches "\i path" and "\ir path" with an optional trailing semicolon.
// Paths may be single quoted.
var directiveRegex = regexp.MustCompile(`^\s*\\(i|ir|include|include_relative)\s+('[^']+'|[^\s;]+)\s*;?\s*$`)

// Processor expands include directives below a root directory
type Processor struct {
	rootDir string
	stack   map[string]bool
	files   []string
}

// NewProcessor creates a processor that only reads files inside rootDir
func NewProcessor(rootDir string) *Processor {
	return &Processor{
		rootDir: rootDir,
		stack:   make(map[string]bool),
	}
}

// ProcessFile returns the content of filename with every include directive
// replaced by the content of the file it names. When the processor has no
// root directory the directory of filename is used.
func (p *Processor) ProcessFile(filename string) (string, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", filename, err)
	}

	p.stack = make(map[string]bool)
	p.files = nil
	if p.rootDir == "" {
		p.rootDir = filepath.Dir(absPath)
	}
	if p.rootDir, err = filepath.Abs(p.rootDir); err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", p.rootDir, err)
	}

	return p.expand(absPath)
}

// Files lists every file read by the last ProcessFile call, in read order
func (p *Processor) Files() []string {
	return p.files
}

func (p *Processor) expand(filename string) (string, error) {
	if p.stack[filename] {
		return "", fmt.Errorf("include cycle at %s", filename)
	}
	p.stack[filename] = true
	// A file may be included again from a sibling branch
	defer delete(p.stack, filename)

	content, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filename, err)
	}
	p.files = append(p.files, filename)

	lines := strings.Split(string(content), "\n")
	var out strings.Builder
	for i, line := range lines {
		m := directiveRegex.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			if i < len(lines)-1 {
				out.WriteByte('\n')
			}
			continue
		}

		// \i resolves against the root, \ir against the including file
		dir := p.rootDir
		if m[1] == "ir" || m[1] == "include_relative" {
			dir = filepath.Dir(filename)
		}
		target, err := p.resolve(strings.Trim(m[2], "'"), dir)
		if err != nil {
			return "", fmt.Errorf("%s:%d: %w", filename, i+1, err)
		}

		included, err := p.expand(target)
		if err != nil {
			return "", err
		}
		out.WriteString(included)
		if !strings.HasSuffix(included, "\n") {
			out.WriteByte('\n')
		}
	}

	return out.String(), nil
}

// resolve joins path onto dir and rejects anything outside the root
func (p *Processor) resolve(path, dir string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute include path %s not allowed", path)
	}

	absPath, err := filepath.Abs(filepath.Join(dir, path))
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	rel, err := filepath.Rel(p.rootDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("include path %s is outside %s", path, p.rootDir)
	}

	if _, err := os.Stat(absPath); err != nil {
		return "", fmt.Errorf("included file %s: %w", path, err)
	}
	return absPath, nil
}
