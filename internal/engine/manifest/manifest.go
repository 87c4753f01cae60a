// Package manifest reads and appends to conda environment files.
//
// The file is append-only from this package's point of view: Create writes a
// header once, Append adds dependency lines after whatever is already there.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PipMarker is the header's last line; package entries follow it.
const PipMarker = "  - pip:"

const entryPrefix = "    - "

var ErrExists = errors.New("manifest already exists")

// Header describes the fixed preamble of an environment file.
type Header struct {
	Name     string
	Channels []string
	Python   string
}

func (h Header) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if strings.TrimSpace(h.Python) == "" {
		return fmt.Errorf("python version must not be empty")
	}
	for i, ch := range h.Channels {
		if strings.TrimSpace(ch) == "" {
			return fmt.Errorf("channels[%d] must not be empty", i)
		}
	}
	return nil
}

// RenderHeader returns the header text, ending with the pip marker line.
func RenderHeader(h Header) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("name: %s\n", h.Name))
	b.WriteString("channels:\n")
	for _, ch := range h.Channels {
		b.WriteString(fmt.Sprintf("  - %s\n", ch))
	}
	b.WriteString("dependencies:\n")
	b.WriteString(fmt.Sprintf("  - python=%s\n", h.Python))
	b.WriteString("  - pip\n")
	b.WriteString(PipMarker + "\n")
	return b.String()
}

// Entry renders one package as a manifest line.
func Entry(name string) string {
	return entryPrefix + name + "\n"
}

// Create writes a fresh header to path. An existing file is only replaced
// when force is set.
func Create(path string, h Header, force bool) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest directory %q: %w", dir, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("create manifest %q: %w", path, err)
	}
	if _, err := f.WriteString(RenderHeader(h)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write manifest header %q: %w", path, err)
	}
	return f.Close()
}

// Append adds one entry line per name, in the given order, in a single
// write. Existing content is left as is and names are not checked against
// it, so appending the same names twice duplicates them.
func Append(path string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat manifest %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("manifest %q is a directory, expected file", path)
	}

	var buf bytes.Buffer
	if info.Size() > 0 {
		last, err := lastByte(path, info.Size())
		if err != nil {
			return err
		}
		if last != '\n' {
			buf.WriteByte('\n')
		}
	}
	for _, name := range names {
		buf.WriteString(Entry(name))
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open manifest %q for append: %w", path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to manifest %q: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync manifest %q: %w", path, err)
	}
	return f.Close()
}

func lastByte(path string, size int64) (byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open manifest %q: %w", path, err)
	}
	defer f.Close()
	b := make([]byte, 1)
	if _, err := f.ReadAt(b, size-1); err != nil {
		return 0, fmt.Errorf("read manifest %q: %w", path, err)
	}
	return b[0], nil
}

// Document is the parsed form of an environment file.
type Document struct {
	Name         string
	Channels     []string
	Dependencies []string
	Pip          []string
	Prefix       string
}

type rawDocument struct {
	Name         string      `yaml:"name"`
	Channels     []string    `yaml:"channels"`
	Dependencies []yaml.Node `yaml:"dependencies"`
	Prefix       string      `yaml:"prefix"`
}

// Parse decodes an environment file. Plain dependency strings go to
// Dependencies; the entries of the nested pip list go to Pip.
func Parse(data []byte) (Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("parse environment file: %w", err)
	}

	doc := Document{Name: raw.Name, Channels: raw.Channels, Prefix: raw.Prefix}
	for i := range raw.Dependencies {
		node := &raw.Dependencies[i]
		switch node.Kind {
		case yaml.ScalarNode:
			doc.Dependencies = append(doc.Dependencies, node.Value)
		case yaml.MappingNode:
			var nested map[string][]string
			if err := node.Decode(&nested); err != nil {
				return Document{}, fmt.Errorf("parse dependency %d: %w", i, err)
			}
			doc.Pip = append(doc.Pip, nested["pip"]...)
		default:
			return Document{}, fmt.Errorf("dependency %d: unexpected yaml node kind %d", i, node.Kind)
		}
	}
	return doc, nil
}

// Load reads and parses the environment file at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(data)
}
