// Package imports pulls top-level package names out of Python source text.
//
// Detection is textual on purpose: a trimmed line that begins with "import"
// or "from" is a candidate, and the package is the part of its second
// whitespace token before the first dot. Indented imports are found, while
// multi-name imports, imports inside strings and docstrings, and words that
// merely start with "import"/"from" behave exactly as that rule dictates.
package imports

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"strings"
)

type StatementKind int

const (
	KindImport StatementKind = iota
	KindFrom
)

func (k StatementKind) String() string {
	if k == KindFrom {
		return "from"
	}
	return "import"
}

const (
	importKeyword = "import"
	fromKeyword   = "from"

	initialBufferBytes = 64 * 1024
)

// SourceFile is one file's raw content. It is never mutated.
type SourceFile struct {
	Path    string
	Content []byte
}

// Candidate is a line classified as carrying an import.
type Candidate struct {
	Raw  string
	Kind StatementKind
}

// Classify reports whether line is an import candidate. Lines that are empty
// after trimming never are.
func Classify(line string) (Candidate, bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Candidate{}, false
	case strings.HasPrefix(trimmed, importKeyword):
		return Candidate{Raw: trimmed, Kind: KindImport}, true
	case strings.HasPrefix(trimmed, fromKeyword):
		return Candidate{Raw: trimmed, Kind: KindFrom}, true
	}
	return Candidate{}, false
}

// Extract returns the package name a candidate names, or false when the line
// is malformed (no second token, or nothing before the first dot).
// Both statement kinds are handled the same way.
func Extract(c Candidate) (string, bool) {
	fields := strings.Fields(c.Raw)
	if len(fields) < 2 {
		return "", false
	}
	name, _, _ := strings.Cut(fields[1], ".")
	if name == "" {
		return "", false
	}
	return name, true
}

// ExtractLine is Classify followed by Extract.
func ExtractLine(line string) (string, bool) {
	c, ok := Classify(line)
	if !ok {
		return "", false
	}
	return Extract(c)
}

// ScanLines feeds every line of r through ExtractLine into set and returns
// how many names were extracted, duplicates included. Lines end at "\n",
// "\r\n" or a lone "\r" and have no length limit.
func ScanLines(r io.Reader, set *PackageSet) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialBufferBytes), math.MaxInt)
	return scanInto(scanner, set)
}

// ScanSource is ScanLines over a SourceFile's content. The buffer covers the
// whole content, so no line can outgrow it.
func ScanSource(src SourceFile, set *PackageSet) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(src.Content))
	scanner.Buffer(make([]byte, 0, len(src.Content)+1), len(src.Content)+1)
	return scanInto(scanner, set)
}

func scanInto(scanner *bufio.Scanner, set *PackageSet) (int, error) {
	scanner.Split(scanUniversalLines)
	extracted := 0
	for scanner.Scan() {
		name, ok := ExtractLine(scanner.Text())
		if !ok {
			continue
		}
		set.Add(name)
		extracted++
	}
	return extracted, scanner.Err()
}

// scanUniversalLines is bufio.ScanLines that also ends a line at a lone "\r".
func scanUniversalLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// "\r" at the end of the buffer: wait to see whether "\n" follows.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
