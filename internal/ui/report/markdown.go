package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InjectBlock replaces the content between the envscan start and end
// markers named marker in the markdown file at filePath. The file is
// rewritten through a temp file and rename.
func InjectBlock(filePath, marker, block string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read markdown file %q: %w", filePath, err)
	}

	next, err := ReplaceBetweenMarkers(string(content), marker, block)
	if err != nil {
		return err
	}
	if next == string(content) {
		return nil
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat markdown file %q: %w", filePath, err)
	}

	dir := filepath.Dir(filePath)
	tmp, err := os.CreateTemp(dir, ".envscan-inject-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", filePath, err)
	}
	tmpName := tmp.Name()

	writeErr := error(nil)
	if _, err := tmp.WriteString(next); err != nil {
		writeErr = fmt.Errorf("write temp markdown file %q: %w", tmpName, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("chmod temp markdown file %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close temp markdown file %q: %w", tmpName, err)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace markdown file %q: %w", filePath, err)
	}
	return nil
}

// CheckMarkers reports whether InjectBlock would find marker in filePath,
// without writing anything.
func CheckMarkers(filePath, marker string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read markdown file %q: %w", filePath, err)
	}
	_, err = ReplaceBetweenMarkers(string(content), marker, "")
	return err
}

func Markers(marker string) (start, end string) {
	return fmt.Sprintf("<!-- envscan:%s:start -->", marker), fmt.Sprintf("<!-- envscan:%s:end -->", marker)
}

func ReplaceBetweenMarkers(content, marker, replacement string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", fmt.Errorf("markdown marker must not be empty")
	}

	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}

	start, end := Markers(marker)
	if strings.Count(content, start) != 1 || strings.Count(content, end) != 1 {
		return "", fmt.Errorf("markdown marker %q must appear exactly once for start and end", marker)
	}

	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if endIdx < startIdx {
		return "", fmt.Errorf("invalid marker order for %q", marker)
	}

	prefix := content[:startIdx+len(start)]
	suffix := content[endIdx:]
	body := strings.TrimRight(replacement, "\r\n")
	if newline != "\n" {
		body = strings.ReplaceAll(body, "\n", newline)
	}
	return prefix + newline + body + newline + suffix, nil
}
