package imports

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLine(t *testing.T) {
	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{"import numpy", "numpy", true},
		{"from collections import OrderedDict", "collections", true},
		{"import pandas.core as pc", "pandas", true},
		{"import", "", false},
		{"from", "", false},
		{"   ", "", false},
		{"", "", false},
		{"from __future__ import annotations", "__future__", true},
		{"from . import sibling", "", false},
		{"from .models import User", "", false},
		{"    import json", "json", true},
		{"\timport requests  # http", "requests", true},
		{"import os, sys", "os,", true},
		{"import pandas as pd", "pandas", true},
		{"from sklearn.preprocessing import MultiLabelBinarizer", "sklearn", true},
		{"imported = 3", "=", true},
		{"x = 1  # import numpy", "", false},
		{"Import numpy", "", false},
		{"print('import numpy')", "", false},
		{"import numpy\r", "numpy", true},
	}

	for _, tt := range tests {
		got, ok := ExtractLine(tt.line)
		assert.Equal(t, tt.wantOK, ok, "ExtractLine(%q) ok", tt.line)
		assert.Equal(t, tt.want, got, "ExtractLine(%q)", tt.line)
	}
}

func TestClassifyKinds(t *testing.T) {
	c, ok := Classify("  from os import path")
	require.True(t, ok)
	assert.Equal(t, KindFrom, c.Kind)
	assert.Equal(t, "from os import path", c.Raw)
	assert.Equal(t, "from", c.Kind.String())

	c, ok = Classify("import os")
	require.True(t, ok)
	assert.Equal(t, KindImport, c.Kind)
	assert.Equal(t, "import", c.Kind.String())
}

func TestScanLinesDeduplicates(t *testing.T) {
	src := strings.Join([]string{
		"import os",
		"import requests",
		"",
		"from urllib.parse import urljoin",
		"import requests",
		"def f():",
		"    import requests.adapters",
		"import",
	}, "\n")

	set := NewPackageSet()
	n, err := ScanLines(strings.NewReader(src), set)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"os", "requests", "urllib"}, set.Sorted())
}

func TestScanSource(t *testing.T) {
	set := NewPackageSet()
	_, err := ScanSource(SourceFile{Path: "a.py", Content: []byte("import emoji\nimport re\n")}, set)
	require.NoError(t, err)
	assert.True(t, set.Has("emoji"))
	assert.True(t, set.Has("re"))
	assert.Equal(t, 2, set.Len())
}

func TestScanLinesLineEndings(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"lf", "import numpy\nimport pandas\n"},
		{"crlf", "import numpy\r\nimport pandas\r\n"},
		{"cr only", "import numpy\rimport pandas\r"},
		{"mixed without trailing newline", "import numpy\r\n\rimport pandas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewPackageSet()
			n, err := ScanLines(strings.NewReader(tt.src), set)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, []string{"numpy", "pandas"}, set.Sorted())

			fromSource := NewPackageSet()
			_, err = ScanSource(SourceFile{Path: "a.py", Content: []byte(tt.src)}, fromSource)
			require.NoError(t, err)
			assert.Equal(t, set.Sorted(), fromSource.Sorted())
		})
	}
}

func TestScanLinesSplitsCRAcrossReads(t *testing.T) {
	// iotest.OneByteReader forces the "\r" and "\n" of a CRLF into separate reads.
	set := NewPackageSet()
	n, err := ScanLines(iotest.OneByteReader(strings.NewReader("import numpy\r\nimport pandas\r")), set)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"numpy", "pandas"}, set.Sorted())
}

func TestScanSourceLongLine(t *testing.T) {
	data := "DATA = '" + strings.Repeat("QUJD", 512*1024) + "'"
	content := "import numpy\n" + data + "\nimport pandas\n"

	set := NewPackageSet()
	n, err := ScanSource(SourceFile{Path: "generated.py", Content: []byte(content)}, set)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"numpy", "pandas"}, set.Sorted())

	streamed := NewPackageSet()
	_, err = ScanLines(strings.NewReader(content), streamed)
	require.NoError(t, err)
	assert.Equal(t, set.Sorted(), streamed.Sorted())
}
