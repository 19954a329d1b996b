package indexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/codegraph/storage"
)

func TestLineOffsets(t *testing.T) {
	content := []byte("abc\ndef\nghi")
	offsets := lineOffsets(content)
	assert.Equal(t, []int{0, 4, 8, 11}, offsets)
}

func TestByteRange(t *testing.T) {
	content := []byte("line1\nline2\nline3\n")
	offsets := lineOffsets(content)

	start, end := byteRange(offsets, 2, 2)
	assert.Equal(t, "line2\n", string(content[start:end]))

	start, end = byteRange(offsets, 1, 3)
	assert.Equal(t, content, content[start:end])
}

func TestLineForOffset(t *testing.T) {
	content := []byte("aa\nbb\ncc\n")
	offsets := lineOffsets(content)
	assert.Equal(t, 1, lineForOffset(offsets, 0))
	assert.Equal(t, 2, lineForOffset(offsets, 3))
	assert.Equal(t, 3, lineForOffset(offsets, 6))
}

func TestPopulateByteOffsets(t *testing.T) {
	content := []byte("package foo\n\nfunc Bar() {\n\treturn\n}\n")
	symbols := []storage.Symbol{
		{ID: "sym-1", StartLine: 3, EndLine: 5},
	}

	out := PopulateByteOffsets(content, symbols)
	require.Len(t, out, 1)
	assert.Equal(t, "func Bar() {\n\treturn\n}\n", string(content[out[0].StartByte:out[0].EndByte]))
}

func TestChunkFile_HeaderAndSymbolCoverage(t *testing.T) {
	content := []byte("// package doc\npackage foo\n\nfunc One() {\n\treturn\n}\n\nfunc Two() {\n\treturn\n}\n")
	symbols := []storage.Symbol{
		{ID: "one", StartLine: 4, EndLine: 6},
		{ID: "two", StartLine: 8, EndLine: 10},
	}

	chunks := ChunkFile(content, symbols, 4000, 500)
	require.NotEmpty(t, chunks)

	var sawHeader, sawOne, sawTwo bool
	for _, c := range chunks {
		switch c.SymbolID {
		case "":
			sawHeader = true
			assert.Contains(t, c.Content, "package doc")
		case "one":
			sawOne = true
			assert.Contains(t, c.Content, "func One")
		case "two":
			sawTwo = true
			assert.Contains(t, c.Content, "func Two")
		}
	}
	assert.True(t, sawHeader, "expected a header chunk covering text before the first symbol")
	assert.True(t, sawOne)
	assert.True(t, sawTwo)
}

func TestChunkFile_SlidesOversizedSymbol(t *testing.T) {
	body := strings.Repeat("x", 1000)
	content := []byte("func Big() {\n" + body + "\n}\n")
	symbols := []storage.Symbol{
		{ID: "big", StartLine: 1, EndLine: 3},
	}

	chunks := ChunkFile(content, symbols, 100, 10)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 110)
	}
}

func TestChunkFile_DedupesIdenticalSpans(t *testing.T) {
	content := []byte("func A() {}\n")
	symbols := []storage.Symbol{
		{ID: "a1", StartLine: 1, EndLine: 1},
		{ID: "a1", StartLine: 1, EndLine: 1},
	}

	chunks := ChunkFile(content, symbols, 4000, 500)
	// Both symbol rows cover the identical span and produce identical
	// content, so they collapse to one chunk under the dedup key.
	seen := make(map[string]int)
	for _, c := range chunks {
		seen[c.Content]++
	}
	for _, n := range seen {
		assert.Equal(t, 1, n)
	}
}

func TestChunkPlainText(t *testing.T) {
	var lines []string
	for i := 0; i < 250; i++ {
		lines = append(lines, "line")
	}
	content := []byte(strings.Join(lines, "\n"))

	chunks := ChunkPlainText(content, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 100, chunks[0].EndLine)
	assert.Equal(t, 201, chunks[2].StartLine)
}

func TestChunkPlainText_SkipsBlankChunks(t *testing.T) {
	content := []byte("\n\n\n")
	chunks := ChunkPlainText(content, 100)
	assert.Empty(t, chunks)
}
