package indexer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/codegraph/processor/ast"
	"github.com/c360studio/codegraph/source/chunker"
	"github.com/c360studio/codegraph/storage"
)

// lineOffsets returns the byte offset of the start of each line plus a
// trailing sentinel at len(content), so byte ranges for 1-indexed,
// inclusive line spans can be looked up as offsets[start-1]..offsets[end].
func lineOffsets(content []byte) []int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return append(offsets, len(content))
}

func byteRange(offsets []int, startLine, endLine int) (int, int) {
	last := len(offsets) - 1
	if startLine < 1 {
		startLine = 1
	}
	if startLine > last {
		startLine = last
	}
	if endLine < startLine {
		endLine = startLine
	}
	if endLine > last {
		endLine = last
	}
	return offsets[startLine-1], offsets[endLine]
}

// lineForOffset returns the 1-indexed line containing byte offset pos.
func lineForOffset(offsets []int, pos int) int {
	line := 1
	for i := 0; i < len(offsets)-1; i++ {
		if offsets[i] > pos {
			break
		}
		line = i + 1
	}
	return line
}

// PopulateByteOffsets fills each symbol's StartByte/EndByte from its
// line span, computed against the file's own content. Called once per
// file before chunking, since ast.CodeEntity carries only line numbers.
func PopulateByteOffsets(content []byte, symbols []storage.Symbol) []storage.Symbol {
	offsets := lineOffsets(content)
	out := make([]storage.Symbol, len(symbols))
	for i, sym := range symbols {
		start, end := byteRange(offsets, sym.StartLine, sym.EndLine)
		sym.StartByte, sym.EndByte = start, end
		out[i] = sym
	}
	return out
}

// ChunkFile implements the Chunker contract (§4.4): every symbol is
// covered by at least one chunk, file text before the first symbol is
// covered by header chunks, no chunk exceeds max+overlap characters, and
// consecutive chunks from the same span overlap by `overlap` characters.
// Symbols whose byte range exceeds max are sliced with a sliding
// max+overlap window at stride max.
func ChunkFile(content []byte, symbols []storage.Symbol, max, overlap int) []storage.Chunk {
	if max <= 0 {
		max = 4000
	}
	if overlap < 0 {
		overlap = 0
	}
	offsets := lineOffsets(content)

	ordered := make([]storage.Symbol, len(symbols))
	copy(ordered, symbols)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].StartLine != ordered[j].StartLine {
			return ordered[i].StartLine < ordered[j].StartLine
		}
		return ordered[i].ID < ordered[j].ID
	})

	var chunks []storage.Chunk

	headerEnd := len(content)
	if len(ordered) > 0 {
		headerEnd, _ = byteRange(offsets, ordered[0].StartLine, ordered[0].StartLine)
	}
	if headerEnd > 0 {
		chunks = append(chunks, windowChunks(content, offsets, 0, headerEnd, "", max, overlap)...)
	}

	for _, sym := range ordered {
		start, end := byteRange(offsets, sym.StartLine, sym.EndLine)
		if end <= start {
			continue
		}
		chunks = append(chunks, windowChunks(content, offsets, start, end, sym.ID, max, overlap)...)
	}

	return dedupeChunks(chunks)
}

// windowChunks slides a max+overlap window with stride max over
// content[start:end]. A span that already fits yields a single chunk.
func windowChunks(content []byte, offsets []int, start, end int, symbolID string, max, overlap int) []storage.Chunk {
	window := max + overlap
	if end-start <= window {
		return []storage.Chunk{newChunk(content, offsets, start, end, symbolID)}
	}

	var chunks []storage.Chunk
	for pos := start; pos < end; pos += max {
		winEnd := pos + window
		if winEnd > end {
			winEnd = end
		}
		chunks = append(chunks, newChunk(content, offsets, pos, winEnd, symbolID))
		if winEnd == end {
			break
		}
	}
	return chunks
}

func newChunk(content []byte, offsets []int, start, end int, symbolID string) storage.Chunk {
	if start < 0 {
		start = 0
	}
	if end > len(content) {
		end = len(content)
	}
	last := start
	if end > start {
		last = end - 1
	}
	return storage.Chunk{
		ID:          uuid.New().String(),
		SymbolID:    symbolID,
		StartLine:   lineForOffset(offsets, start),
		EndLine:     lineForOffset(offsets, last),
		Content:     string(content[start:end]),
		ContentHash: ast.ComputeHash(content[start:end]),
	}
}

// ChunkPlainText is the §4.4 fallback for files with no registered
// parser: fixed-size line chunks, no overlap, no symbol association.
func ChunkPlainText(content []byte, linesPerChunk int) []storage.Chunk {
	if linesPerChunk <= 0 {
		linesPerChunk = 100
	}
	lines := strings.Split(string(content), "\n")

	var chunks []storage.Chunk
	for i := 0; i < len(lines); i += linesPerChunk {
		j := i + linesPerChunk
		if j > len(lines) {
			j = len(lines)
		}
		text := strings.Join(lines[i:j], "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, storage.Chunk{
			ID:          uuid.New().String(),
			StartLine:   i + 1,
			EndLine:     j,
			Content:     text,
			ContentHash: ast.ComputeHash([]byte(text)),
		})
	}
	return chunks
}

// ChunkDocument runs the prose chunker (section/paragraph/sentence
// splitting with trailing-context overlap) over a parsed document body
// and maps each resulting chunk back onto line numbers in the original
// file content, for documents that have no symbol table to chunk
// around. docID is only used to seed chunk IDs the chunker assigns
// internally; it is discarded once converted to storage.Chunk.
func ChunkDocument(c *chunker.Chunker, docID string, raw []byte, body string) []storage.Chunk {
	docChunks := c.Chunk(docID, body)
	offsets := lineOffsets(raw)

	out := make([]storage.Chunk, 0, len(docChunks))
	searchFrom := 0
	for _, dc := range docChunks {
		if strings.TrimSpace(dc.Content) == "" {
			continue
		}
		startLine, endLine := 1, 1
		if idx := bytes.Index(raw[searchFrom:], []byte(dc.Content)); idx >= 0 {
			start := searchFrom + idx
			end := start + len(dc.Content)
			startLine = lineForOffset(offsets, start)
			endLine = lineForOffset(offsets, end)
			searchFrom = start + 1
		}
		out = append(out, storage.Chunk{
			ID:          uuid.New().String(),
			StartLine:   startLine,
			EndLine:     endLine,
			Content:     dc.Content,
			ContentHash: ast.ComputeHash([]byte(dc.Content)),
		})
	}
	return out
}

// dedupeChunks drops chunks sharing (start_line, end_line, content_hash),
// keeping the first occurrence, per the Indexer's insert contract (§4.1
// step 6).
func dedupeChunks(chunks []storage.Chunk) []storage.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := make([]storage.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := fmt.Sprintf("%d:%d:%s", c.StartLine, c.EndLine, c.ContentHash)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
