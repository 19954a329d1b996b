// Package template provides AST parsing for template-family source files
// (.vue, .astro, .ejs, .hbs, .jsp) whose logic lives inside embedded
// <script> blocks. It extracts each block, parses it as TypeScript with
// tree-sitter, and remaps resulting line numbers back through a LineMap
// so entities carry their true position in the original template file.
package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/c360studio/codegraph/processor/ast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	ast.DefaultRegistry.Register("template", []string{".vue", ".astro", ".ejs", ".hbs", ".jsp"},
		func(org, project, repoRoot string) ast.FileParser {
			return NewParser(org, project, repoRoot)
		})
}

// scriptTagPattern matches <script ...>...</script> blocks across the
// template dialects this package supports. All five embed script content
// the same way HTML does, so one pattern covers them.
var scriptTagPattern = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)

// LineMap translates a line number inside an extracted script block back
// to the line number it occupied in the original template file. Blocks
// are remapped independently: a file with two <script> tags carries two
// LineMap entries, one per block's offset.
type LineMap struct {
	// BlockStartLine is the 1-indexed line, in the original file, of the
	// first line of script content (the line on which the opening tag
	// ends, since content begins right after its '>').
	BlockStartLine int
}

// ToOriginal converts a 1-indexed line number inside the script block's
// own content to its 1-indexed line number in the original file.
func (m LineMap) ToOriginal(scriptLine int) int {
	return m.BlockStartLine + scriptLine - 1
}

// scriptBlock is one extracted <script> region plus its LineMap.
type scriptBlock struct {
	content []byte
	lineMap LineMap
}

// Parser extracts code entities from the script blocks of template files.
type Parser struct {
	org      string
	project  string
	repoRoot string
}

// NewParser creates a new template parser.
func NewParser(org, project, repoRoot string) *Parser {
	return &Parser{org: org, project: project, repoRoot: repoRoot}
}

// ParseFile parses a single template file, extracting entities from every
// embedded <script> block.
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*ast.ParseResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	hash := ast.ComputeHash(content)
	relPath, err := filepath.Rel(p.repoRoot, filePath)
	if err != nil {
		relPath = filePath
	}

	fileEntity := ast.NewCodeEntity(p.org, p.project, ast.TypeFile, filepath.Base(filePath), relPath)
	fileEntity.Hash = hash
	fileEntity.Language = templateLanguage(filePath)
	fileEntity.Framework = "template"
	fileEntity.StartLine = 1
	fileEntity.EndLine = countLines(content)

	result := &ast.ParseResult{
		Path:       relPath,
		Hash:       hash,
		FileEntity: fileEntity,
		Entities:   []*ast.CodeEntity{fileEntity},
	}

	blocks := extractScriptBlocks(content)
	for _, block := range blocks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		entities, imports := p.parseScriptBlock(ctx, block, relPath, fileEntity.ID)
		result.Entities = append(result.Entities, entities...)
		for _, id := range imports {
			if !containsString(result.Imports, id) {
				result.Imports = append(result.Imports, id)
			}
		}
		for _, e := range entities {
			fileEntity.Contains = append(fileEntity.Contains, e.ID)
		}
	}
	fileEntity.Imports = result.Imports

	return result, nil
}

// parseScriptBlock parses one script block's content as TypeScript and
// remaps every extracted entity's line numbers through the block's
// LineMap so they point back into the original template file.
func (p *Parser) parseScriptBlock(ctx context.Context, block scriptBlock, relPath, parentID string) ([]*ast.CodeEntity, []string) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, block.content)
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	root := tree.RootNode()

	imports := extractImports(root, block.content)
	entities := extractEntities(root, block.content, relPath, parentID)

	for _, e := range entities {
		e.StartLine = block.lineMap.ToOriginal(e.StartLine)
		e.EndLine = block.lineMap.ToOriginal(e.EndLine)
		e.Framework = "template"
	}

	return entities, imports
}

// extractScriptBlocks finds every <script> region in content and records
// the LineMap needed to translate positions within it back to the
// original file.
func extractScriptBlocks(content []byte) []scriptBlock {
	text := string(content)
	var blocks []scriptBlock

	for _, loc := range scriptTagPattern.FindAllStringSubmatchIndex(text, -1) {
		innerStart, innerEnd := loc[2], loc[3]
		inner := text[innerStart:innerEnd]

		lineOffset := strings.Count(text[:innerStart], "\n")
		// Content starts immediately after the opening tag; if that
		// position is itself mid-line (no newline right after '>'), the
		// first script line still maps to lineOffset+1.
		startLine := lineOffset + 1
		if strings.HasPrefix(inner, "\n") {
			// content's own line 1 is blank; real code starts on line 2
			// of the block, which still maps correctly via ToOriginal.
		}

		blocks = append(blocks, scriptBlock{
			content: []byte(inner),
			lineMap: LineMap{BlockStartLine: startLine},
		})
	}

	return blocks
}

// extractEntities walks the whole parsed script tree and extracts
// function, class, interface, and type alias declarations at any depth.
// Classes are recorded as TypeStruct. Methods, enums, and variables,
// which the ts package extracts from .ts files, are not extracted here.
func extractEntities(root *sitter.Node, source []byte, filePath, parentID string) []*ast.CodeEntity {
	var entities []*ast.CodeEntity
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()
	walk(cursor, source, filePath, parentID, &entities)
	return entities
}

func walk(cursor *sitter.TreeCursor, source []byte, filePath, parentID string, entities *[]*ast.CodeEntity) {
	node := cursor.CurrentNode()

	switch node.Type() {
	case "function_declaration":
		if e := entityFromNamed(node, source, filePath, parentID, ast.TypeFunction); e != nil {
			*entities = append(*entities, e)
		}
	case "class_declaration":
		if e := entityFromNamed(node, source, filePath, parentID, ast.TypeStruct); e != nil {
			*entities = append(*entities, e)
		}
	case "interface_declaration":
		if e := entityFromNamed(node, source, filePath, parentID, ast.TypeInterface); e != nil {
			*entities = append(*entities, e)
		}
	case "type_alias_declaration":
		if e := entityFromNamed(node, source, filePath, parentID, ast.TypeType); e != nil {
			*entities = append(*entities, e)
		}
	}

	if cursor.GoToFirstChild() {
		for {
			walk(cursor, source, filePath, parentID, entities)
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
}

func entityFromNamed(node *sitter.Node, source []byte, filePath, parentID string, t ast.CodeEntityType) *ast.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	e := ast.NewCodeEntity("", "", t, name, filePath)
	e.ContainedBy = parentID
	e.StartLine = int(node.StartPoint().Row) + 1
	e.EndLine = int(node.EndPoint().Row) + 1
	return e
}

func extractImports(root *sitter.Node, source []byte) []string {
	var imports []string
	seen := make(map[string]bool)
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()
	walkImports(cursor, source, &imports, seen)
	return imports
}

func walkImports(cursor *sitter.TreeCursor, source []byte, imports *[]string, seen map[string]bool) {
	node := cursor.CurrentNode()
	if node.Type() == "import_statement" {
		if src := node.ChildByFieldName("source"); src != nil {
			path := strings.Trim(src.Content(source), `'"`)
			if !seen[path] {
				seen[path] = true
				*imports = append(*imports, path)
			}
		}
	}
	if cursor.GoToFirstChild() {
		for {
			walkImports(cursor, source, imports, seen)
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
}

// templateLanguage maps a template extension to its host templating
// language, used for tagging only; the embedded script is always parsed
// as TypeScript/JavaScript regardless of the host dialect.
func templateLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".vue":
		return "vue"
	case ".astro":
		return "astro"
	case ".ejs":
		return "ejs"
	case ".hbs":
		return "handlebars"
	case ".jsp":
		return "jsp"
	default:
		return "template"
	}
}

func countLines(content []byte) int {
	count := 1
	for _, b := range content {
		if b == '\n' {
			count++
		}
	}
	return count
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// ParseDirectory parses every supported template file under dirPath.
func (p *Parser) ParseDirectory(ctx context.Context, dirPath string) ([]*ast.ParseResult, error) {
	var results []*ast.ParseResult
	exts := map[string]bool{".vue": true, ".astro": true, ".ejs": true, ".hbs": true, ".jsp": true}

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base == "node_modules" || base == "dist" || base == "build" || strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		result, err := p.ParseFile(ctx, path)
		if err != nil {
			return nil
		}
		results = append(results, result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return results, nil
}
