package docvalidity

import (
	"regexp"
	"strings"
)

// CodeReference is one code-like mention found in a document: a symbol,
// file path, import, or module path that can be checked against the
// indexed codebase (§4.11 step 1).
type CodeReference struct {
	Text         string
	RefType      string // symbol, file, import, module
	LineNumber   int    // 1-based; 0 if unknown
	Context      string
	Confidence   float64
	ExpectedKind string // function, class, method, variable, module, constant, decorator, file
}

// codeExtensions are the file extensions ExtractReferences treats as
// code, both when classifying inline references and when validating
// file-path-shaped text.
var codeExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".tsx": {}, ".jsx": {}, ".go": {}, ".java": {}, ".rs": {}, ".rb": {},
	".cpp": {}, ".c": {}, ".h": {}, ".hpp": {}, ".cs": {}, ".php": {}, ".swift": {}, ".kt": {}, ".scala": {},
	".yaml": {}, ".yml": {}, ".json": {}, ".toml": {}, ".sql": {}, ".sh": {}, ".bash": {},
}

var (
	markdownInlineCode = regexp.MustCompile("`([^`\n]+)`")
	markdownCodeBlock  = regexp.MustCompile("```(\\w*)\n([\\s\\S]*?)```")
	markdownLinkFile   = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+\.(?:py|js|ts|tsx|jsx|go|java|rs|rb|cpp|c|h|yaml|yml|json|sql))\)`)
	markdownFilePath   = regexp.MustCompile(`(?m)(?:^|[\s(\[{])([a-zA-Z0-9_./\-]+\.(?:py|js|ts|tsx|jsx|go|java|rs|rb|cpp|c|h|hpp|yaml|yml|json|toml|sql|sh))(?:[\s)\]}:,]|$)`)

	rstInlineCode = regexp.MustCompile("``([^`]+)``")
	rstPyRole     = regexp.MustCompile(":py:(?:func|class|meth|attr|mod|data|const|obj|exc)`([^`]+)`")

	asciidocInlineCode = regexp.MustCompile("`([^`]+)`")
	asciidocCodeBlock  = regexp.MustCompile(`\[source,(\w+)\]\n----\n([\s\S]*?)\n----`)

	pythonImportLine = regexp.MustCompile(`(?m)^(?:from\s+([a-zA-Z_][a-zA-Z0-9_.]*)\s+)?import\s+([a-zA-Z_][a-zA-Z0-9_.,\s]*)`)
	pyDefPattern     = regexp.MustCompile(`(?m)^def\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)
	pyClassPattern   = regexp.MustCompile(`(?m)^class\s+([A-Z][a-zA-Z0-9_]*)`)
	jsDefPattern     = regexp.MustCompile(`(?m)(?:function\s+([a-zA-Z_][a-zA-Z0-9_]*)|(?:const|let|var)\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*(?:async\s*)?\()`)
	pyRoleTypePrefix = regexp.MustCompile(`:py:(\w+):`)

	functionCallPattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)*)\s*\(`)
	classNamePattern    = regexp.MustCompile(`^[A-Z][a-zA-Z0-9_]*$`)
	modulePathPattern   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)+$`)
	identifierPattern   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	proseSingleLowerWord = regexp.MustCompile(`^[a-z]+$`)
	proseJustDigits      = regexp.MustCompile(`^\d+$`)
	proseTitleCase       = regexp.MustCompile(`^[A-Z][a-z]+ [a-z]+`)
	dottedNoSpaces       = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)
)

var codeTerms = map[string]struct{}{
	"true": {}, "false": {}, "null": {}, "none": {}, "self": {}, "this": {},
	"return": {}, "async": {}, "await": {},
}

var roleKindMap = map[string]string{
	"func": "function", "class": "class", "meth": "method", "attr": "attribute",
	"mod": "module", "data": "variable", "const": "constant",
}

var importLanguages = map[string]struct{}{
	"python": {}, "py": {}, "javascript": {}, "js": {}, "typescript": {}, "ts": {}, "": {},
}

// ExtractReferences scans a document's content for mentions of code
// elements: inline code spans, fenced code blocks, file paths, and
// (for rst) role references. docType selects the dialect of markup
// ("markdown", "rst", "restructuredtext", or "asciidoc"); anything
// else is treated as markdown. Extraction stops once maxReferences
// have been found.
func ExtractReferences(content, docType string, maxReferences int) []CodeReference {
	if maxReferences <= 0 {
		maxReferences = 100
	}

	var refs []CodeReference
	seen := map[string]struct{}{}

	collect := func(found []CodeReference) bool {
		for _, r := range found {
			refs = append(refs, r)
			if len(refs) >= maxReferences {
				return true
			}
		}
		return false
	}

	switch docType {
	case "rst", "restructuredtext":
		if collect(extractInlineCode(content, rstInlineCode, seen)) {
			return refs
		}
		if collect(extractRSTRoles(content, rstPyRole, seen)) {
			return refs
		}
	case "asciidoc":
		if collect(extractInlineCode(content, asciidocInlineCode, seen)) {
			return refs
		}
		if collect(extractCodeBlocks(content, asciidocCodeBlock, seen)) {
			return refs
		}
	default:
		if collect(extractInlineCode(content, markdownInlineCode, seen)) {
			return refs
		}
		if collect(extractFilePaths(content, markdownFilePath, seen)) {
			return refs
		}
		if collect(extractLinkFiles(content, markdownLinkFile, seen)) {
			return refs
		}
		if collect(extractCodeBlocks(content, markdownCodeBlock, seen)) {
			return refs
		}
	}

	return refs
}

func lineNumberAt(content string, pos int) int {
	if pos > len(content) {
		pos = len(content)
	}
	return strings.Count(content[:pos], "\n") + 1
}

func getContext(content string, start, end int) string {
	const contextChars = 50
	ctxStart := start - contextChars
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + contextChars
	if ctxEnd > len(content) {
		ctxEnd = len(content)
	}
	return strings.Join(strings.Fields(content[ctxStart:ctxEnd]), " ")
}

func extractInlineCode(content string, pattern *regexp.Regexp, seen map[string]struct{}) []CodeReference {
	var out []CodeReference
	for _, m := range pattern.FindAllStringSubmatchIndex(content, -1) {
		codeText := strings.TrimSpace(content[m[2]:m[3]])
		if _, ok := seen[codeText]; ok || len(codeText) < 2 || len(codeText) > 200 {
			continue
		}
		if isLikelyProse(codeText) {
			continue
		}
		seen[codeText] = struct{}{}

		refType, expectedKind, confidence := classifyCodeReference(codeText)
		if refType == "" {
			continue
		}
		out = append(out, CodeReference{
			Text:         codeText,
			RefType:      refType,
			LineNumber:   lineNumberAt(content, m[0]),
			Context:      getContext(content, m[0], m[1]),
			Confidence:   confidence,
			ExpectedKind: expectedKind,
		})
	}
	return out
}

func extractFilePaths(content string, pattern *regexp.Regexp, seen map[string]struct{}) []CodeReference {
	var out []CodeReference
	for _, m := range pattern.FindAllStringSubmatchIndex(content, -1) {
		path := strings.TrimSpace(content[m[2]:m[3]])
		if _, ok := seen[path]; ok {
			continue
		}
		if !isValidFilePath(path) {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, CodeReference{
			Text:         path,
			RefType:      "file",
			LineNumber:   lineNumberAt(content, m[0]),
			Context:      getContext(content, m[0], m[1]),
			Confidence:   0.9,
			ExpectedKind: "file",
		})
	}
	return out
}

func extractLinkFiles(content string, pattern *regexp.Regexp, seen map[string]struct{}) []CodeReference {
	var out []CodeReference
	for _, m := range pattern.FindAllStringSubmatchIndex(content, -1) {
		linkText := content[m[2]:m[3]]
		path := strings.TrimSpace(content[m[4]:m[5]])
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, CodeReference{
			Text:         path,
			RefType:      "file",
			LineNumber:   lineNumberAt(content, m[0]),
			Context:      linkText,
			Confidence:   0.95,
			ExpectedKind: "file",
		})
	}
	return out
}

func extractCodeBlocks(content string, pattern *regexp.Regexp, seen map[string]struct{}) []CodeReference {
	var out []CodeReference
	for _, m := range pattern.FindAllStringSubmatchIndex(content, -1) {
		language := strings.ToLower(content[m[2]:m[3]])
		code := content[m[4]:m[5]]
		out = append(out, extractImportsFromCode(code, language, seen)...)
		out = append(out, extractDefinitionsFromCode(code, language, seen)...)
	}
	return out
}

func extractImportsFromCode(code, language string, seen map[string]struct{}) []CodeReference {
	if _, ok := importLanguages[language]; !ok {
		return nil
	}

	var out []CodeReference
	for _, m := range pythonImportLine.FindAllStringSubmatch(code, -1) {
		fromModule := strings.TrimSpace(m[1])
		imports := m[2]

		if fromModule != "" {
			if _, ok := seen[fromModule]; !ok {
				seen[fromModule] = struct{}{}
				out = append(out, CodeReference{Text: fromModule, RefType: "import", Confidence: 0.95, ExpectedKind: "module"})
			}
		}

		for _, imp := range strings.Split(imports, ",") {
			imp = strings.TrimSpace(strings.SplitN(strings.TrimSpace(imp), " as ", 2)[0])
			if imp == "" {
				continue
			}
			if _, ok := seen[imp]; ok {
				continue
			}
			seen[imp] = struct{}{}
			kind := "symbol"
			if strings.Contains(imp, ".") {
				kind = "module"
			}
			out = append(out, CodeReference{Text: imp, RefType: "import", Confidence: 0.9, ExpectedKind: kind})
		}
	}
	return out
}

func extractDefinitionsFromCode(code, language string, seen map[string]struct{}) []CodeReference {
	var out []CodeReference

	if language == "python" || language == "py" || language == "" {
		for _, m := range pyDefPattern.FindAllStringSubmatch(code, -1) {
			name := m[1]
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, CodeReference{Text: name, RefType: "symbol", Confidence: 0.85, ExpectedKind: "function"})
		}
		for _, m := range pyClassPattern.FindAllStringSubmatch(code, -1) {
			name := m[1]
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, CodeReference{Text: name, RefType: "symbol", Confidence: 0.85, ExpectedKind: "class"})
		}
	}

	if language == "javascript" || language == "js" || language == "typescript" || language == "ts" || language == "" {
		for _, m := range jsDefPattern.FindAllStringSubmatch(code, -1) {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, CodeReference{Text: name, RefType: "symbol", Confidence: 0.8, ExpectedKind: "function"})
		}
	}

	return out
}

func extractRSTRoles(content string, pattern *regexp.Regexp, seen map[string]struct{}) []CodeReference {
	var out []CodeReference
	for _, m := range pattern.FindAllStringSubmatchIndex(content, -1) {
		refText := strings.TrimSpace(content[m[2]:m[3]])
		if _, ok := seen[refText]; ok {
			continue
		}
		seen[refText] = struct{}{}

		whole := content[m[0]:m[1]]
		expectedKind := ""
		if rm := pyRoleTypePrefix.FindStringSubmatch(whole); rm != nil {
			expectedKind = roleKindMap[rm[1]]
		}
		refType := "symbol"
		if expectedKind == "module" {
			refType = "module"
		}

		out = append(out, CodeReference{
			Text:         refText,
			RefType:      refType,
			LineNumber:   lineNumberAt(content, m[0]),
			Context:      getContext(content, m[0], m[1]),
			Confidence:   0.95,
			ExpectedKind: expectedKind,
		})
	}
	return out
}

// classifyCodeReference turns the text of an inline code span into a
// reference type, expected kind, and extraction confidence (§4.11
// step 1). An empty refType means the text doesn't look like code at
// all and should be dropped.
func classifyCodeReference(text string) (refType, expectedKind string, confidence float64) {
	if strings.ContainsAny(text, "/\\") {
		ext := ""
		if idx := strings.LastIndex(text, "."); idx >= 0 {
			ext = text[idx:]
		}
		if _, ok := codeExtensions[ext]; ok {
			return "file", "file", 0.9
		}
	}

	if strings.HasPrefix(text, "from ") || strings.HasPrefix(text, "import ") {
		return "import", "module", 0.9
	}

	if strings.HasPrefix(text, "@") {
		return "symbol", "decorator", 0.85
	}

	if m := functionCallPattern.FindStringSubmatch(text); m != nil {
		if strings.Contains(m[1], ".") {
			return "symbol", "method", 0.85
		}
		return "symbol", "function", 0.85
	}

	if classNamePattern.MatchString(text) {
		return "symbol", "class", 0.8
	}

	if modulePathPattern.MatchString(text) {
		return "module", "module", 0.7
	}

	if identifierPattern.MatchString(text) {
		switch {
		case isUpper(text):
			return "symbol", "constant", 0.7
		case text[0] >= 'A' && text[0] <= 'Z':
			return "symbol", "class", 0.75
		default:
			return "symbol", "", 0.6
		}
	}

	return "", "", 0.0
}

// isUpper reports whether text has at least one cased letter and no
// lowercase ones, mirroring Python's str.isupper().
func isUpper(text string) bool {
	hasLetter := false
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func isLikelyProse(text string) bool {
	if strings.Contains(text, " ") && !strings.HasPrefix(text, "from ") && !strings.HasPrefix(text, "import ") {
		if !dottedNoSpaces.MatchString(strings.ReplaceAll(text, " ", "")) {
			return true
		}
	}

	patterns := []*regexp.Regexp{proseSingleLowerWord, proseJustDigits, proseTitleCase}
	for _, p := range patterns {
		if p.MatchString(text) && len(text) < 20 {
			if _, ok := codeTerms[strings.ToLower(text)]; !ok {
				return true
			}
		}
	}

	return false
}

func isValidFilePath(path string) bool {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return false
	}
	ext := "." + parts[len(parts)-1]
	if _, ok := codeExtensions[ext]; !ok {
		return false
	}
	if len(path) < 3 {
		return false
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return false
	}
	return true
}
