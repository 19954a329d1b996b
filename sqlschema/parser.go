// Package sqlschema extracts structured table and routine metadata from
// SQL DDL files: CREATE TABLE column/constraint shape, and CREATE
// FUNCTION/PROCEDURE/TRIGGER signatures. Parsing is regex-based rather
// than a full SQL grammar, mirroring the fallback path the system this
// was ported from falls back to for dialect-specific syntax a strict
// parser chokes on (PL/pgSQL function bodies, trigger definitions).
package sqlschema

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Column is one parsed column definition from a CREATE TABLE statement.
type Column struct {
	Name         string
	DataType     string
	Nullable     bool
	Default      string
	IsPrimaryKey bool
	IsForeignKey bool
	FKReferences string // "table.column", or "table" when no column is named
}

// Constraint is one parsed table-level constraint.
type Constraint struct {
	Name       string
	Type       string // PRIMARY KEY, FOREIGN KEY, UNIQUE, CHECK
	Definition string
	Columns    []string
}

// Table is a parsed CREATE TABLE statement.
type Table struct {
	SchemaName      string
	TableName       string
	QualifiedName   string
	Columns         []Column
	Constraints     []Constraint
	CreateStatement string
	StartLine       int
	EndLine         int
	ContentHash     string
}

// Parameter is one parsed routine parameter.
type Parameter struct {
	Name    string
	Type    string
	Mode    string // IN, OUT, INOUT
	Default string
}

// Routine is a parsed CREATE FUNCTION/PROCEDURE/TRIGGER statement.
type Routine struct {
	SchemaName      string
	RoutineName     string
	QualifiedName   string
	RoutineType     string // FUNCTION, PROCEDURE, TRIGGER
	Parameters      []Parameter
	ReturnType      string
	Language        string
	Volatility      string
	TriggerTable    string
	TriggerEvents   []string
	TriggerTiming   string
	CreateStatement string
	StartLine       int
	EndLine         int
	ContentHash     string
}

var (
	createTablePattern   = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([\w."]+)\s*\((.*)\)\s*[\w\s=]*;?\s*$`)
	createFunctionHead   = regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+([\w."]+)\s*\(([^)]*)\)`)
	createProcedureHead  = regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?PROCEDURE\s+([\w."]+)\s*\(([^)]*)\)`)
	triggerNamePattern   = regexp.MustCompile(`(?is)CREATE\s+(?:OR\s+REPLACE\s+)?TRIGGER\s+(?:IF\s+NOT\s+EXISTS\s+)?(["\w.]+)`)
	triggerTimingPattern = regexp.MustCompile(`(?is)\b(BEFORE|AFTER|INSTEAD\s+OF)\b`)
	triggerTablePattern  = regexp.MustCompile(`(?is)\bON\s+(["\w.]+)`)
	returnsPattern       = regexp.MustCompile(`(?is)\bRETURNS\s+([\w\[\]]+(?:\s*\([^)]*\))?)`)
	languagePattern      = regexp.MustCompile(`(?is)\bLANGUAGE\s+(["\w]+)`)
	volatilityPattern    = regexp.MustCompile(`(?is)\b(VOLATILE|STABLE|IMMUTABLE)\b`)
	notNullPattern       = regexp.MustCompile(`(?is)\bNOT\s+NULL\b`)
	primaryKeyPattern    = regexp.MustCompile(`(?is)\bPRIMARY\s+KEY\b`)
	defaultPattern       = regexp.MustCompile(`(?is)\bDEFAULT\s+([^\s,]+(?:\([^)]*\))?)`)
	referencesPattern    = regexp.MustCompile(`(?is)\bREFERENCES\s+([\w."]+)\s*(?:\(([\w,\s]+)\))?`)
)

// ParseFile parses a .sql file's content into its tables and routines.
func ParseFile(content string) ([]Table, []Routine) {
	var tables []Table
	var routines []Routine

	for _, stmt := range splitStatements(content) {
		upper := strings.ToUpper(strings.TrimSpace(stmt.text))
		switch {
		case strings.HasPrefix(upper, "CREATE TABLE"):
			if t := parseCreateTable(stmt); t != nil {
				tables = append(tables, *t)
			}
		case strings.HasPrefix(upper, "CREATE FUNCTION"), strings.HasPrefix(upper, "CREATE OR REPLACE FUNCTION"):
			if r := parseCreateRoutine(stmt, "FUNCTION"); r != nil {
				routines = append(routines, *r)
			}
		case strings.HasPrefix(upper, "CREATE PROCEDURE"), strings.HasPrefix(upper, "CREATE OR REPLACE PROCEDURE"):
			if r := parseCreateRoutine(stmt, "PROCEDURE"); r != nil {
				routines = append(routines, *r)
			}
		case strings.HasPrefix(upper, "CREATE TRIGGER"), strings.HasPrefix(upper, "CREATE OR REPLACE TRIGGER"):
			if r := parseCreateTrigger(stmt); r != nil {
				routines = append(routines, *r)
			}
		}
	}

	return tables, routines
}

// statement is one top-level SQL statement plus its line span in the
// original file.
type statement struct {
	text      string
	startLine int
	endLine   int
}

// splitStatements splits content into statements on top-level
// semicolons, treating a "$$...$$" or "$tag$...$tag$" dollar-quoted
// span (PL/pgSQL function bodies) as opaque so a semicolon inside a
// routine body doesn't end the statement early.
func splitStatements(content string) []statement {
	var stmts []statement
	var current strings.Builder
	startLine := 1
	line := 1

	inDollarQuote := false
	var dollarTag string

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == '\n' {
			line++
		}

		// A statement starts at its first non-space character.
		if current.Len() == 0 {
			if strings.TrimSpace(string(ch)) == "" {
				continue
			}
			startLine = line
		}

		if !inDollarQuote && ch == '$' {
			if tag, ok := matchDollarTag(runes, i); ok {
				inDollarQuote = true
				dollarTag = tag
				current.WriteString(tag)
				i += len(tag) - 1
				continue
			}
		} else if inDollarQuote && ch == '$' {
			if tag, ok := matchDollarTag(runes, i); ok && tag == dollarTag {
				inDollarQuote = false
				current.WriteString(tag)
				i += len(tag) - 1
				continue
			}
		}

		if !inDollarQuote && ch == ';' {
			current.WriteRune(ch)
			text := strings.TrimSpace(current.String())
			if text != "" {
				stmts = append(stmts, statement{text: text, startLine: startLine, endLine: line})
			}
			current.Reset()
			startLine = line
			continue
		}

		current.WriteRune(ch)
	}

	if text := strings.TrimSpace(current.String()); text != "" {
		stmts = append(stmts, statement{text: text, startLine: startLine, endLine: line})
	}

	return stmts
}

// matchDollarTag checks whether content starting at i is a dollar-quote
// delimiter ($$ or $tag$) and returns it if so.
func matchDollarTag(runes []rune, i int) (string, bool) {
	if runes[i] != '$' {
		return "", false
	}
	j := i + 1
	for j < len(runes) && (runes[j] == '_' || isAlnum(runes[j])) {
		j++
	}
	if j < len(runes) && runes[j] == '$' {
		return string(runes[i : j+1]), true
	}
	return "", false
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func parseCreateTable(stmt statement) *Table {
	m := createTablePattern.FindStringSubmatch(stmt.text)
	if m == nil {
		return nil
	}
	schemaName, tableName := splitQualified(m[1])
	qualified := m[1]
	if schemaName != "" {
		qualified = schemaName + "." + tableName
	} else {
		qualified = tableName
	}

	columns, constraints := parseColumnsAndConstraints(m[2])

	return &Table{
		SchemaName:      schemaName,
		TableName:       tableName,
		QualifiedName:   qualified,
		Columns:         columns,
		Constraints:     constraints,
		CreateStatement: stmt.text,
		StartLine:       stmt.startLine,
		EndLine:         stmt.endLine,
		ContentHash:     hashStatement(stmt.text),
	}
}

// parseColumnsAndConstraints splits a CREATE TABLE's parenthesized body
// on top-level commas (respecting nested parens) and classifies each
// entry as a column definition or a table-level constraint.
func parseColumnsAndConstraints(body string) ([]Column, []Constraint) {
	var columns []Column
	var constraints []Constraint
	pkColumns := make(map[string]bool)

	for _, entry := range splitTopLevel(body, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		upper := strings.ToUpper(entry)

		switch {
		case strings.HasPrefix(upper, "PRIMARY KEY"):
			cols := extractParenList(entry)
			for _, c := range cols {
				pkColumns[c] = true
			}
			constraints = append(constraints, Constraint{Type: "PRIMARY KEY", Definition: entry, Columns: cols})
		case strings.HasPrefix(upper, "FOREIGN KEY"):
			cols := extractParenList(entry)
			constraints = append(constraints, Constraint{Type: "FOREIGN KEY", Definition: entry, Columns: cols})
		case strings.HasPrefix(upper, "UNIQUE"):
			cols := extractParenList(entry)
			constraints = append(constraints, Constraint{Type: "UNIQUE", Definition: entry, Columns: cols})
		case strings.HasPrefix(upper, "CHECK"):
			constraints = append(constraints, Constraint{Type: "CHECK", Definition: entry})
		case strings.HasPrefix(upper, "CONSTRAINT"):
			constraints = append(constraints, parseNamedConstraint(entry))
		default:
			columns = append(columns, parseColumnDef(entry))
		}
	}

	for i := range columns {
		if pkColumns[columns[i].Name] {
			columns[i].IsPrimaryKey = true
		}
	}

	return columns, constraints
}

func parseNamedConstraint(entry string) Constraint {
	fields := strings.Fields(entry)
	name := ""
	rest := entry
	if len(fields) >= 2 && strings.EqualFold(fields[0], "CONSTRAINT") {
		name = fields[1]
		idx := strings.Index(entry, fields[1])
		rest = strings.TrimSpace(entry[idx+len(fields[1]):])
	}
	upper := strings.ToUpper(rest)
	ctype := "CHECK"
	switch {
	case strings.HasPrefix(upper, "PRIMARY KEY"):
		ctype = "PRIMARY KEY"
	case strings.HasPrefix(upper, "FOREIGN KEY"):
		ctype = "FOREIGN KEY"
	case strings.HasPrefix(upper, "UNIQUE"):
		ctype = "UNIQUE"
	}
	return Constraint{Name: name, Type: ctype, Definition: entry, Columns: extractParenList(rest)}
}

func parseColumnDef(entry string) Column {
	fields := strings.Fields(entry)
	if len(fields) == 0 {
		return Column{}
	}
	col := Column{
		Name:     strings.Trim(fields[0], `"`),
		Nullable: true,
	}
	if len(fields) > 1 {
		col.DataType = fields[1]
	}
	if primaryKeyPattern.MatchString(entry) {
		col.IsPrimaryKey = true
		col.Nullable = false
	}
	if notNullPattern.MatchString(entry) {
		col.Nullable = false
	}
	if m := defaultPattern.FindStringSubmatch(entry); m != nil {
		col.Default = m[1]
	}
	if m := referencesPattern.FindStringSubmatch(entry); m != nil {
		col.IsForeignKey = true
		if m[2] != "" {
			col.FKReferences = m[1] + "." + strings.TrimSpace(m[2])
		} else {
			col.FKReferences = m[1]
		}
	}
	return col
}

func parseCreateRoutine(stmt statement, routineType string) *Routine {
	var m []string
	if routineType == "FUNCTION" {
		m = createFunctionHead.FindStringSubmatch(stmt.text)
	} else {
		m = createProcedureHead.FindStringSubmatch(stmt.text)
	}
	if m == nil {
		return nil
	}

	schemaName, routineName := splitQualified(m[1])
	qualified := routineName
	if schemaName != "" {
		qualified = schemaName + "." + routineName
	}

	var returnType string
	if routineType == "FUNCTION" {
		if rm := returnsPattern.FindStringSubmatch(stmt.text); rm != nil {
			returnType = strings.TrimSpace(rm[1])
		}
	}

	var language, volatility string
	if lm := languagePattern.FindStringSubmatch(stmt.text); lm != nil {
		language = strings.Trim(lm[1], `"`)
	}
	if vm := volatilityPattern.FindStringSubmatch(stmt.text); vm != nil {
		volatility = strings.ToUpper(vm[1])
	}

	return &Routine{
		SchemaName:      schemaName,
		RoutineName:     routineName,
		QualifiedName:   qualified,
		RoutineType:     routineType,
		Parameters:      parseParameters(m[2]),
		ReturnType:      returnType,
		Language:        language,
		Volatility:      volatility,
		CreateStatement: stmt.text,
		StartLine:       stmt.startLine,
		EndLine:         stmt.endLine,
		ContentHash:     hashStatement(stmt.text),
	}
}

func parseParameters(body string) []Parameter {
	var params []Parameter
	for _, entry := range splitTopLevel(body, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}

		p := Parameter{Mode: "IN"}
		idx := 0
		switch strings.ToUpper(fields[0]) {
		case "IN", "OUT", "INOUT":
			p.Mode = strings.ToUpper(fields[0])
			idx = 1
		}
		if idx < len(fields) {
			p.Name = fields[idx]
			idx++
		}
		if idx < len(fields) {
			p.Type = strings.Join(fields[idx:], " ")
		}
		if m := defaultPattern.FindStringSubmatch(entry); m != nil {
			p.Default = m[1]
		}
		params = append(params, p)
	}
	return params
}

// parseCreateTrigger mirrors the regex-only trigger parser: triggers are
// dialect-heavy enough (BEFORE/AFTER/INSTEAD OF, multi-event ON
// clauses) that a plain prefix/suffix regex walk is both simpler and
// more robust than a grammar-based parse.
func parseCreateTrigger(stmt statement) *Routine {
	nameMatch := triggerNamePattern.FindStringSubmatch(stmt.text)
	if nameMatch == nil {
		return nil
	}
	fullName := strings.Trim(nameMatch[1], `"`)
	schemaName, triggerName := splitQualified(fullName)
	qualified := triggerName
	if schemaName != "" {
		qualified = schemaName + "." + triggerName
	}

	var timing string
	if tm := triggerTimingPattern.FindStringSubmatch(stmt.text); tm != nil {
		timing = strings.ToUpper(strings.Join(strings.Fields(tm[1]), " "))
	}

	var events []string
	upper := strings.ToUpper(stmt.text)
	for _, ev := range []string{"INSERT", "UPDATE", "DELETE", "TRUNCATE"} {
		if strings.Contains(upper, ev) {
			events = append(events, ev)
		}
	}

	var table string
	if tbl := triggerTablePattern.FindStringSubmatch(stmt.text); tbl != nil {
		table = strings.Trim(tbl[1], `"`)
	}

	return &Routine{
		SchemaName:      schemaName,
		RoutineName:     triggerName,
		QualifiedName:   qualified,
		RoutineType:     "TRIGGER",
		TriggerTable:    table,
		TriggerEvents:   events,
		TriggerTiming:   timing,
		CreateStatement: stmt.text,
		StartLine:       stmt.startLine,
		EndLine:         stmt.endLine,
		ContentHash:     hashStatement(stmt.text),
	}
}

// splitQualified splits a possibly schema-qualified identifier
// ("public.users" or "users") into its schema and leaf name.
func splitQualified(name string) (schema, leaf string) {
	name = strings.Trim(name, `"`)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return strings.Trim(name[:idx], `"`), strings.Trim(name[idx+1:], `"`)
	}
	return "", name
}

// splitTopLevel splits s on sep, ignoring separators nested inside
// parentheses.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	var current strings.Builder

	for _, ch := range s {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case sep:
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// extractParenList extracts and splits the first parenthesized column
// list found in s, e.g. "PRIMARY KEY (id, tenant_id)" -> ["id", "tenant_id"].
func extractParenList(s string) []string {
	start := strings.Index(s, "(")
	if start < 0 {
		return nil
	}
	end := strings.Index(s[start:], ")")
	if end < 0 {
		return nil
	}
	inner := s[start+1 : start+end]
	var cols []string
	for _, c := range strings.Split(inner, ",") {
		c = strings.Trim(strings.TrimSpace(c), `"`)
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func hashStatement(stmt string) string {
	sum := sha256.Sum256([]byte(stmt))
	return hex.EncodeToString(sum[:8])
}
