package sqlschema

import (
	"fmt"
	"strings"
)

// Summarize renders a table's parsed shape as plain-text documentation,
// one paragraph per table/routine, for storage as a SQL_SCHEMA document.
// A later pass may replace this with an LLM-generated summary (small
// model slot) the way the system this was ported from does; the
// deterministic rendering here is what indexing can rely on without a
// network round trip per file.
func Summarize(path string, tables []Table, routines []Routine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Schema: %s\n\n", path)

	for _, t := range tables {
		fmt.Fprintf(&b, "## Table `%s`\n\n", t.QualifiedName)
		for _, c := range t.Columns {
			flags := columnFlags(c)
			if flags != "" {
				fmt.Fprintf(&b, "- `%s` %s (%s)\n", c.Name, c.DataType, flags)
			} else {
				fmt.Fprintf(&b, "- `%s` %s\n", c.Name, c.DataType)
			}
		}
		for _, c := range t.Constraints {
			fmt.Fprintf(&b, "- constraint %s: %s\n", c.Type, strings.Join(c.Columns, ", "))
		}
		b.WriteString("\n")
	}

	for _, r := range routines {
		fmt.Fprintf(&b, "## %s `%s`\n\n", capitalize(r.RoutineType), r.QualifiedName)
		if r.RoutineType == "TRIGGER" {
			fmt.Fprintf(&b, "%s %s on `%s`\n\n", r.TriggerTiming, strings.Join(r.TriggerEvents, "/"), r.TriggerTable)
			continue
		}
		var params []string
		for _, p := range r.Parameters {
			params = append(params, fmt.Sprintf("%s %s", p.Name, p.Type))
		}
		fmt.Fprintf(&b, "(%s)", strings.Join(params, ", "))
		if r.ReturnType != "" {
			fmt.Fprintf(&b, " returns %s", r.ReturnType)
		}
		if r.Language != "" {
			fmt.Fprintf(&b, " [%s]", r.Language)
		}
		b.WriteString("\n\n")
	}

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func columnFlags(c Column) string {
	var flags []string
	if c.IsPrimaryKey {
		flags = append(flags, "PK")
	}
	if c.IsForeignKey {
		flags = append(flags, "FK -> "+c.FKReferences)
	}
	if !c.Nullable {
		flags = append(flags, "NOT NULL")
	}
	if c.Default != "" {
		flags = append(flags, "DEFAULT "+c.Default)
	}
	return strings.Join(flags, ", ")
}
