package ast

// CodeEntityType classifies the kind of code artifact a CodeEntity
// represents.
type CodeEntityType string

const (
	TypeFile      CodeEntityType = "file"
	TypePackage   CodeEntityType = "package"
	TypeFunction  CodeEntityType = "function"
	TypeMethod    CodeEntityType = "method"
	TypeStruct    CodeEntityType = "struct"
	TypeClass     CodeEntityType = "class"
	TypeEnum      CodeEntityType = "enum"
	TypeInterface CodeEntityType = "interface"
	TypeConst     CodeEntityType = "const"
	TypeVar       CodeEntityType = "var"
	TypeType      CodeEntityType = "type" // type alias or definition
)

// Visibility indicates whether a symbol is exported.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"  // exported (uppercase first letter)
	VisibilityPrivate Visibility = "private" // unexported (lowercase first letter)
)
