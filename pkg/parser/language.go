// Package parser parses JavaScript and TypeScript theme modules with
// tree-sitter and pulls the object literals they export.
package parser

import (
	"path/filepath"
	"strings"
)

// Language is a grammar the Manager can parse with.
type Language int

const (
	LanguageTypeScript Language = iota
	LanguageJavaScript
	LanguageUnknown
)

// String returns the lower-case language name.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage maps a file extension to a grammar. JSX and TSX count as
// their base language; IsTSXFile selects the TSX grammar variant.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile reports whether filePath needs the TSX grammar.
func IsTSXFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".tsx"
}

// SupportedLanguages lists the grammars compiled into the binary.
func SupportedLanguages() []Language {
	return []Language{LanguageTypeScript, LanguageJavaScript}
}
