package treesitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// ErrUnparsable is returned for sources whose syntax tree contains errors.
var ErrUnparsable = errors.New("source contains syntax errors")

// LanguageParser wraps tree-sitter parser with language-specific grammar
// IMPORTANT: Always call Close() to prevent memory leaks (CGO requirement)
// A LanguageParser is not safe for concurrent use.
type LanguageParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	langName string
}

// NewLanguageParser creates a parser for the specified language
// Supported languages: csharp
func NewLanguageParser(lang string) (*LanguageParser, error) {
	var language *sitter.Language
	switch lang {
	case "csharp":
		language = csharp.GetLanguage()
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(language)

	return &LanguageParser{
		parser:   parser,
		language: language,
		langName: lang,
	}, nil
}

// Close releases parser resources (REQUIRED - CGO memory management)
func (lp *LanguageParser) Close() {
	if lp.parser != nil {
		lp.parser.Close()
	}
}

// Parse parses source code and returns the syntax tree
// Caller must call tree.Close() when done
func (lp *LanguageParser) Parse(ctx context.Context, code []byte) (*sitter.Tree, error) {
	tree, err := lp.parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("failed to parse code: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse code")
	}
	return tree, nil
}

// ParseFile reads a script from disk and extracts its serializable fields.
func ParseFile(ctx context.Context, filePath string, opts ExtractOptions) *ParseResult {
	lang := DetectLanguage(filePath)
	if lang == "" {
		return &ParseResult{
			FilePath: filePath,
			Error:    fmt.Errorf("unsupported file type: %s", filePath),
		}
	}

	code, err := os.ReadFile(filePath)
	if err != nil {
		return &ParseResult{
			FilePath: filePath,
			Language: lang,
			Error:    fmt.Errorf("failed to read file: %w", err),
		}
	}

	fields, err := ExtractSerializableFields(ctx, filePath, code, opts)
	return &ParseResult{
		FilePath: filePath,
		Language: lang,
		Fields:   fields,
		Error:    err,
	}
}

// DetectLanguage returns language identifier from file extension
func DetectLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".cs":
		return "csharp"
	default:
		return ""
	}
}
