package lint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Source is a script handed to the rules, parsed once per run.
type Source struct {
	// Path is the display path used in the report.
	Path     string
	Data     []byte
	AST      *js.AST
	ParseErr error
}

// Rule checks a parsed script.
type Rule interface {
	Name() string
	Check(src *Source) []Issue
}

// parseSource parses data as a classic script.
func parseSource(path string, data []byte) *Source {
	src := &Source{Path: path, Data: data}
	src.AST, src.ParseErr = js.Parse(parse.NewInputBytes(data), js.Options{})
	return src
}

// SyntaxRule reports scripts that fail to parse.
type SyntaxRule struct{}

func (SyntaxRule) Name() string { return "syntax" }

func (r SyntaxRule) Check(src *Source) []Issue {
	if src.ParseErr == nil {
		return nil
	}
	issue := Issue{
		File:     src.Path,
		Line:     1,
		Column:   1,
		Rule:     r.Name(),
		Severity: SeverityError,
		Message:  src.ParseErr.Error(),
	}
	var perr *parse.Error
	if errors.As(src.ParseErr, &perr) {
		issue.Line = perr.Line
		issue.Column = perr.Column
		issue.Message = perr.Message
	}
	return []Issue{issue}
}

// UndefRule reports identifiers that are never declared and are not known
// globals.
type UndefRule struct {
	known map[string]bool
}

// NewUndefRule creates the rule with the built-in globals plus extra.
func NewUndefRule(extra []string) *UndefRule {
	return &UndefRule{known: knownGlobals(extra)}
}

func (*UndefRule) Name() string { return "undef" }

func (r *UndefRule) Check(src *Source) []Issue {
	if src.AST == nil || src.ParseErr != nil {
		return nil
	}

	names := make(map[string]bool)
	for _, v := range src.AST.BlockStmt.Scope.Undeclared {
		if v == nil || v.Decl != js.NoDecl {
			continue
		}
		name := string(v.Data)
		if !r.known[name] {
			names[name] = true
		}
	}
	if len(names) == 0 {
		return nil
	}

	positions, guarded := identifierPositions(src.Data, names)
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	issues := make([]Issue, 0, len(sorted))
	for _, name := range sorted {
		pos, ok := positions[name]
		if !ok {
			// Only ever seen as a typeof operand.
			if guarded[name] {
				continue
			}
			pos = position{line: 1, col: 1}
		}
		issues = append(issues, Issue{
			File:     src.Path,
			Line:     pos.line,
			Column:   pos.col,
			Rule:     r.Name(),
			Severity: SeverityError,
			Message:  fmt.Sprintf("'%s' is not defined.", name),
		})
	}
	return issues
}

// DebuggerRule reports leftover debugger statements.
type DebuggerRule struct{}

func (DebuggerRule) Name() string { return "debugger" }

func (r DebuggerRule) Check(src *Source) []Issue {
	if src.AST == nil || src.ParseErr != nil {
		return nil
	}
	var issues []Issue
	scanTokens(src.Data, func(tt js.TokenType, _ []byte, pos position, prev js.TokenType) {
		if tt == js.DebuggerToken && !isMemberAccess(prev) {
			issues = append(issues, Issue{
				File:     src.Path,
				Line:     pos.line,
				Column:   pos.col,
				Rule:     r.Name(),
				Severity: SeverityWarning,
				Message:  "Forgotten 'debugger' statement?",
			})
		}
	})
	return issues
}

type position struct {
	line, col int
}

// identifierPositions returns the first occurrence of each name that is
// neither a property name nor a typeof operand. Guarded holds the names seen
// as typeof operands.
func identifierPositions(data []byte, names map[string]bool) (positions map[string]position, guarded map[string]bool) {
	positions = make(map[string]position, len(names))
	guarded = make(map[string]bool)
	scanTokens(data, func(tt js.TokenType, text []byte, pos position, prev js.TokenType) {
		if tt != js.IdentifierToken || isMemberAccess(prev) {
			return
		}
		name := string(text)
		if !names[name] {
			return
		}
		if prev == js.TypeofToken {
			guarded[name] = true
			return
		}
		if _, done := positions[name]; !done {
			positions[name] = pos
		}
	})
	return positions, guarded
}

func isMemberAccess(prev js.TokenType) bool {
	return prev == js.DotToken || prev == js.OptChainToken
}

// endsExpression reports whether a slash after tt is a division operator
// rather than the start of a regular expression literal.
func endsExpression(tt js.TokenType) bool {
	if js.IsIdentifier(tt) || js.IsNumeric(tt) {
		return true
	}
	switch tt {
	case js.StringToken, js.TemplateToken, js.TemplateEndToken, js.RegExpToken, js.PrivateIdentifierToken,
		js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.IncrToken, js.DecrToken,
		js.ThisToken, js.SuperToken, js.TrueToken, js.FalseToken, js.NullToken:
		return true
	}
	return false
}

// scanTokens lexes data and calls fn for every significant token with its
// 1-based position and the previous significant token type.
func scanTokens(data []byte, fn func(tt js.TokenType, text []byte, pos position, prev js.TokenType)) {
	l := js.NewLexer(parse.NewInputBytes(data))
	line, col := 1, 1
	prev := js.ErrorToken
	for {
		tt, text := l.Next()
		if (tt == js.DivToken || tt == js.DivEqToken) && !endsExpression(prev) {
			tt, text = l.RegExp()
		}
		if tt == js.ErrorToken {
			return
		}
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		default:
			fn(tt, text, position{line: line, col: col}, prev)
			prev = tt
		}
		for _, c := range text {
			if c == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}
}
