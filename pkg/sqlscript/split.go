package sqlscript

import "strings"

type lexState int

const (
	stateNormal lexState = iota
	stateSingleQuote
	stateDoubleQuote
	stateLineComment
	stateBlockComment
)

// Split breaks a SQL script into statements. Semicolons only terminate a
// statement in the normal state; inside quotes or comments they are text.
// Comments are dropped, a backslash-escaped quote does not close a literal,
// and a trailing statement without a semicolon is kept. DELIMITER directives
// are ignored.
func Split(script string) []string {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	script = strings.ReplaceAll(script, "\r", "\n")

	var (
		statements []string
		current    strings.Builder
		state      = stateNormal
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		current.Reset()
		if stmt == "" || strings.HasPrefix(strings.ToUpper(stmt), "DELIMITER") {
			return
		}
		statements = append(statements, stmt)
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case stateNormal:
			switch {
			case c == '-' && next == '-':
				state = stateLineComment
				i++
				continue
			case c == '/' && next == '*':
				state = stateBlockComment
				i++
				continue
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			case c == ';':
				flush()
				continue
			}
			current.WriteRune(c)

		case stateSingleQuote, stateDoubleQuote:
			current.WriteRune(c)
			if c == '\\' && next != 0 {
				current.WriteRune(next)
				i++
				continue
			}
			if (state == stateSingleQuote && c == '\'') || (state == stateDoubleQuote && c == '"') {
				state = stateNormal
			}

		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				current.WriteRune(c)
			}

		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				current.WriteRune(' ')
				i++
			}
		}
	}
	flush()

	return statements
}
