package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/vango-dev/vtree/pkg/treespec"
	"github.com/vango-dev/vtree/pkg/vtree"
)

// Category represents the type of error.
type Category string

const (
	CategoryTree      Category = "tree"
	CategoryPass      Category = "pass"
	CategoryConfig    Category = "config"
	CategoryStore     Category = "store"
	CategoryInspector Category = "inspector"
	CategoryCLI       Category = "cli"
)

// Location represents a position in a tree or config file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a structured error with location, suggestion and explanation.
type Error struct {
	// Code is a unique error identifier (e.g., "V001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position the error refers to.
	Location *Location

	// Context contains the surrounding file lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file location to the error.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// yamlLine matches the position yaml.v3 puts in its messages.
var yamlLine = regexp.MustCompile(`line (\d+)`)

// WithLocationFromError extracts the line of a YAML error found in err.
func (e *Error) WithLocationFromError(file string, err error) *Error {
	if err == nil {
		return e
	}
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	line, _ := strconv.Atoi(m[1])
	if line > 0 {
		e.WithLocation(file, line, 0)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error with the given code. Errors that already
// are *Error are returned unchanged.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// Classify maps engine and tree spec errors onto registered codes. Unknown
// errors get fallback.
func Classify(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	code := fallback
	switch {
	case stderrors.Is(err, treespec.ErrEmpty):
		code = "V001"
	case stderrors.Is(err, vtree.ErrEmptyType):
		code = "V002"
	case stderrors.Is(err, vtree.ErrKeyWithoutReuseID):
		code = "V003"
	case stderrors.Is(err, vtree.ErrViewInitWithoutReuseID):
		code = "V004"
	case stderrors.Is(err, vtree.ErrNotMounted):
		code = "V010"
	case stderrors.Is(err, vtree.ErrNoBuilder):
		code = "V011"
	case stderrors.Is(err, vtree.ErrForeignNode):
		code = "V012"
	case stderrors.Is(err, vtree.ErrNilRoot):
		code = "V013"
	case stderrors.Is(err, vtree.ErrNoContext), stderrors.Is(err, vtree.ErrNoPlatform):
		code = "V014"
	}
	out := New(code).Wrap(err)
	var se *treespec.Error
	if stderrors.As(err, &se) && se.Path != "" {
		out.Detail = fmt.Sprintf("At %s. %s", se.Path, out.Detail)
	}
	return out
}
