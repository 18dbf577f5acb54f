package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/vtree/pkg/treespec"
	"github.com/vango-dev/vtree/pkg/vtree"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "tree error",
			code:    "V002",
			wantMsg: "Node without type",
			wantCat: CategoryTree,
		},
		{
			name:    "pass error",
			code:    "V010",
			wantMsg: "Hierarchy is not mounted",
			wantCat: CategoryPass,
		},
		{
			name:    "unknown error code",
			code:    "V999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestRegistryIsComplete(t *testing.T) {
	for _, code := range Codes() {
		tmpl, _ := Lookup(code)
		if tmpl.Category == "" || tmpl.Message == "" {
			t.Errorf("%s: missing category or message", code)
		}
		if !strings.HasPrefix(code, "V") {
			t.Errorf("%s: codes must start with V", code)
		}
	}
}

func TestErrorIncludesCause(t *testing.T) {
	cause := fmt.Errorf("open tree.yaml: %w", os.ErrNotExist)
	err := New("V001").Wrap(cause)

	if got, want := err.Error(), "V001: Tree description could not be parsed: open tree.yaml: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is should see through the wrapper")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&vtree.NodeError{Op: "Layout", Err: vtree.ErrNotMounted}, "V010"},
		{vtree.ErrNoBuilder, "V011"},
		{vtree.ErrForeignNode, "V012"},
		{vtree.ErrNilRoot, "V013"},
		{vtree.ErrNoPlatform, "V014"},
		{treespec.ErrEmpty, "V001"},
		{&treespec.Error{Path: "children[0]", Err: vtree.ErrEmptyType}, "V002"},
		{stderrors.New("boom"), "V019"},
	}
	for _, tt := range tests {
		if got := Classify(tt.err, "V019").Code; got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}

	e := Classify(&treespec.Error{Path: "footer", Err: vtree.ErrKeyWithoutReuseID}, "V001")
	if !strings.HasPrefix(e.Detail, "At footer.") {
		t.Errorf("Detail = %q", e.Detail)
	}
	if Classify(nil, "V019") != nil {
		t.Error("Classify(nil) != nil")
	}
	existing := New("V030")
	if Classify(fmt.Errorf("wrapped: %w", existing), "V019") != existing {
		t.Error("Classify should return an existing *Error")
	}
}

func TestWithLocationFromError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.yaml")
	content := "type: A\nchildren:\n  - type: B\n    colour: red\n  - type: C\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("V001").WithLocationFromError(path, stderrors.New("yaml: unmarshal errors:\n  line 4: field colour not found"))
	if err.Location == nil || err.Location.Line != 4 {
		t.Fatalf("Location = %v", err.Location)
	}
	if len(err.Context) == 0 || !strings.Contains(strings.Join(err.Context, "\n"), "colour") {
		t.Errorf("Context = %q", err.Context)
	}

	none := New("V001").WithLocationFromError(path, stderrors.New("no position"))
	if none.Location != nil {
		t.Error("location set without a line number")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("V003").WithDetail("At children[2].").Wrap(vtree.ErrKeyWithoutReuseID)
	out := err.Format()
	for _, want := range []string{
		"ERROR V003: Coordinator key without reuse identifier",
		"At children[2].",
		"Cause: vtree: coordinator key requires a reuse identifier",
		"Hint: Add a reuse: field next to key:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors not disabled")
	}

	loc := &Error{Message: "bad", Location: &Location{File: "t.yaml", Line: 3, Column: 2}, Context: []string{"a", "b", "c"}}
	out = loc.Format()
	if !strings.Contains(out, "→    3 │ b") || !strings.Contains(out, "│  ^") {
		t.Errorf("context not rendered:\n%s", out)
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("V002")
	err.Location = &Location{File: "tree.yaml", Line: 4}
	if got, want := err.FormatCompact(), "tree.yaml:4: V002: Node without type"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("V030").Wrap(stderrors.New(`missing "a"`))
	raw, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatal(jerr)
	}
	var got map[string]any
	if jerr := json.Unmarshal(raw, &got); jerr != nil {
		t.Fatal(jerr)
	}
	if got["code"] != "V030" || got["category"] != "store" || got["cause"] != `missing "a"` {
		t.Errorf("json = %s", raw)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, fmt.Errorf("ctx: %w", New("V011")))
	if !strings.Contains(buf.String(), "ERROR V011") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 9)
	want := []string{"one two", "three", "four five"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", lines, want)
	}
}
