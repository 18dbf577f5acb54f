package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vtree/pkg/vtree"
)

const (
	twoLabels = `
type: Stack
reuse: root
children:
  - type: Label
    reuse: a
    key: first
  - type: Label
    reuse: b
`
	oneLabel = `
type: Stack
reuse: root
children:
  - type: Label
    reuse: a
    key: first
`
)

// project is a temporary directory with a vtree.json and tree files.
type project struct {
	dir string
}

func newProject(t *testing.T) *project {
	t.Helper()
	p := &project{dir: t.TempDir()}
	p.write(t, "vtree.json", `{"log": {"level": "error"}, "snapshot": {"bolt": {"path": "snapshots.db"}}}`)
	p.write(t, "two.yaml", twoLabels)
	p.write(t, "one.yaml", oneLabel)
	return p
}

func (p *project) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, name), []byte(content), 0o644))
}

func (p *project) path(name string) string {
	return filepath.Join(p.dir, name)
}

func (p *project) run(args ...string) (code int, stdout, stderr string) {
	var out, errb bytes.Buffer
	code = run(append([]string{"--config", p.dir}, args...), &out, &errb)
	return code, out.String(), errb.String()
}

func TestRenderText(t *testing.T) {
	p := newProject(t)
	code, out, errOut := p.run("render", p.path("two.yaml"))
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Container#v1\n  Stack#v2\n    Label#v3\n    Label#v4\n", out)
}

func TestRenderJSONAndStats(t *testing.T) {
	p := newProject(t)
	code, out, errOut := p.run("render", p.path("two.yaml"), "--format", "json", "--stats")
	require.Equal(t, 0, code, errOut)

	var d vtree.Description
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "Stack", d.Type)
	assert.Len(t, d.Children, 2)
	assert.Contains(t, errOut, "constructed=3 reused=0 dismantled=0 configured=3")
}

func TestRenderErrors(t *testing.T) {
	p := newProject(t)
	p.write(t, "bad.yaml", "type: Stack\nchildren:\n  - reuse: x\n")

	code, _, errOut := p.run("render", p.path("bad.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "V002")
	assert.Contains(t, errOut, "children[0]")

	code, _, errOut = p.run("render", p.path("missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "V001")

	code, _, errOut = p.run("render", p.path("two.yaml"), "--format", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "V050")

	code, _, errOut = p.run("render", p.path("two.yaml"), "--option", "sideways")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "sideways")
}

func TestDiff(t *testing.T) {
	p := newProject(t)
	code, out, errOut := p.run("diff", p.path("two.yaml"), p.path("one.yaml"))
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, out)
	assert.True(t, strings.HasPrefix(lines[0], "dismantle"), lines[0])
	assert.Contains(t, lines[0], "Label#v4")
	assert.Equal(t, "constructed=0 reused=2 dismantled=1 configured=2", lines[1])
}

func TestDiffJSONAll(t *testing.T) {
	p := newProject(t)
	code, out, errOut := p.run("diff", p.path("one.yaml"), p.path("two.yaml"), "--format", "json", "--all")
	require.Equal(t, 0, code, errOut)

	var got struct {
		Changes []change    `json:"changes"`
		Stats   vtree.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Stats.Constructed)
	assert.Equal(t, 2, got.Stats.Reused)

	ops := map[string]int{}
	for _, c := range got.Changes {
		ops[c.Op]++
	}
	assert.Equal(t, 1, ops["construct"])
	assert.Equal(t, 3, ops["reconcile"])
}

func TestQuery(t *testing.T) {
	p := newProject(t)

	code, out, errOut := p.run("query", p.path("two.yaml"), "--key", "first")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Label#v3\n", out)

	code, out, errOut = p.run("query", p.path("two.yaml"), "--reuse", "b")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Label#v4\n", out)

	code, _, errOut = p.run("query", p.path("two.yaml"), "--key", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no view matches")

	code, _, _ = p.run("query", p.path("two.yaml"), "--key", "a", "--reuse", "b")
	assert.Equal(t, 1, code)

	code, _, _ = p.run("query", p.path("two.yaml"))
	assert.Equal(t, 1, code)
}

func TestSnapshotLifecycle(t *testing.T) {
	p := newProject(t)

	code, out, errOut := p.run("snapshot", "save", "home", p.path("two.yaml"))
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "saved home (3 nodes)\n", out)
	assert.FileExists(t, p.path("snapshots.db"))

	code, out, _ = p.run("snapshot", "list")
	require.Equal(t, 0, code)
	assert.Equal(t, "home\n", out)

	code, out, errOut = p.run("snapshot", "get", "home")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"name": "home"`)

	code, out, errOut = p.run("snapshot", "get", "home", "--diff", p.path("two.yaml"))
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "home: no changes\n", out)

	code, out, _ = p.run("snapshot", "get", "home", "--diff", p.path("one.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "tree changed")

	code, _, errOut = p.run("snapshot", "get", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "V030")

	code, _, errOut = p.run("snapshot", "save", "../x", p.path("two.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "V050")

	code, _, errOut = p.run("snapshot", "delete", "home")
	require.Equal(t, 0, code, errOut)
	code, out, _ = p.run("snapshot", "list")
	require.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestGlobalFlags(t *testing.T) {
	p := newProject(t)

	code, _, errOut := p.run("--log-level", "loud", "version")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "loud")

	code, out, _ := p.run("--no-color", "version", "--short")
	assert.Equal(t, 0, code)
	assert.Equal(t, "dev\n", out)

	var errb bytes.Buffer
	code = run([]string{"--config", p.path("nope.json"), "version"}, io.Discard, &errb)
	assert.Equal(t, 1, code)
	assert.Contains(t, errb.String(), "V020")
}

func TestServe(t *testing.T) {
	p := newProject(t)
	a := &app{stdout: io.Discard, stderr: io.Discard, configPath: p.dir}
	require.NoError(t, a.setup())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.serve(ctx, ln, vtree.Size{Width: 100, Height: 100}, vtree.OptionNone, true, []string{p.path("two.yaml")})
	}()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(base + "/tree")
	require.NoError(t, err)
	var d vtree.Description
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	resp.Body.Close()
	assert.Equal(t, "Stack", d.Type)

	resp, err = http.Post(base+"/snapshots/live", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "vtree_passes_total")
	assert.Contains(t, string(body), "go_goroutines")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestInit(t *testing.T) {
	p := newProject(t)
	target := filepath.Join(p.dir, "demo")

	code, out, errOut := p.run("init", target, "--template", "minimal")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "created")
	assert.FileExists(t, filepath.Join(target, "vtree.json"))

	var rendered bytes.Buffer
	code = run([]string{"--config", target, "render", filepath.Join(target, "tree.yaml")}, &rendered, io.Discard)
	assert.Equal(t, 0, code)
	assert.Contains(t, rendered.String(), "Stack#v2")

	code, _, errOut = p.run("init", target, "--template", "minimal")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already exists")

	code, _, errOut = p.run("init", filepath.Join(p.dir, "x"), "--name", "bad name")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "V050")
}
