package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryConfig = `
engine: bbolt
logLevel: error
database:
  name: Library
  version: 1
  stores:
    - name: books
      keyPath: isbn
      indexes:
        author: {}
    - name: notes
`

// session runs commands against one data directory and records a transcript.
type session struct {
	t          *testing.T
	globalArgs []string
	transcript bytes.Buffer
}

func newSession(t *testing.T, globalArgs ...string) *session {
	t.Helper()

	return &session{
		t:          t,
		globalArgs: append([]string{"--data", t.TempDir()}, globalArgs...),
	}
}

func (s *session) run(args ...string) string {
	s.t.Helper()

	out := s.output(args...)
	s.transcript.WriteString("$ objectbase " + strings.Join(args, " ") + "\n")
	s.transcript.WriteString(out)
	return out
}

// output runs a command without recording it.
func (s *session) output(args ...string) string {
	s.t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(append([]string{}, s.globalArgs...), args...))
	require.NoError(s.t, cmd.Execute(), strings.Join(args, " "))
	return out.String()
}

func (s *session) fail(args ...string) error {
	s.t.Helper()

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(append([]string{}, s.globalArgs...), args...))
	err := cmd.Execute()
	require.Error(s.t, err, strings.Join(args, " "))
	return err
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"info", "query", "keys", "insert", "update", "remove", "export", "import", "metrics", "maintain", "todo", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, name := range []string{"config", "data", "engine", "log"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestTodo(t *testing.T) {
	posted := time.UnixMilli(1700000000000)
	now = func() time.Time {
		posted = posted.Add(time.Second)
		return posted
	}
	defer func() {
		now = time.Now
	}()

	s := newSession(t, "--engine", "bbolt", "--log", "error")
	s.run("todo", "add", "Buy milk", "2 bottles")
	s.run("todo", "add", "Write code")
	s.run("todo", "add", "Buy milk", "again")
	s.run("todo", "done", "1700000002000")
	s.run("todo", "rm", "1700000003000")
	s.run("todo", "list")
	s.run("todo", "list", "--title", "Buy milk")
	s.run("todo", "list", "--dir", "prev")

	assert.Error(t, s.fail("todo", "done", "42"))
	assert.Error(t, s.fail("todo", "rm", "soon"))

	g := goldie.New(t)
	g.Assert(t, "todo", s.transcript.Bytes())
}

func TestLibrary(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "objectbase.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(libraryConfig), 0o600))
	archivePath := filepath.Join(t.TempDir(), "library.archive")

	s := newSession(t, "--config", configPath)
	s.run("insert", "books",
		`{"isbn": "b1", "author": "b", "title": "x"}`,
		`{"isbn": "b2", "author": "a", "title": "y"}`,
		`{"isbn": "b3", "author": "b", "title": "z"}`,
	)
	s.run("insert", "notes", `{"text": "hi"}`)
	s.run("info")
	s.run("query", "books", "--index", "author")
	s.run("query", "books", "--index", "author", "--dir", "prevunique")
	s.run("query", "books", "--page", "1", "--size", "1")
	s.run("query", "books", "--lower", "b2", "--count")
	s.run("query", "books", "--lower", "b1", "--upper", "b3", "--lower-open", "--upper-open")
	s.run("keys", "books", "b", "a", "--index", "author")
	s.run("update", "books", "b1", `{"title": "new", "author": ""}`)
	s.run("remove", "books", "b3")
	s.run("query", "books")
	s.output("export", "--out", archivePath, "--format", "cbor", "--compress")
	s.run("remove", "books", "b1", "b2")
	s.output("import", archivePath)
	s.run("query", "books")
	s.run("maintain", "--thorough")

	err := s.fail("insert", "books", `{"isbn": "b4"}`, `{"isbn": "b2"}`)
	assert.Contains(t, err.Error(), "[item 1]")
	s.run("query", "books", "--count")

	assert.Error(t, s.fail("query", "missing"))
	assert.Error(t, s.fail("insert", "books", "not json"))
	assert.Error(t, s.fail("update", "books", "nope", `{"title": "x"}`))

	metrics := s.output("metrics")
	assert.Contains(t, metrics, `objectbase_ops_total{op="insert many"}`)
	assert.Contains(t, metrics, "objectbase_connections_open 1")

	g := goldie.New(t)
	g.Assert(t, "library", s.transcript.Bytes())
}

func TestMissingDatabase(t *testing.T) {
	s := newSession(t, "--engine", "hashmap")
	err := s.fail("info")
	assert.Contains(t, err.Error(), "no database configured")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "does-not-exist.yaml", "version", "--short"})
	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}

func TestParseKey(t *testing.T) {
	assert.Equal(t, 42.0, parseKey("42"))
	assert.Equal(t, "b1", parseKey("b1"))
	assert.Equal(t, "quoted", parseKey(`"quoted"`))
	assert.Equal(t, []interface{}{1.0, "a"}, parseKey(`[1, "a"]`))
	assert.Equal(t, "true", parseKey("true"))
	assert.Equal(t, "{}", parseKey("{}"))
}
