package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return ws
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	ws := newTestWorkspace(t)

	content, err := ws.Read("does-not-exist.txt")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestReadStrict_MissingFileErrors(t *testing.T) {
	ws := newTestWorkspace(t)

	_, err := ws.ReadStrict("does-not-exist.txt")
	require.Error(t, err)
}

func TestWriteAndRead(t *testing.T) {
	ws := newTestWorkspace(t)

	require.NoError(t, ws.Write("nested/dir/hello.py", "print('Hello')"))

	content, err := ws.Read("nested/dir/hello.py")
	require.NoError(t, err)
	assert.Equal(t, "print('Hello')", content)
}

func TestWrite_NormalizesLineBreaks(t *testing.T) {
	ws := newTestWorkspace(t)

	require.NoError(t, ws.Write("a.txt", "line1\r\nline2\rline3\n"))

	content, err := ws.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\nline3\n", content)
}

func TestPathValidation(t *testing.T) {
	ws := newTestWorkspace(t)

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "empty", path: "", want: ErrEmptyPath},
		{name: "absolute", path: "/etc/passwd", want: ErrAbsolutePath},
		{name: "parent traversal", path: "../outside.txt", want: ErrPathEscapesRoot},
		{name: "nested traversal", path: "a/../../outside.txt", want: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ws.Read(tt.path)
			assert.ErrorIs(t, err, tt.want)

			err = ws.Write(tt.path, "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestList(t *testing.T) {
	ws := newTestWorkspace(t)

	require.NoError(t, ws.Write("b.txt", "b"))
	require.NoError(t, ws.Write("a.txt", "a"))
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Root(), "sub"), 0o755))

	names, err := ws.List(".")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "sub" + string(filepath.Separator)}, names)
}

func TestList_MissingDirErrors(t *testing.T) {
	ws := newTestWorkspace(t)

	_, err := ws.List("nope")
	require.Error(t, err)
}

func TestNormalizeLineBreaks(t *testing.T) {
	assert.Equal(t, "a\nb\nc", NormalizeLineBreaks("a\r\nb\rc"))
	assert.Equal(t, "plain", NormalizeLineBreaks("plain"))
}
