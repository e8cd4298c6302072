package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-retriever/domain"
)

func TestSourceRoot_Resolve(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reports", "q1.json"), []byte("[]"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.json"), []byte("[]"), 0o600))

	root, err := NewSourceRoot(dir)
	require.NoError(t, err)
	realDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		outside bool
	}{
		{name: "relative inside", path: "reports/q1.json", want: filepath.Join(realDir, "reports", "q1.json")},
		{name: "absolute inside", path: filepath.Join(realDir, "reports", "q1.json"), want: filepath.Join(realDir, "reports", "q1.json")},
		{name: "missing file inside", path: "reports/q2.json", want: filepath.Join(realDir, "reports", "q2.json")},
		{name: "dot dot escape", path: "../secret.json", outside: true},
		{name: "nested dot dot escape", path: "reports/../../secret.json", outside: true},
		{name: "absolute outside", path: filepath.Join(outside, "secret.json"), outside: true},
		{name: "system file", path: "/etc/passwd", outside: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.Resolve(tt.path)
			if tt.outside {
				assert.ErrorIs(t, err, domain.ErrPathOutsideRoot)
				assert.NotContains(t, err.Error(), realDir)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceRoot_SymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.json")
	require.NoError(t, os.WriteFile(secret, []byte("[]"), 0o600))
	if err := os.Symlink(secret, filepath.Join(dir, "link.json")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	root, err := NewSourceRoot(dir)
	require.NoError(t, err)

	_, err = root.Resolve("link.json")
	assert.ErrorIs(t, err, domain.ErrPathOutsideRoot)
}

func TestNewSourceRoot_Invalid(t *testing.T) {
	_, err := NewSourceRoot(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = NewSourceRoot(file)
	assert.Error(t, err)
}

func TestIngestFilesUsecase_RejectsPathsOutsideRoot(t *testing.T) {
	root, err := NewSourceRoot(t.TempDir())
	require.NoError(t, err)

	p := &mockParser{}
	u := NewIngestFilesUsecase(p, 2, WithSourceRoot(root))

	docs, err := u.Execute(context.Background(), []string{"a.json", "/srv/other/secret.json"})
	assert.Nil(t, docs)
	assert.ErrorIs(t, err, domain.ErrPathOutsideRoot)
	assert.Empty(t, p.called(), "no file is opened when any path escapes")

	docs, err = u.Execute(context.Background(), []string{"a.json"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, filepath.IsAbs(p.called()[0]))
}
