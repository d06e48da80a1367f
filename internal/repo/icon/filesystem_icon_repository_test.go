package icon_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"

	. "github.com/mkrupp/isupipe-usersvc/internal/repo/icon"
)

func setupFileSystemIconTestRepo(t *testing.T) (*FileSystemIconRepository, string) {
	t.Helper()

	tempDir := t.TempDir()

	repo, err := NewFileSystemIconRepository(context.TODO(), FileSystemIconRepositoryConfig{
		Basedir: tempDir,
		Ext:     "jpg",
	})
	require.NoError(t, err, "failed to create repository")

	return repo, tempDir
}

func TestIconFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("/icons", "42.jpg"), IconFilename("/icons", "jpg", 42))
	assert.Equal(t, IconFilename("/icons", "jpg", 42), IconFilename("/icons", "jpg", 42))
	assert.NotEqual(t, IconFilename("/icons", "jpg", 4), IconFilename("/icons", "jpg", 42))
}

func TestFileSystemIconRepository_Store(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		icons    []*domain.Icon
		wantBody []byte
	}{
		{
			name:     "handles new icon",
			icons:    []*domain.Icon{domain.NewIcon(1, []byte("original content"))},
			wantBody: []byte("original content"),
		},
		{
			name: "overwrites existing icon",
			icons: []*domain.Icon{
				domain.NewIcon(1, []byte("original content, which is longer")),
				domain.NewIcon(1, []byte("new content")),
			},
			wantBody: []byte("new content"),
		},
		{
			name:     "handles empty icon",
			icons:    []*domain.Icon{domain.NewIcon(1, []byte{})},
			wantBody: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, tempDir := setupFileSystemIconTestRepo(t)

			for _, icon := range tt.icons {
				require.NoError(t, repo.Store(context.TODO(), icon))
			}

			content, err := os.ReadFile(repo.GetFilename(1))
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, content)

			entries, err := os.ReadDir(tempDir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary files must not be left behind")
		})
	}
}

func TestFileSystemIconRepository_StoreUnwritable(t *testing.T) {
	t.Parallel()

	repo, tempDir := setupFileSystemIconTestRepo(t)
	require.NoError(t, os.RemoveAll(tempDir))
	require.NoError(t, os.WriteFile(tempDir, []byte("not a directory"), 0o600))

	err := repo.Store(context.TODO(), domain.NewIcon(1, []byte("abc")))
	require.ErrorIs(t, err, domain.ErrIconStorageWrite)
}

func TestFileSystemIconRepository_Fetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(t *testing.T, repo *FileSystemIconRepository)
		wantFound bool
		wantBody  []byte
		wantErr   error
	}{
		{
			name: "handles existing icon",
			setup: func(t *testing.T, repo *FileSystemIconRepository) {
				t.Helper()
				require.NoError(t, repo.Store(context.TODO(), domain.NewIcon(42, []byte("abc"))))
			},
			wantFound: true,
			wantBody:  []byte("abc"),
		},
		{
			name:      "missing icon is absent, not an error",
			setup:     func(*testing.T, *FileSystemIconRepository) {},
			wantFound: false,
		},
		{
			name: "unreadable icon is a storage read error",
			setup: func(t *testing.T, repo *FileSystemIconRepository) {
				t.Helper()
				require.NoError(t, os.Mkdir(repo.GetFilename(42), 0o755))
			},
			wantFound: false,
			wantErr:   domain.ErrIconStorageRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, _ := setupFileSystemIconTestRepo(t)
			tt.setup(t, repo)

			icon, found, err := repo.Fetch(context.TODO(), 42)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantFound, found)

			if tt.wantFound {
				assert.Equal(t, int64(42), icon.UserID)
				assert.Equal(t, tt.wantBody, icon.Bytes())
			} else {
				assert.Nil(t, icon)
			}
		})
	}
}

func TestFileSystemIconRepository_ConcurrentOverwrite(t *testing.T) {
	t.Parallel()

	repo, _ := setupFileSystemIconTestRepo(t)

	bodies := [][]byte{[]byte("aaaaaaaaaaaaaaaa"), []byte("bbbb")}
	require.NoError(t, repo.Store(context.TODO(), domain.NewIcon(5, bodies[0])))

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(2)

		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Store(context.TODO(), domain.NewIcon(5, bodies[i%2])))
		}()

		go func() {
			defer wg.Done()

			icon, found, err := repo.Fetch(context.TODO(), 5)
			if assert.NoError(t, err) && assert.True(t, found) {
				assert.Contains(t, bodies, icon.Bytes(), "reader observed a partial write")
			}
		}()
	}

	wg.Wait()
}
