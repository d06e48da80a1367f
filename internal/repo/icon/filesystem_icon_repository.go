package icon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/mkrupp/isupipe-usersvc/internal/domain"
	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
)

var ErrBytesReadMismatch = errors.New("bytes read mismatch")

// FileSystemIconRepositoryConfig holds configuration for the filesystem-based icon repository.
type FileSystemIconRepositoryConfig struct {
	// Basedir is the directory holding one file per user
	Basedir string `env:"BASEDIR" envDefault:"var/storage/user-images"`
	// Ext is the file extension of stored icons
	Ext string `env:"EXT" envDefault:"jpg"`
}

// FileSystemIconRepositoryFactory creates a factory function that returns a new FileSystemIconRepository.
func FileSystemIconRepositoryFactory(cfg FileSystemIconRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewFileSystemIconRepository(ctx, cfg)
	}
}

// NewFileSystemIconRepository creates a new FileSystemIconRepository and makes
// sure the base directory exists.
func NewFileSystemIconRepository(
	ctx context.Context,
	cfg FileSystemIconRepositoryConfig,
) (*FileSystemIconRepository, error) {
	log := logging.GetLogger("repo.icon.filesystem_icon_repository").With(
		logging.Group("repo",
			"basedir", cfg.Basedir,
			"ext", cfg.Ext,
		),
	)

	repo := &FileSystemIconRepository{
		cfg: cfg,
		log: log,
	}

	if err := repo.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}

	return repo, nil
}

// FileSystemIconRepository implements Repository using the local filesystem.
// Icons live at <basedir>/<userID>.<ext>.
type FileSystemIconRepository struct {
	cfg FileSystemIconRepositoryConfig
	log logging.Logger
}

var _ Repository = (*FileSystemIconRepository)(nil)

// IconFilename derives the storage path of a user's icon.
// It depends on the user ID only, so every component addressing icons agrees on it.
func IconFilename(basedir, ext string, userID int64) string {
	return filepath.Join(basedir, strconv.FormatInt(userID, 10)+"."+ext)
}

// GetFilename returns the full filesystem path for the icon of the given user.
func (fsRepo *FileSystemIconRepository) GetFilename(userID int64) string {
	return IconFilename(fsRepo.cfg.Basedir, fsRepo.cfg.Ext, userID)
}

func (fsRepo *FileSystemIconRepository) Store(ctx context.Context, icon *domain.Icon) error {
	if err := fsRepo.storeIcon(ctx, icon); err != nil {
		return errors.Join(domain.ErrIconStorageWrite, fmt.Errorf("store icon: %w", err))
	}

	return nil
}

func (fsRepo *FileSystemIconRepository) Fetch(ctx context.Context, userID int64) (*domain.Icon, bool, error) {
	icon, err := fsRepo.fetchIcon(ctx, userID)

	switch {
	case err == nil:
		return icon, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	default:
		return nil, false, errors.Join(domain.ErrIconStorageRead, fmt.Errorf("fetch icon: %w", err))
	}
}

func (fsRepo *FileSystemIconRepository) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(fsRepo.cfg.Basedir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

// storeIcon writes to a temporary file next to the target and renames it into
// place, so concurrent readers never see a truncated icon.
func (fsRepo *FileSystemIconRepository) storeIcon(ctx context.Context, icon *domain.Icon) (err error) {
	filename := fsRepo.GetFilename(icon.UserID)

	defer func() {
		log := fsRepo.log.With(logging.Group("icon", "user_id", icon.UserID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "icon store failed", "error", err)
		} else {
			log.DebugContext(ctx, "icon stored", "size", humanize.IBytes(uint64(icon.Size())))
		}
	}()

	file, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tmpname := file.Name()
	committed := false

	defer func() {
		if !committed {
			_ = file.Close()
			_ = os.Remove(tmpname)
		}
	}()

	if _, err := icon.WriteTo(file); err != nil {
		return fmt.Errorf("write: %w", err)
	} else if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	} else if err := file.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	} else if err := file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmpname, filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	committed = true

	return nil
}

func (fsRepo *FileSystemIconRepository) fetchIcon(ctx context.Context, userID int64) (icon *domain.Icon, err error) {
	filename := fsRepo.GetFilename(userID)

	defer func() {
		log := fsRepo.log.With(logging.Group("icon", "user_id", userID, "filename", filename))

		switch {
		case err == nil:
			log.DebugContext(ctx, "icon fetched")
		case errors.Is(err, fs.ErrNotExist):
			log.DebugContext(ctx, "icon absent")
		default:
			log.ErrorContext(ctx, "icon fetch failed", "error", err)
		}
	}()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	//nolint:exhaustruct
	icon = &domain.Icon{UserID: userID}
	if n, err := icon.ReadFrom(file); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	} else if info, err := file.Stat(); err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	} else if n != info.Size() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrBytesReadMismatch, info.Size(), n)
	}

	return icon, nil
}
