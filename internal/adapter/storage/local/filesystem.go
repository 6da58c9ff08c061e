// Package local хранит изображения рецептов на локальном диске (режим разработки).
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage реализует ports.FileStorage поверх каталога MEDIA_ROOT.
type FileStorage struct {
	basePath string
	logger   *slog.Logger
}

// NewFileStorage создает корневой каталог, если его нет.
func NewFileStorage(basePath string, logger *slog.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{basePath: basePath, logger: logger}, nil
}

// path переводит ключ объекта в путь внутри basePath; выход за его пределы запрещен.
func (f *FileStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	full := filepath.Join(f.basePath, clean)
	if !strings.HasPrefix(full, filepath.Clean(f.basePath)+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return full, nil
}

// UploadFile записывает файл через временный файл и rename, возвращает относительный URL.
func (f *FileStorage) UploadFile(ctx context.Context, key string, reader io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target, err := f.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", key, err)
	}

	f.logger.Debug("file saved", "key", key, "path", target)
	return "/media/" + filepath.ToSlash(key), nil
}

// DeleteFile удаляет файл; отсутствующий файл не считается ошибкой.
func (f *FileStorage) DeleteFile(_ context.Context, key string) error {
	target, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Root возвращает корневой каталог для раздачи файлов по /media/.
func (f *FileStorage) Root() string {
	return f.basePath
}
