package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const scansDir = "scans"

// допустимые расширения сканов
var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".webp": true, ".gif": true}

// Local — сканы на локальном диске: <root>/scans/<uuid>.<ext>, раздаются как /storage/scans/...
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, scansDir), 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &Local{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *Local) Root() string { return l.root }

// AllowedExt проверяет расширение файла изображения.
func AllowedExt(ext string) bool { return allowedExt[strings.ToLower(ext)] }

// Save пишет скан во временный файл и атомарно переименовывает.
// rel — путь относительно корня (его храним в БД), abs — для распознавателя.
func (l *Local) Save(ctx context.Context, r io.Reader, ext string) (string, string, error) {
	ext = strings.ToLower(ext)
	if !AllowedExt(ext) {
		return "", "", fmt.Errorf("unsupported image type %q", ext)
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	rel := filepath.ToSlash(filepath.Join(scansDir, uuid.NewString()+ext))
	abs := filepath.Join(l.root, filepath.FromSlash(rel))

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	return rel, abs, nil
}

func (l *Local) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	p, err := l.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL — публичная ссылка на файл в каталоге сканов (отладочные картинки лежат рядом).
func (l *Local) URL(name string) string {
	return l.baseURL + "/storage/" + scansDir + "/" + filepath.Base(name)
}

// PurgeDebugImages удаляет debug_* старше ttl; возвращает число удалённых файлов.
func (l *Local) PurgeDebugImages(ctx context.Context, ttl time.Duration) (int, error) {
	dir := filepath.Join(l.root, scansDir)
	ents, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-ttl)
	n := 0
	for _, e := range ents {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if e.IsDir() || !strings.HasPrefix(e.Name(), "debug_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			n++
		}
	}
	return n, nil
}

func (l *Local) resolve(rel string) (string, error) {
	p := filepath.Join(l.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", rel)
	}
	return p, nil
}
