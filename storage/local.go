package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes blobs under a directory that the HTTP server exposes
// at /uploads/.
type LocalStore struct {
	Dir     string
	BaseURL string
	now     func() time.Time
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), now: time.Now}, nil
}

// cleanRel rejects ids that would escape the upload directory.
func cleanRel(id string) (string, error) {
	cleaned := path.Clean("/" + id)[1:]
	if cleaned == "" || cleaned != id || strings.Contains(id, "\\") {
		return "", errors.New("invalid object id: " + id)
	}
	return cleaned, nil
}

func (s *LocalStore) Upload(ctx context.Context, obj Object) (StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return StoredObject{}, err
	}
	name := PublicID(s.now(), obj.Filename) + strings.ToLower(filepath.Ext(obj.Filename))
	id, err := cleanRel(path.Join(obj.Folder, name))
	if err != nil {
		return StoredObject{}, err
	}

	full := filepath.Join(s.Dir, filepath.FromSlash(id))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return StoredObject{}, err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return StoredObject{}, err
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		f.Close()
		os.Remove(full)
		return StoredObject{}, err
	}
	if err := f.Close(); err != nil {
		return StoredObject{}, err
	}
	return StoredObject{URL: s.BaseURL + "/uploads/" + id, PublicID: id}, nil
}

func (s *LocalStore) Delete(ctx context.Context, publicID string) error {
	id, err := cleanRel(publicID)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.Dir, filepath.FromSlash(id)))
}
