package storage

import (
	"io"
	"os"
	"path/filepath"
)

type FileStorage interface {
	Save(path string, data io.Reader) error
	SaveBytes(path string, data []byte) error
	Get(path string) (io.ReadCloser, error)
	ReadBytes(path string) ([]byte, error)
	Delete(path string) error
	Exists(path string) bool
	Glob(pattern string) ([]string, error)
	FullPath(path string) string
}

type fileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

func (s *fileStorage) Save(path string, data io.Reader) error {
	fullPath := filepath.Join(s.basePath, path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	return err
}

func (s *fileStorage) SaveBytes(path string, data []byte) error {
	fullPath := filepath.Join(s.basePath, path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, data, 0644)
}

func (s *fileStorage) Get(path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, path)
	return os.Open(fullPath)
}

func (s *fileStorage) ReadBytes(path string) ([]byte, error) {
	fullPath := filepath.Join(s.basePath, path)
	return os.ReadFile(fullPath)
}

func (s *fileStorage) Delete(path string) error {
	fullPath := filepath.Join(s.basePath, path)
	return os.Remove(fullPath)
}

func (s *fileStorage) Exists(path string) bool {
	fullPath := filepath.Join(s.basePath, path)
	_, err := os.Stat(fullPath)
	return !os.IsNotExist(err)
}

// Glob returns names relative to the storage root matching the pattern.
func (s *fileStorage) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, pattern))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(s.basePath, m)
		if err != nil {
			return nil, err
		}
		names = append(names, rel)
	}
	return names, nil
}

func (s *fileStorage) FullPath(path string) string {
	return filepath.Join(s.basePath, path)
}
