package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes one generated artifact. The directory on disk,
// not a database table, is the authoritative list.
type FileInfo struct {
	Name      string    `json:"FileName"`
	Size      int64     `json:"FileSize"`
	CreatedAt time.Time `json:"CreatedAt"`
}

// ListFiles enumerates the PDFs currently on storage, newest first.
func ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// ResolveFile maps a requested file name onto the report directory,
// rejecting anything that would escape it.
func ResolveFile(dir, name string) (string, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".pdf") {
		return "", fmt.Errorf("invalid report file name: %q", name)
	}
	return filepath.Join(dir, name), nil
}

// DeleteFile removes one generated artifact.
func DeleteFile(dir, name string) error {
	path, err := ResolveFile(dir, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
