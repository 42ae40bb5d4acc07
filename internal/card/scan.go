package card

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo describes a card file found in the card directory.
type FileInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
}

// cardExtensions are the file extensions listed as card candidates.
var cardExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
	".pdf": true,
}

// Scanner lists card files below a directory within depth, count and time
// limits.
type Scanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Files     []FileInfo    `json:"files"`
	ScanTime  time.Duration `json:"scanTime"`
	Truncated bool          `json:"truncated"`
}

// NewScanner creates a scanner. Zero limits are unlimited.
func NewScanner(maxDepth, fileLimit int, timeLimit time.Duration) *Scanner {
	return &Scanner{maxDepth: maxDepth, fileLimit: fileLimit, timeLimit: timeLimit}
}

// Scan walks root and returns the card files it finds. Hidden entries and
// symlinks are skipped. Hitting a limit stops the walk and marks the result
// truncated; a cancelled context returns the files found so far with the
// context error.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{Files: []FileInfo{}}

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Skip unreadable entries
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
			result.Truncated = true
			return fs.SkipAll
		}
		if strings.HasPrefix(entry.Name(), ".") || entry.Type()&fs.ModeSymlink != 0 {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if s.maxDepth > 0 && depth(root, path) >= s.maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if !cardExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		result.Files = append(result.Files, FileInfo{
			Name:         entry.Name(),
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})

		if s.fileLimit > 0 && len(result.Files) >= s.fileLimit {
			result.Truncated = true
			return fs.SkipAll
		}
		return nil
	})

	result.ScanTime = time.Since(start)
	return result, err
}

// depth is the number of directories between root and path.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
