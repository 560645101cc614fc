package arga

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

const cacheTimestampFormat = "2006-01-02T15-04-05"

// DefaultCacheDir is ~/.cache/arga-admin
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "arga-admin"), nil
}

// SaveBaseline writes rows to a timestamped JSON file <name>_<timestamp>.json in dir
// and returns its path.
func SaveBaseline[R any](dir, name string, rows []R) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache data: %w", err)
	}

	timestamp := time.Now().Format(cacheTimestampFormat)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", name, timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cache file: %w", err)
	}

	log.Infof("Saved baseline to cache: %s", path)
	return path, nil
}

// LoadLatestBaseline decodes the most recent baseline saved for name into rows and
// returns the file it read.
func LoadLatestBaseline[R any](dir, name string, rows *[]R) (string, error) {
	path, err := findMostRecentCacheFile(dir, name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read cache file: %w", err)
	}
	if err := json.Unmarshal(data, rows); err != nil {
		return "", fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	log.Debugf("Loaded baseline from cache: %s", path)
	return path, nil
}

func findMostRecentCacheFile(dir, name string) (string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("cache directory does not exist")
	}

	matches, err := filepath.Glob(filepath.Join(dir, name+"_*.json"))
	if err != nil {
		return "", fmt.Errorf("failed to search for cache files: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no cache files found for %s", name)
	}

	// Timestamps in the name order files saved within the same second ambiguously,
	// so the modification time decides.
	var newestFile string
	var newestTime time.Time
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if newestFile == "" || !info.ModTime().Before(newestTime) {
			newestTime = info.ModTime()
			newestFile = match
		}
	}

	if newestFile == "" {
		return "", fmt.Errorf("no valid cache files found")
	}
	return newestFile, nil
}
