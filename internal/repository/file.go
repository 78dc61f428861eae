// Package repository provides flat-file persistence for accounts, tasks,
// and history entries. Each repository owns exactly one pipe-delimited text
// file with one record per line. A missing file reads as an empty store;
// malformed lines are skipped and counted rather than failing the load.
//
// The files are not locked: exactly one process, and within it one logical
// caller, is assumed to access a given file at a time.
package repository

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fieldSep separates record fields on disk.
const fieldSep = " | "

// readLines returns the non-empty lines of path in order.
// A missing file yields no lines and no error.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		// Strip only the line ending: a record may legitimately end with
		// the field separator when its last field is empty.
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// writeLines replaces the file content with the given records. The file is
// truncated and rewritten in place; a crash mid-write can corrupt the store.
func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// appendLine adds one record to the end of the file, creating it if needed.
func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}
