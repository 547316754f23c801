package logging

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LogFileName is the file the full-screen view logs to, inside the data directory.
const LogFileName = "scoopsync.log"

// Tail returns the last n lines of the log at path that satisfy keep (all
// lines when keep is nil). A missing file yields no lines.
func Tail(path string, n int, keep func(line string) bool) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	window := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if keep != nil && !keep(line) {
			continue
		}
		if len(window) == n {
			copy(window, window[1:])
			window = window[:n-1]
		}
		window = append(window, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return window, nil
}

// AtLeastWarn keeps lines written at warn or error level by the tint handler.
func AtLeastWarn(line string) bool {
	return strings.Contains(line, " WRN ") || strings.Contains(line, " ERR ")
}
