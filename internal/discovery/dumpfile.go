package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DumpReader reads unknown-status ids from sequentially numbered CSV
// files named "{prefix}{index:06}.csv", one id per line (first
// comma-separated field), advancing to the next index on EOF or a
// missing file. It never writes to disk.
type DumpReader struct {
	dir, prefix string
	index       int
	scanner     *bufio.Scanner
	file        *os.File
}

// NewDumpReader builds a DumpReader starting at startIndex.
func NewDumpReader(dir, prefix string, startIndex int) *DumpReader {
	return &DumpReader{dir: dir, prefix: prefix, index: startIndex}
}

func (r *DumpReader) path(index int) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s%06d.csv", r.prefix, index))
}

// Next returns the next id in the current dump file, opening subsequent
// files (advancing the index) as each one is exhausted. Returns ok=false
// when the file at the current index is missing; the index has then
// already moved past it, so the next call opens the following file.
func (r *DumpReader) Next() (id uint64, ok bool) {
	for {
		if r.scanner == nil {
			f, err := os.Open(r.path(r.index))
			if err != nil {
				r.index++
				return 0, false
			}
			r.file = f
			r.scanner = bufio.NewScanner(f)
		}

		if r.scanner.Scan() {
			line := r.scanner.Text()
			field := line
			if comma := strings.IndexByte(line, ','); comma >= 0 {
				field = line[:comma]
			}
			id, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
			if err != nil {
				continue
			}
			return id, true
		}

		r.file.Close()
		r.scanner = nil
		r.file = nil
		r.index++
	}
}

// Close releases the currently open file, if any.
func (r *DumpReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
