package felix

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// genbankExts are the extensions of files picked up when walking a directory
var genbankExts = map[string]bool{".gb": true, ".gbk": true, ".genbank": true, ".gbff": true}

// GenbankFiles expands the paths passed into a sorted list of GenBank files. Directories are walked
// for files with a GenBank extension, optionally gzipped. Files named directly are kept whatever
// their extension.
func GenbankFiles(paths []string) ([]string, error) {
	files := []string{}
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		if path == "-" {
			add(path)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to find input %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isGenbankFile(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ReadGenbankFile parses every record in a, possibly gzipped, GenBank file. "-" is stdin.
func ReadGenbankFile(path string) ([]Record, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ParseGenbankRecords(externalName(path), string(contents)), nil
}

// openReader decompresses the file if it starts with the gzip magic number or ends with .gz
func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var sig [2]byte
	n, _ := fh.Read(sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		fh.Close()
		return nil, err
	}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}

	return fh, nil
}

// multiReadCloser closes every closer when it's closed
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// externalName is a file's base name without its extensions, ex: "pUC19" for "dir/pUC19.gb.gz"
func externalName(path string) string {
	if path == "-" {
		return "stdin"
	}
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func isGenbankFile(path string) bool {
	path = strings.ToLower(strings.TrimSuffix(strings.ToLower(path), ".gz"))
	return genbankExts[filepath.Ext(path)]
}
