package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CollectXMLFiles expands a mixed list of file and directory paths into the
// XML files of the batch. Directories are walked recursively in lexical
// order; only files with a case-insensitive .xml extension qualify.
// Explicitly listed non-XML files are skipped silently.
//
// An unreadable path aborts enumeration with an error: this is the only
// fatal failure of a batch, everything after enumeration is counted, never
// raised.
func CollectXMLFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if isXML(p) {
				files = append(files, p)
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isXML(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isXML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}
