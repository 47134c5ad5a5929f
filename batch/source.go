package batch

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Input is one image to process.
type Input struct {
	Name     string // output is written to <out>/<Name>.png
	Location string // file path or http(s) URL
}

func (in Input) Remote() bool {
	return isURL(in.Location)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Collect expands args into inputs. Directories are scanned (not recursively)
// for files whose extension is in exts; files and URLs are taken as given.
// Anything under outDir is ignored so reruns do not pick up their own output.
func Collect(args []string, exts []string, outDir string) ([]Input, error) {
	var inputs []Input
	for _, arg := range args {
		if isURL(arg) {
			name, err := urlName(arg)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, Input{Name: name, Location: arg})
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			inputs = append(inputs, Input{Name: baseName(arg), Location: arg})
			continue
		}

		found, err := scanDir(arg, exts, outDir)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, found...)
	}
	return inputs, nil
}

func scanDir(dir string, exts []string, outDir string) ([]Input, error) {
	if sameDir(dir, outDir) {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var inputs []Input
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !slices.Contains(exts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		inputs = append(inputs, Input{
			Name:     baseName(e.Name()),
			Location: filepath.Join(dir, e.Name()),
		})
	}
	// os.ReadDir already sorts by file name
	return inputs, nil
}

func sameDir(a, b string) bool {
	if b == "" {
		return false
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

func baseName(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func urlName(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || base == "" {
		base = u.Hostname()
	}
	return strings.TrimSuffix(base, path.Ext(base)), nil
}
