// assets/embed.go
//
// Embedded fallback data so the server runs without any files on disk:
//   - puzzles/*.json: default daily puzzles (one file per puzzle number)
//   - countries.txt:  attribute table, one `code|name|alt;alt` per line

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed countries.txt puzzles/*.json
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// CountryLines returns the non-comment lines of the country table.
func CountryLines() ([]string, error) {
	return readLines("countries.txt")
}

// Puzzles returns the embedded puzzle directory.
func Puzzles() fs.FS {
	sub, err := fs.Sub(FS, "puzzles")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}
