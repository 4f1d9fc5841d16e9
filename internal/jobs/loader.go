package jobs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-ini/ini"
)

// ConfigFile is the jobs file read from the working directory.
const ConfigFile = "mdb2el.ini"

const maxLineSize = 1 << 20

// lineOptions make go-ini read one line of the jobs file. Values are kept as
// written apart from surrounding whitespace: no quote stripping, no backslash
// continuation and no '#' comments inside a value.
var lineOptions = ini.LoadOptions{
	Insensitive:             false,
	IgnoreContinuation:      true,
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
}

// Load reads the jobs file at path and streams its records into store.
// Parameters:
//   - path: jobs file location.
//   - store: destination store; it is not rolled back on failure.
// Returns:
//   - error: wraps ErrResourceUnavailable, ErrSyntax, ErrMalformedRecord or
//     ErrStorageExhausted.
func Load(path string, store *Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}
	defer f.Close()

	return LoadReader(f, store)
}

// LoadSource streams an in-memory jobs file into store.
func LoadSource(data []byte, store *Store) error {
	return LoadReader(bytes.NewReader(data), store)
}

// LoadReader tokenizes r line by line and hands each (section, key, value) triple
// to a Handler as soon as its line is read. The first syntax defect or handler
// error stops the load: entries populated before it stay, later lines are never
// read.
//
// Lines starting with ';' or '#' are comments, and ';' preceded by whitespace
// starts an inline comment. An indented line following a key continues that key
// and is delivered as another triple for it. Keys outside any section are
// reported with the empty section name.
func LoadReader(r io.Reader, store *Store) error {
	h := NewHandler(store)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)

	var section, prevKey string
	for lineNo := 1; sc.Scan(); lineNo++ {
		raw := sc.Text()
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\uFEFF")
		}

		line := stripInlineComment(raw)
		text := strings.TrimSpace(line)
		if text == "" || text[0] == ';' || text[0] == '#' {
			continue
		}

		if prevKey != "" && (line[0] == ' ' || line[0] == '\t') {
			if err := h.Handle(section, prevKey, text); err != nil {
				return err
			}
			continue
		}

		tok, err := tokenizeLine(text)
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrSyntax, lineNo, err)
		}

		if tok.section {
			section = tok.name
			prevKey = ""
			continue
		}

		prevKey = tok.name
		if err := h.Handle(section, tok.name, tok.value); err != nil {
			return err
		}
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}
	return nil
}

type lineToken struct {
	section bool
	name    string
	value   string
}

// tokenizeLine parses a single non-blank, non-comment line with go-ini.
func tokenizeLine(text string) (lineToken, error) {
	f, err := ini.LoadSources(lineOptions, []byte(text))
	if err != nil {
		return lineToken{}, err
	}

	if text[0] == '[' {
		sections := f.Sections()
		return lineToken{section: true, name: sections[len(sections)-1].Name()}, nil
	}

	keys := f.Section(ini.DefaultSection).Keys()
	if len(keys) != 1 {
		return lineToken{}, fmt.Errorf("unexpected content %q", text)
	}

	name := keys[0].Name()
	// go-ini renames a "-" key to an auto-increment "#N" name
	if strings.HasPrefix(name, "#") {
		if i := strings.IndexAny(text, "=:"); i >= 0 {
			name = strings.TrimSpace(text[:i])
		}
	}
	return lineToken{name: name, value: keys[0].Value()}, nil
}

// stripInlineComment cuts line at the first ';' that follows whitespace.
func stripInlineComment(line string) string {
	for i := 1; i < len(line); i++ {
		if line[i] == ';' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}
