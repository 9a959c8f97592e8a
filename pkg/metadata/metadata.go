// Package metadata stamps exported tables with a run block and verifies it.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata describes one exported table.
type Metadata struct {
	GeneratedAt time.Time
	Source      string
	Hash        string
	Rows        int
	Columns     int
	Translated  bool
}

// metadataRegex matches the entire metadata block including tags.
var metadataRegex = regexp.MustCompile(`(?s)` + TagStart + `\s*\n(.*?)\n\s*` + TagEnd)

// Extract parses the metadata block embedded in text.
func Extract(text string) (*Metadata, error) {
	match := metadataRegex.FindStringSubmatch(text)
	if len(match) < 2 {
		return nil, ErrNoMetadataBlock
	}

	meta := &Metadata{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "SOURCE":
			meta.Source = val
		case "ROWS":
			meta.Rows, _ = strconv.Atoi(val)
		case "COLUMNS":
			meta.Columns, _ = strconv.Atoi(val)
		case "TRANSLATED":
			meta.Translated = strings.EqualFold(val, "TRUE")
		case "GENERATED_AT":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.GeneratedAt = t
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, nil
}

// CalculateHash computes the SHA-256 of the table's header and cells.
// Cells are tab separated and rows newline terminated.
func CalculateHash(columns []string, rows [][]string) string {
	h := sha256.New()

	writeRow := func(cells []string) {
		h.Write([]byte(strings.Join(cells, "\t")))
		h.Write([]byte{'\n'})
	}

	writeRow(columns)

	for _, row := range rows {
		writeRow(row)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Sign builds a metadata block for the table, stamped with the current time.
func Sign(source string, translated bool, columns []string, rows [][]string) string {
	valStr := "FALSE"
	if translated {
		valStr = "TRUE"
	}

	return fmt.Sprintf("%s\nSOURCE: %s\nROWS: %d\nCOLUMNS: %d\nTRANSLATED: %s\nGENERATED_AT: %s\nHASH: %s\n%s",
		TagStart,
		source,
		len(rows),
		len(columns),
		valStr,
		time.Now().UTC().Format(time.RFC3339),
		CalculateHash(columns, rows),
		TagEnd,
	)
}

// Verify checks that the table matches the hash in the block.
func Verify(block string, columns []string, rows [][]string) (bool, error) {
	meta, err := Extract(block)
	if err != nil {
		return false, err
	}

	if meta.Hash == "" {
		return false, ErrNoHashFound
	}

	calculated := CalculateHash(columns, rows)
	if calculated != meta.Hash {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return true, nil
}
