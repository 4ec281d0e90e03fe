package table

import (
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Read parses delimited text into a Table. The first record is the
// header; ragged data records are normalized to the header width. Input
// in a non-UTF-8 charset is converted first, so files with a BOM or a
// legacy encoding load the same as plain UTF-8.
func Read(r io.Reader, comma rune) (*Table, error) {
	cr, err := charset.NewReader(r, "")
	if err == io.EOF {
		// charset sniffing reports EOF for empty input.
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, err
	}
	c := csv.NewReader(cr)
	c.Comma = comma
	c.FieldsPerRecord = -1
	recs, err := c.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNoHeader
	}
	// The charset decoders pass a leading BOM through as U+FEFF, which
	// would otherwise end up in the first column name.
	recs[0][0] = strings.TrimPrefix(recs[0][0], "﻿")
	return New(recs[0], recs[1:]), nil
}
