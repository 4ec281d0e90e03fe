package table

import (
	"encoding/csv"
	"io"
)

// Write serializes the table as delimited text, header first. An empty
// table produces a header-only output.
func Write(w io.Writer, t *Table, comma rune) error {
	c := csv.NewWriter(w)
	c.Comma = comma
	if err := c.Write(t.cols); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := c.Write(row); err != nil {
			return err
		}
	}
	c.Flush()
	return c.Error()
}
