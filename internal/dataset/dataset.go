// Package dataset loads the two analysis inputs, a MALDI peak list and
// a PSM table, from files or uploaded streams, and writes result
// tables back out. Delimiters are chosen from file names and gzip
// compressed files are handled transparently.
package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/mzml"
	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/table"
)

// Separator returns the delimiter implied by a file name: tab for .tsv
// and .txt, comma for everything else. A trailing .gz is ignored.
func Separator(name string) rune {
	switch ext(name) {
	case ".tsv", ".txt":
		return '\t'
	}
	return ','
}

// IsMzML reports whether the file name refers to an mzML file,
// possibly gzip compressed.
func IsMzML(name string) bool {
	return ext(name) == ".mzml"
}

func ext(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSuffix(name, ".gz")
	return filepath.Ext(name)
}

func decompressed(r io.Reader, name string) (io.Reader, error) {
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		return gzip.NewReader(r)
	}
	return r, nil
}

// ReadPSMs loads a PSM table from a delimited text file.
func ReadPSMs(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadPSMsFrom(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadPSMsFrom loads a PSM table from a stream; name decides the
// delimiter and compression.
func ReadPSMsFrom(r io.Reader, name string) (*table.Table, error) {
	rd, err := decompressed(r, name)
	if err != nil {
		return nil, err
	}
	return table.Read(rd, Separator(name))
}

// ReadPeaks loads a peak list file. Peak lists are delimited text by
// convention, but an .mzML file is accepted too and flattened into an
// m/z and intensity table in file order.
func ReadPeaks(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadPeaksFrom(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadPeaksFrom loads a peak list from a stream; name decides the
// format, delimiter and compression.
func ReadPeaksFrom(r io.Reader, name string) (*table.Table, error) {
	rd, err := decompressed(r, name)
	if err != nil {
		return nil, err
	}
	if IsMzML(name) {
		f, err := mzml.Read(rd)
		if err != nil {
			return nil, err
		}
		return peaksToTable(f.Peaks()), nil
	}
	return table.Read(rd, Separator(name))
}

func peaksToTable(peaks []mzml.Peak) *table.Table {
	rows := make([][]string, len(peaks))
	for i, p := range peaks {
		rows[i] = []string{
			strconv.FormatFloat(p.MZ, 'g', -1, 64),
			strconv.FormatFloat(p.Intensity, 'g', -1, 64),
		}
	}
	return table.New([]string{"m/z", "intensity"}, rows)
}

// ReadPair loads the peak list and the PSM table concurrently and
// returns the first error encountered.
func ReadPair(ctx context.Context, peakPath, psmPath string) (peaks, psms *table.Table, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		peaks, err = ReadPeaks(peakPath)
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		psms, err = ReadPSMs(psmPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return peaks, psms, nil
}

// WriteTable writes a table as delimited text, choosing the delimiter
// from the file name and gzip compressing a .gz target.
func WriteTable(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}
	if err := table.Write(w, t, Separator(filepath.Base(path))); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
