package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// Relevant CV accessions:
// MS:1000574 zlib compression
// MS:1000576 no compression
// MS:1000521 32-bit float
// MS:1000523 64-bit float
// MS:1000514 m/z array
// MS:1000515 intensity array
// MS:1000127 centroid spectrum
// MS:1000511 ms level
// MS:1002312..MS:1002314, MS:1002746..MS:1002748 MS-Numpress variants

// Read parses an mzML document and decodes the peak data of every
// spectrum. An indexedmzML wrapper, if present, is skipped over.
func Read(r io.Reader) (*File, error) {
	var content mzMLXML

	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	for {
		t, err := d.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if se, ok := t.(xml.StartElement); ok && se.Name.Local == "mzML" {
			if err := d.DecodeElement(&content, &se); err != nil {
				return nil, err
			}
		}
	}

	f := &File{spectra: make([]Spectrum, 0, len(content.Run.SpectrumList.Spectrum))}
	for i := range content.Run.SpectrumList.Spectrum {
		s, err := decodeSpectrum(&content.Run.SpectrumList.Spectrum[i])
		if err != nil {
			return nil, fmt.Errorf("spectrum %d: %w", i, err)
		}
		f.spectra = append(f.spectra, s)
	}
	return f, nil
}

func decodeSpectrum(sx *spectrumXML) (Spectrum, error) {
	s := Spectrum{
		Index:   sx.Index,
		ID:      sx.ID,
		MSLevel: 1, // assume MS1 when the file does not say
	}
	for _, cv := range sx.CvPar {
		switch cv.Accession {
		case "MS:1000127":
			s.Centroided = true
		case "MS:1000511":
			level, err := strconv.Atoi(cv.Value)
			if err != nil {
				return s, fmt.Errorf("ms level %q: %w", cv.Value, err)
			}
			s.MSLevel = level
		}
	}

	peaks := make([]Peak, sx.DefaultArrayLength)
	for i := range sx.BinaryArrays {
		var err error
		peaks, err = fillPeaks(peaks, &sx.BinaryArrays[i])
		if err != nil {
			return s, err
		}
	}
	s.Peaks = peaks
	return s, nil
}

// fillPeaks decodes one binaryDataArray into the m/z or intensity side
// of the peak slice. Arrays that are neither are ignored.
func fillPeaks(peaks []Peak, a *binArrayXML) ([]Peak, error) {
	var zlibCompressed, bits64, mzArray, intensityArray bool
	for _, cv := range a.CvPar {
		switch cv.Accession {
		case "MS:1000574":
			zlibCompressed = true
		case "MS:1000523":
			bits64 = true
		case "MS:1000514":
			mzArray = true
		case "MS:1000515":
			intensityArray = true
		case "MS:1002312", "MS:1002313", "MS:1002314",
			"MS:1002746", "MS:1002747", "MS:1002748":
			return nil, fmt.Errorf("%w (CV term %s)", ErrUnsupportedCompression, cv.Accession)
		}
	}
	if !mzArray && !intensityArray {
		return peaks, nil
	}

	// Some writers wrap the base64 payload across lines.
	clean := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, a.Binary)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, err
	}
	if zlibCompressed {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return nil, err
		}
	}

	vals := decodeFloats(data, bits64)
	if len(vals) > len(peaks) {
		// defaultArrayLength disagrees with the payload; grow to fit
		peaks = append(peaks, make([]Peak, len(vals)-len(peaks))...)
	}
	for i, v := range vals {
		if mzArray {
			peaks[i].MZ = v
		} else {
			peaks[i].Intensity = v
		}
	}
	return peaks, nil
}

func decodeFloats(data []byte, bits64 bool) []float64 {
	if bits64 {
		vals := make([]float64, len(data)/8)
		for i := range vals {
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return vals
	}
	vals := make([]float64, len(data)/4)
	for i := range vals {
		vals[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return vals
}
