// Package mzml reads peak data from mzML mass spectrometry files.
// Only the parts needed to extract peak lists are parsed; metadata such
// as instrument configuration and chromatograms is skipped.
package mzml

import (
	"encoding/xml"
	"errors"
)

var (
	// ErrBadSpectrumIndex is returned for an out-of-range spectrum index.
	ErrBadSpectrumIndex = errors.New("mzml: invalid spectrum index")
	// ErrUnsupportedCompression is returned when binary data uses a
	// compression scheme other than none or zlib (e.g. MS-Numpress).
	ErrUnsupportedCompression = errors.New("mzml: unsupported binary data compression")
)

// Peak is a single m/z and intensity pair.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Spectrum is one decoded spectrum.
type Spectrum struct {
	Index      int
	ID         string
	MSLevel    int
	Centroided bool
	Peaks      []Peak
}

// File holds the decoded spectra of one mzML file.
type File struct {
	spectra []Spectrum
}

// NumSpectra returns the number of spectra in the file.
func (f *File) NumSpectra() int { return len(f.spectra) }

// Spectrum returns the decoded spectrum at the given position.
func (f *File) Spectrum(i int) (Spectrum, error) {
	if i < 0 || i >= len(f.spectra) {
		return Spectrum{}, ErrBadSpectrumIndex
	}
	return f.spectra[i], nil
}

// Peaks returns all peaks of all spectra, flattened in file order.
func (f *File) Peaks() []Peak {
	var all []Peak
	for i := range f.spectra {
		all = append(all, f.spectra[i].Peaks...)
	}
	return all
}

// XML schema, reduced to the elements the reader touches.

type mzMLXML struct {
	XMLName xml.Name `xml:"mzML"`
	Run     struct {
		SpectrumList struct {
			Spectrum []spectrumXML `xml:"spectrum"`
		} `xml:"spectrumList"`
	} `xml:"run"`
}

type spectrumXML struct {
	Index              int           `xml:"index,attr"`
	ID                 string        `xml:"id,attr"`
	DefaultArrayLength int           `xml:"defaultArrayLength,attr"`
	CvPar              []cvParamXML  `xml:"cvParam"`
	BinaryArrays       []binArrayXML `xml:"binaryDataArrayList>binaryDataArray"`
}

type binArrayXML struct {
	CvPar  []cvParamXML `xml:"cvParam"`
	Binary string       `xml:"binary"`
}

type cvParamXML struct {
	Accession string `xml:"accession,attr"`
	Value     string `xml:"value,attr"`
}
