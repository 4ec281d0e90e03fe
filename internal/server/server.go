// Package server provides the web UI around the fingerprinting engine:
// file uploads, a parameter form, the captured analysis log, a
// paginated result table, CSV download and JSON endpoints for the
// summary report and result pages.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/dataset"
	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/fingerprint"
	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultPageSize = 25

	// The form prefills two charge states, wider than the single-charge
	// default the library and CLI use.
	defaultFormCharges = "1,2"
)

// Server runs the web UI. One analysis runs at a time; a concurrent
// run attempt is answered with 409.
type Server struct {
	engine    *gin.Engine
	maxUpload int64

	mu    sync.Mutex
	busy  bool
	state *runState
}

// runState is the outcome of the last completed analysis. It is built
// once, published under the mutex and never mutated afterwards.
type runState struct {
	peakName string
	psmName  string
	params   fingerprint.Params
	log      []string
	results  *fingerprint.Results
	summary  fingerprint.Summary
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload limits the accepted request body size in bytes.
// Zero means no limit.
func WithMaxUpload(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

// New builds a Server with all routes registered.
func New(opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")))

	r.GET("/", s.index)
	r.POST("/analyze", s.analyze)
	r.GET("/results", s.resultsPage)
	r.GET("/results.csv", s.downloadCSV)

	api := r.Group("/api")
	{
		api.GET("/summary", s.apiSummary)
		api.GET("/results", s.apiResults)
	}

	s.engine = r
	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts listening on addr and blocks.
func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

func (s *Server) snapshot() *runState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) indexData(errMsg string) gin.H {
	data := gin.H{
		"Defaults":       fingerprint.DefaultParams(),
		"DefaultCharges": defaultFormCharges,
		"Error":          errMsg,
	}
	if st := s.snapshot(); st != nil {
		data["Last"] = gin.H{
			"PeakFile": st.peakName,
			"PSMFile":  st.psmName,
			"Matches":  st.results.Len(),
		}
	}
	return data
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.indexData(""))
}

func (s *Server) renderIndexError(c *gin.Context, status int, msg string) {
	c.HTML(status, "index.html", s.indexData(msg))
}

func (s *Server) analyze(c *gin.Context) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "an analysis is already running"})
		return
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if s.maxUpload > 0 {
		if c.Request.ContentLength > s.maxUpload {
			s.renderIndexError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload larger than the %d byte limit", s.maxUpload))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	}

	peakFile, peakErr := c.FormFile("peak_file")
	psmFile, psmErr := c.FormFile("psm_file")
	if peakErr != nil || psmErr != nil {
		s.renderIndexError(c, http.StatusBadRequest, "Please upload both peak list and PSM data files.")
		return
	}

	// Both files are present, so this counts as a run attempt and the
	// previous results are discarded even when the run fails below.
	s.mu.Lock()
	s.state = nil
	s.mu.Unlock()

	params, err := formParams(c)
	if err != nil {
		s.renderIndexError(c, http.StatusBadRequest, err.Error())
		return
	}

	peaks, err := readUpload(peakFile, dataset.ReadPeaksFrom)
	if err != nil {
		s.renderIndexError(c, http.StatusBadRequest, fmt.Sprintf("peak list: %v", err))
		return
	}
	psms, err := readUpload(psmFile, dataset.ReadPSMsFrom)
	if err != nil {
		s.renderIndexError(c, http.StatusBadRequest, fmt.Sprintf("PSM data: %v", err))
		return
	}

	progress := &fingerprint.MemoryProgress{}
	fp := fingerprint.New(fingerprint.WithProgress(progress))
	fp.LoadTables(peaks, psms)
	fp.SetParameters(params)

	results, err := fp.Fingerprint(c.Request.Context())
	if err != nil {
		s.renderIndexError(c, http.StatusUnprocessableEntity, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	progress.Printf("Computing summary statistics...")
	summary := fingerprint.Summarize(results)
	progress.Printf("Done.")

	st := &runState{
		peakName: peakFile.Filename,
		psmName:  psmFile.Filename,
		params:   fp.Params(),
		log:      progress.Lines(),
		results:  results,
		summary:  summary,
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	c.Redirect(http.StatusSeeOther, "/results")
}

func formParams(c *gin.Context) (fingerprint.Params, error) {
	p := fingerprint.DefaultParams()
	if v := c.PostForm("tolerance"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("ppm tolerance: %w", err)
		}
		p.PPMTolerance = f
	}
	if v := c.PostForm("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("hyperscore threshold: %w", err)
		}
		p.ConfidenceThreshold = f
	}
	if v := c.PostForm("charges"); v != "" {
		charges, err := fingerprint.ParseCharges(v)
		if err != nil {
			return p, fmt.Errorf("charge states: %w", err)
		}
		p.AllowedCharges = charges
	}
	if v := c.PostForm("mass_column"); v != "" {
		p.ReferenceMassColumn = v
	}
	return p, nil
}

func readUpload(fh *multipart.FileHeader, read func(io.Reader, string) (*table.Table, error)) (*table.Table, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := read(f, fh.Filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return t, nil
}

type resultPage struct {
	rows  [][]string
	page  int
	pages int
	per   int
	start int
}

func paginate(r *fingerprint.Results, page, per int) resultPage {
	if per < 1 {
		per = defaultPageSize
	}
	total := r.Len()
	pages := (total + per - 1) / per
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	lo := (page - 1) * per
	hi := lo + per
	if hi > total {
		hi = total
	}
	rows := make([][]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		rows = append(rows, r.Row(i))
	}
	return resultPage{rows: rows, page: page, pages: pages, per: per, start: lo + 1}
}

func pageQuery(c *gin.Context) (page, per int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	per, _ = strconv.Atoi(c.DefaultQuery("per", strconv.Itoa(defaultPageSize)))
	return page, per
}

func (s *Server) resultsPage(c *gin.Context) {
	st := s.snapshot()
	if st == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	page, per := pageQuery(c)
	pg := paginate(st.results, page, per)

	c.HTML(http.StatusOK, "results.html", gin.H{
		"PeakFile": st.peakName,
		"PSMFile":  st.psmName,
		"Params":   st.params,
		"Log":      st.log,
		"Summary":  st.summary,
		"Columns":  st.results.Columns(),
		"Rows":     pg.rows,
		"Start":    pg.start,
		"Page":     pg.page,
		"Pages":    pg.pages,
		"Per":      pg.per,
		"PrevPage": pg.page - 1,
		"NextPage": pg.page + 1,
		"Total":    st.results.Len(),
	})
}

func (s *Server) downloadCSV(c *gin.Context) {
	st := s.snapshot()
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis has been run"})
		return
	}
	var buf bytes.Buffer
	if err := table.Write(&buf, st.results.Table(), ','); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="fingerprinting_results.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) apiSummary(c *gin.Context) {
	st := s.snapshot()
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis has been run"})
		return
	}
	c.JSON(http.StatusOK, st.summary)
}

func (s *Server) apiResults(c *gin.Context) {
	st := s.snapshot()
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis has been run"})
		return
	}
	page, per := pageQuery(c)
	pg := paginate(st.results, page, per)

	c.JSON(http.StatusOK, gin.H{
		"columns":  st.results.Columns(),
		"rows":     pg.rows,
		"page":     pg.page,
		"pages":    pg.pages,
		"per_page": pg.per,
		"total":    st.results.Len(),
	})
}
