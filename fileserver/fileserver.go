package fileserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/0xEigenLabs/eigen-estark-gevulot/fileserver JobStoreAPI
//go:generate mockgen -package mocks -destination mocks/mock_iterator.go github.com/0xEigenLabs/eigen-estark-gevulot/jobstore RecordIterator

const (
	jobsEndpoint    = "/jobs"
	metricsEndpoint = "/metrics"
	fileEndpoint    = "/{name}"
)

var servedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gevulot",
	Name:      "served_files_total",
	Help:      "Work directory requests by result.",
}, []string{"result"})

// JobStoreAPI defines a set of API methods for searching the job store.
type JobStoreAPI interface {
	Search(query jobstore.Query) (jobstore.RecordIterator, error)
}

// FileServer publishes the work directory to the network and lists the
// recorded jobs of a task. Job inputs are fetched from the root path, so
// the file names "jobs" and "metrics" are shadowed by the other endpoints.
type FileServer struct {
	cfg    Config
	router *mux.Router
}

// NewFileServer creates a new file server instance with the specified config.
func NewFileServer(cfg Config) (*FileServer, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("file server: config validation failed: %w", err)
	}

	f := &FileServer{
		router: mux.NewRouter(),
		cfg:    cfg,
	}

	f.router.HandleFunc(jobsEndpoint, f.listJobs).Methods("GET")
	f.router.Handle(metricsEndpoint, promhttp.Handler()).Methods("GET")
	f.router.HandleFunc(fileEndpoint, f.serveFile).Methods("GET", "HEAD")
	f.router.NotFoundHandler = http.HandlerFunc(f.notFound)
	return f, nil
}

// Serve accepts requests until ctx expires.
func (f *FileServer) Serve(ctx context.Context) error {
	l, err := net.Listen("tcp", f.cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    f.cfg.ListenAddr,
		Handler: f.router,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	f.cfg.Logger.WithField("addr", l.Addr().String()).Info("serving work directory")
	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Ignore error when the server shuts down.
		err = nil
	}

	return err
}

func (f *FileServer) notFound(w http.ResponseWriter, _ *http.Request) {
	servedFiles.WithLabelValues("not_found").Inc()
	http.Error(w, "not found", http.StatusNotFound)
}

func (f *FileServer) serveFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "." || name == ".." || name != filepath.Base(name) {
		f.notFound(w, r)
		return
	}

	path := filepath.Join(f.cfg.WorkDir, name)
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		f.notFound(w, r)
		return
	}

	servedFiles.WithLabelValues("ok").Inc()
	f.cfg.Logger.WithField("file", name).Debug("serving input file")
	http.ServeFile(w, r, path)
}

func (f *FileServer) listJobs(w http.ResponseWriter, r *http.Request) {
	task := r.URL.Query().Get("task")
	if task == "" {
		http.Error(w, "missing task parameter", http.StatusBadRequest)
		return
	}
	offset, _ := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64)

	page, err := f.runQuery(task, offset)
	if err != nil {
		f.cfg.Logger.WithError(err).WithField("task", task).Error("job search failed")
		http.Error(w, "an error occurred; please try again later", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func (f *FileServer) runQuery(task string, offset uint64) (*jobsPage, error) {
	var query = jobstore.Query{Type: jobstore.QueryTypeTask, Expression: task, Offset: offset}

	resultIt, err := f.cfg.JobStoreAPI.Search(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resultIt.Close() }()

	jobs := make([]jobView, 0, f.cfg.ResultsPerPage)
	for resCount := 0; resCount < f.cfg.ResultsPerPage && resultIt.Next(); resCount++ {
		jobs = append(jobs, newJobView(resultIt.Record()))
	}

	if err = resultIt.Error(); err != nil {
		return nil, err
	}

	// Setup paginator and generate prev/next links
	escaped := url.QueryEscape(task)
	pagination := &paginationDetails{
		From:  int(offset + 1),
		To:    int(offset) + len(jobs),
		Total: int(resultIt.TotalCount()),
	}
	if offset > 0 {
		pagination.PrevLink = fmt.Sprintf("%s?task=%s", jobsEndpoint, escaped)
		if prevOffset := int(offset) - f.cfg.ResultsPerPage; prevOffset > 0 {
			pagination.PrevLink += fmt.Sprintf("&offset=%d", prevOffset)
		}
	}
	if nextPageOffset := int(offset) + len(jobs); nextPageOffset < pagination.Total {
		pagination.NextLink = fmt.Sprintf("%s?task=%s&offset=%d", jobsEndpoint, escaped, nextPageOffset)
	}

	return &jobsPage{Jobs: jobs, Pagination: pagination}, nil
}

type jobsPage struct {
	Jobs       []jobView          `json:"jobs"`
	Pagination *paginationDetails `json:"pagination"`
}

// paginationDetails encapsulates the details for rendering a paginator component.
type paginationDetails struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Total    int    `json:"total"`
	PrevLink string `json:"prev_link,omitempty"`
	NextLink string `json:"next_link,omitempty"`
}

// jobView is the JSON rendering of a jobstore.Record.
type jobView struct {
	JobHash   string          `json:"job_hash"`
	RunID     string          `json:"run_id"`
	Task      string          `json:"task"`
	Chunk     string          `json:"chunk"`
	Status    jobstore.Status `json:"status"`
	LeafHash  string          `json:"leaf_hash,omitempty"`
	Files     []string        `json:"files,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newJobView(rec *jobstore.Record) jobView {
	v := jobView{
		JobHash:   workflow.HashHex(rec.JobHash),
		RunID:     rec.RunID.String(),
		Task:      rec.Task,
		Chunk:     rec.Chunk,
		Status:    rec.Status,
		Files:     rec.Files,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.LeafHash != (common.Hash{}) {
		v.LeafHash = workflow.HashHex(rec.LeafHash)
	}
	return v
}
