package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/jsphweid/scoreline/codec"
	"github.com/jsphweid/scoreline/model"
	"github.com/jsphweid/scoreline/musicxml"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves import and expand over HTTP",
	Long:  `Serves POST /import, POST /expand and GET /healthz on serve.addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.Serve.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "document exceeds %d bytes", tooLarge.Limit)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "could not read request body: %v", err)
		return nil, false
	}
	return body, true
}

func writeImportError(w http.ResponseWriter, err error) {
	if musicxml.IsStructureError(err) {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	logger.Error("import failed", "err", err)
	writeError(w, http.StatusInternalServerError, "import failed")
}

func respond(w http.ResponseWriter, r *http.Request, v any) {
	format := codec.JSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := codec.ParseFormat(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
		format = f
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, format, v); err != nil {
		logger.Error("encoding response", "err", err)
		writeError(w, http.StatusInternalServerError, "could not encode response")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

// HandleImport imports the MusicXML request body and responds with the
// timeline and its warnings. The score gets a fresh ID.
func HandleImport(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	score, warnings, err := musicxml.Import(bytes.NewReader(body), importOptions())
	if err != nil {
		writeImportError(w, err)
		return
	}
	score.Metadata.ID = uuid.NewString()
	if warnings == nil {
		warnings = []model.Warning{}
	}
	respond(w, r, model.ImportResponse{Score: score, Warnings: warnings})
}

// HandleExpand responds with each part's playback order.
func HandleExpand(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	parts, err := musicxml.Expansions(bytes.NewReader(body), importOptions())
	if err != nil {
		writeImportError(w, err)
		return
	}
	respond(w, r, model.ExpandResponse{Parts: parts})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/import", HandleImport).Methods("POST")
	router.HandleFunc("/expand", HandleExpand).Methods("POST")
	router.HandleFunc("/healthz", handleHealthz).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Serve.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(router)
}

func serve() error {
	logger.Info("serving", "addr", cfg.Serve.Addr)
	return http.ListenAndServe(cfg.Serve.Addr, NewRouter())
}
