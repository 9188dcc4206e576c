package unidbmock

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/felixge/httpsnoop"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
)

// Server answers the unidb REST surface for one contract key.
type Server struct {
	key     string
	backend Backend
	router  *mux.Router

	requests   atomic.Int64
	failStatus atomic.Int32
}

func NewServer(contractKey string, backend Backend) *Server {
	s := &Server{key: contractKey, backend: backend}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.Methods(http.MethodGet).Path("/{key}/data/{table}/all").HandlerFunc(s.list)
	r.Methods(http.MethodPost).Path("/{key}/data/store").HandlerFunc(s.store)
	r.Methods(http.MethodPut).Path("/{key}/data/{table}/update/{id}").HandlerFunc(s.update)
	r.Methods(http.MethodDelete).Path("/{key}/data/{table}/delete/{id}").HandlerFunc(s.delete)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns how many requests matched a route.
func (s *Server) Requests() int64 { return s.requests.Load() }

// FailWith makes every following request answer with status and a short
// body. Zero restores normal service.
func (s *Server) FailWith(status int) { s.failStatus.Store(int32(status)) }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		h := next
		if code := int(s.failStatus.Load()); code != 0 {
			h = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "injected failure", code)
			})
		}
		m := httpsnoop.CaptureMetrics(h, w, r)
		glog.V(1).Infof("unidbmock: %s %s -> %d (%s)", r.Method, r.URL.Path, m.Code, m.Duration)
	})
}

func (s *Server) contract(w http.ResponseWriter, r *http.Request) bool {
	if mux.Vars(r)["key"] != s.key {
		http.Error(w, "contract not found", http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if !s.contract(w, r) {
		return
	}
	rows, err := s.backend.All(r.Context(), mux.Vars(r)["table"])
	if err != nil {
		glog.Errorf("unidbmock: list: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []Row{}
	}
	writeJSON(w, map[string]any{"data": rows})
}

func (s *Server) store(w http.ResponseWriter, r *http.Request) {
	if !s.contract(w, r) {
		return
	}
	var req struct {
		TableName string         `json:"table_name"`
		Data      map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.TableName == "" {
		http.Error(w, "table_name is required", http.StatusBadRequest)
		return
	}
	id, err := s.backend.Insert(r.Context(), req.TableName, req.Data)
	if err != nil {
		glog.Errorf("unidbmock: store: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"entry_id": id})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	if !s.contract(w, r) {
		return
	}
	var req struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	found, err := s.backend.Update(r.Context(), vars["table"], vars["id"], req.Data)
	if err != nil {
		glog.Errorf("unidbmock: update: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"entry_id": vars["id"]})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if !s.contract(w, r) {
		return
	}
	vars := mux.Vars(r)
	found, err := s.backend.Delete(r.Context(), vars["table"], vars["id"])
	if err != nil {
		glog.Errorf("unidbmock: delete: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"entry_id": vars["id"]})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("unidbmock: write response: %v", err)
	}
}
