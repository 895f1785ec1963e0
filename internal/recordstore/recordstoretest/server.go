// Package recordstoretest provides an in-process record store speaking the
// recordstore protocol, for tests.
package recordstoretest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"taskflow/internal/recordstore"
)

// Call records one request received by the server.
type Call struct {
	Table string
	Op    string
	Body  json.RawMessage
}

// ValidateFunc rejects fields of a record being created or updated.
type ValidateFunc func(table string, rec recordstore.Record) []recordstore.RecordError

type table struct {
	nextID int64
	rows   map[int64]recordstore.Record
}

type failure struct {
	message string
	status  int
}

// Server is a fake record store backed by in-memory tables.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string]*table
	calls    []Call
	failures map[string]failure
	validate ValidateFunc
}

// NewServer starts a server that is closed when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()

	s := &Server{
		tables:   make(map[string]*table),
		failures: make(map[string]failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tables/{table}/{op}", s.handle)
	s.Server = httptest.NewServer(mux)
	tb.Cleanup(s.Close)

	return s
}

// SetValidator installs fn to reject records on create and update.
func (s *Server) SetValidator(fn ValidateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validate = fn
}

// Seed inserts rec into tableName and returns the assigned id.
func (s *Server) Seed(tableName string, rec recordstore.Record) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(tableName, rec)["Id"].(int64)
}

// Row returns a copy of a stored record, or nil.
func (s *Server) Row(tableName string, id int64) recordstore.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.table(tableName).rows[id]
	if !ok {
		return nil
	}
	return clone(row)
}

// Len returns the number of records in tableName.
func (s *Server) Len(tableName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table(tableName).rows)
}

// FailNext makes the next op on tableName answer success=false with message.
func (s *Server) FailNext(tableName, op, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[tableName+"/"+op] = failure{message: message}
}

// FailNextStatus makes the next op on tableName answer with an HTTP error.
func (s *Server) FailNextStatus(tableName, op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[tableName+"/"+op] = failure{message: http.StatusText(status), status: status}
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	tableName, op := r.PathValue("table"), r.PathValue("op")

	var raw bytes.Buffer
	if _, err := raw.ReadFrom(r.Body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Table: tableName, Op: op, Body: json.RawMessage(raw.Bytes())})

	key := tableName + "/" + op
	if f, ok := s.failures[key]; ok {
		delete(s.failures, key)
		if f.status != 0 {
			http.Error(w, f.message, f.status)
			return
		}
		writeJSON(w, map[string]any{"success": false, "message": f.message})
		return
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Bytes()))
	dec.UseNumber()

	switch op {
	case "fetch":
		var q recordstore.Query
		if err := dec.Decode(&q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, recordstore.FetchResponse{Success: true, Data: s.fetch(tableName, q)})
	case "get":
		var req recordstore.GetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := recordstore.GetResponse{Success: true}
		if row, ok := s.table(tableName).rows[req.ID]; ok {
			resp.Data = project(row, req.Query.Fields)
		}
		writeJSON(w, resp)
	case "create", "update":
		var req recordstore.WriteRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, recordstore.WriteResponse{Success: true, Results: s.write(tableName, op, req.Records)})
	case "delete":
		var req recordstore.DeleteRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, recordstore.WriteResponse{Success: true, Results: s.delete(tableName, req.RecordIDs)})
	default:
		http.Error(w, "unknown op "+op, http.StatusNotFound)
	}
}

func (s *Server) table(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{nextID: 1, rows: make(map[int64]recordstore.Record)}
		s.tables[name] = t
	}
	return t
}

func (s *Server) insert(tableName string, rec recordstore.Record) recordstore.Record {
	t := s.table(tableName)
	row := clone(rec)
	id := t.nextID
	t.nextID++
	row["Id"] = id
	t.rows[id] = row
	return clone(row)
}

func (s *Server) fetch(tableName string, q recordstore.Query) []recordstore.Record {
	var rows []recordstore.Record
	for _, row := range s.table(tableName).rows {
		if matchesAll(row, q.Where) && matchesGroups(row, q.WhereGroups) {
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		for _, ob := range q.OrderBy {
			a, b := rows[i][ob.FieldName], rows[j][ob.FieldName]
			if c := compare(a, b); c != 0 {
				if strings.EqualFold(ob.SortType, recordstore.SortDESC) {
					return c > 0
				}
				return c < 0
			}
		}
		return compare(rows[i]["Id"], rows[j]["Id"]) < 0
	})

	if p := q.PagingInfo; p != nil {
		if p.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[p.Offset:]
		}
		if p.Limit > 0 && p.Limit < len(rows) {
			rows = rows[:p.Limit]
		}
	}

	out := make([]recordstore.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, project(row, q.Fields))
	}
	return out
}

func (s *Server) write(tableName, op string, records []recordstore.Record) []recordstore.Result {
	t := s.table(tableName)
	results := make([]recordstore.Result, 0, len(records))

	for _, rec := range records {
		if s.validate != nil {
			if errs := s.validate(tableName, rec); len(errs) > 0 {
				results = append(results, recordstore.Result{Success: false, Errors: errs})
				continue
			}
		}

		if op == "create" {
			delete(rec, "Id")
			results = append(results, recordstore.Result{Success: true, Data: s.insert(tableName, rec)})
			continue
		}

		id, ok := toInt(rec["Id"])
		row, exists := t.rows[id]
		if !ok || !exists {
			results = append(results, recordstore.Result{Success: false, Message: fmt.Sprintf("record %v does not exist", rec["Id"])})
			continue
		}
		for k, v := range rec {
			if k != "Id" {
				row[k] = v
			}
		}
		results = append(results, recordstore.Result{Success: true, Data: clone(row)})
	}

	return results
}

func (s *Server) delete(tableName string, ids []int64) []recordstore.Result {
	t := s.table(tableName)
	results := make([]recordstore.Result, 0, len(ids))
	for _, id := range ids {
		if _, ok := t.rows[id]; !ok {
			results = append(results, recordstore.Result{Success: false, Message: fmt.Sprintf("record %d does not exist", id)})
			continue
		}
		delete(t.rows, id)
		results = append(results, recordstore.Result{Success: true})
	}
	return results
}

func matchesAll(row recordstore.Record, conds []recordstore.Condition) bool {
	for _, c := range conds {
		if !matches(row, c) {
			return false
		}
	}
	return true
}

func matchesGroups(row recordstore.Record, groups []recordstore.WhereGroup) bool {
	for _, g := range groups {
		results := make([]bool, 0, len(g.SubGroups))
		for _, sg := range g.SubGroups {
			sub := make([]bool, 0, len(sg.Conditions))
			for _, c := range sg.Conditions {
				sub = append(sub, matches(row, c))
			}
			results = append(results, combine(sg.Operator, sub))
		}
		if !combine(g.Operator, results) {
			return false
		}
	}
	return true
}

func combine(op string, values []bool) bool {
	if strings.EqualFold(op, recordstore.GroupOR) {
		for _, v := range values {
			if v {
				return true
			}
		}
		return len(values) == 0
	}
	for _, v := range values {
		if !v {
			return false
		}
	}
	return true
}

func matches(row recordstore.Record, c recordstore.Condition) bool {
	got := str(row[c.FieldName])
	for _, want := range c.Values {
		switch c.Operator {
		case recordstore.OpEqualTo:
			if got == str(want) {
				return true
			}
		case recordstore.OpContains:
			if strings.Contains(strings.ToLower(got), strings.ToLower(str(want))) {
				return true
			}
		}
	}
	return false
}

func project(row recordstore.Record, fields []recordstore.Field) recordstore.Record {
	if len(fields) == 0 {
		return clone(row)
	}
	out := recordstore.Record{"Id": row["Id"]}
	for _, f := range fields {
		if v, ok := row[f.Field.Name]; ok {
			out[f.Field.Name] = v
		}
	}
	return out
}

func compare(a, b any) int {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(str(a), str(b))
}

func toFloat(v any) (float64, bool) {
	f, err := strconv.ParseFloat(str(v), 64)
	return f, err == nil
}

func toInt(v any) (int64, bool) {
	n, err := strconv.ParseInt(str(v), 10, 64)
	return n, err == nil
}

func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case map[string]any:
		return str(x["Id"])
	case recordstore.Record:
		return str(x["Id"])
	default:
		return fmt.Sprint(x)
	}
}

func clone(rec recordstore.Record) recordstore.Record {
	out := make(recordstore.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
