// Package recordstore speaks the request/response contract of the hosted
// record store: declarative queries over named tables and bulk writes that
// report success per record.
package recordstore

// Condition operators understood by the record store. A condition holds
// when the field matches any of its Values.
const (
	OpEqualTo  = "EqualTo"
	OpContains = "Contains"
)

// Group operators for WhereGroup and SubGroup.
const (
	GroupAND = "AND"
	GroupOR  = "OR"
)

// Sort directions for OrderBy.
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)

// Record is one row as the store sends it: field name to JSON value.
type Record map[string]any

type FieldRef struct {
	Name string `json:"Name"`
}

type Field struct {
	Field FieldRef `json:"field"`
}

// Fields builds a field selection list.
func Fields(names ...string) []Field {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		out = append(out, Field{Field: FieldRef{Name: n}})
	}
	return out
}

type Condition struct {
	FieldName string `json:"FieldName"`
	Operator  string `json:"Operator"`
	Values    []any  `json:"Values"`
}

type SubGroup struct {
	Conditions []Condition `json:"conditions"`
	Operator   string      `json:"operator"`
}

// WhereGroup combines sub groups with Operator. Conditions inside a
// SubGroup are combined with the SubGroup's own operator.
type WhereGroup struct {
	Operator  string     `json:"operator"`
	SubGroups []SubGroup `json:"subGroups"`
}

type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

type Paging struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Query is the body of fetch and get requests. All Where conditions must
// hold, and every WhereGroup must hold.
type Query struct {
	Fields      []Field      `json:"fields"`
	Where       []Condition  `json:"where,omitempty"`
	WhereGroups []WhereGroup `json:"whereGroups,omitempty"`
	OrderBy     []OrderBy    `json:"orderBy,omitempty"`
	PagingInfo  *Paging      `json:"pagingInfo,omitempty"`
}

// GetRequest asks for a single record.
type GetRequest struct {
	ID    int64 `json:"id"`
	Query Query `json:"query"`
}

// WriteRequest is the body of create and update requests.
type WriteRequest struct {
	Records []Record `json:"records"`
}

// DeleteRequest is the body of delete requests.
type DeleteRequest struct {
	RecordIDs []int64 `json:"RecordIds"`
}

// FetchResponse answers a fetch.
type FetchResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    []Record `json:"data,omitempty"`
}

// GetResponse answers a get. Data is nil when the record does not exist.
type GetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    Record `json:"data,omitempty"`
}

type RecordError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

// Result reports the outcome for one record of a bulk write.
type Result struct {
	Success bool          `json:"success"`
	Data    Record        `json:"data,omitempty"`
	Errors  []RecordError `json:"errors,omitempty"`
	Message string        `json:"message,omitempty"`
}

// WriteResponse answers create, update and delete.
type WriteResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Results []Result `json:"results,omitempty"`
}
