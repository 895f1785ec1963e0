package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"taskflow/internal/models"
	"taskflow/internal/recordstore"
)

// RecordClient is the subset of the record store client used by RecordStore.
type RecordClient interface {
	Fetch(ctx context.Context, table string, q recordstore.Query) (*recordstore.FetchResponse, error)
	Get(ctx context.Context, table string, id int64, q recordstore.Query) (*recordstore.GetResponse, error)
	Create(ctx context.Context, table string, records []recordstore.Record) (*recordstore.WriteResponse, error)
	Update(ctx context.Context, table string, records []recordstore.Record) (*recordstore.WriteResponse, error)
	Delete(ctx context.Context, table string, ids []int64) (*recordstore.WriteResponse, error)
}

// Tables names the record store tables holding tasks and categories.
type Tables struct {
	Task     string
	Category string
}

// RecordStore implements the Store interface on top of the hosted record
// store. Remote failures surface as models.ErrUnavailable, per-record
// rejections as *models.FieldError values collected in a multierror.
type RecordStore struct {
	client RecordClient
	tables Tables
	log    zerolog.Logger
}

// NewRecordStore creates a store backed by client.
func NewRecordStore(client RecordClient, tables Tables, log zerolog.Logger) *RecordStore {
	return &RecordStore{
		client: client,
		tables: tables,
		log:    log.With().Str("component", "records").Logger(),
	}
}

// Ping fetches at most one category to check the store is reachable.
func (s *RecordStore) Ping(ctx context.Context) error {
	_, err := s.fetch(ctx, s.tables.Category, recordstore.Query{
		Fields:     recordstore.Fields(fieldID),
		PagingInfo: &recordstore.Paging{Limit: 1},
	})
	return err
}

// Close is a no-op; the client holds no resources.
func (s *RecordStore) Close() error {
	return nil
}

// CreateCategory creates category and assigns its ID.
func (s *RecordStore) CreateCategory(ctx context.Context, category *models.Category) error {
	rec, err := s.createOne(ctx, s.tables.Category, categoryToRecord(category), categoryFieldNames)
	if err != nil {
		return err
	}
	category.ID = int64Value(rec[fieldID])
	return nil
}

// GetCategory retrieves a category by ID.
func (s *RecordStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	rec, err := s.get(ctx, s.tables.Category, "category", id, categoryFields)
	if err != nil {
		return nil, err
	}
	c := recordToCategory(rec)
	return &c, nil
}

// ListCategories retrieves all categories ordered by order.
func (s *RecordStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	records, err := s.fetch(ctx, s.tables.Category, recordstore.Query{
		Fields:  categoryFields,
		OrderBy: byOrder(categoryOrder),
	})
	if err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(records))
	for _, rec := range records {
		categories = append(categories, recordToCategory(rec))
	}
	models.SortCategories(categories)
	return categories, nil
}

// UpdateCategory writes the fields present in patch.
func (s *RecordStore) UpdateCategory(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error) {
	rec, err := s.updateOne(ctx, s.tables.Category, "category", id, categoryPatchToRecord(id, patch), categoryFieldNames)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return s.GetCategory(ctx, id)
	}
	c := recordToCategory(rec)
	return &c, nil
}

// DeleteCategory deletes a category. Tasks referencing it are kept.
func (s *RecordStore) DeleteCategory(ctx context.Context, id int64) error {
	return s.deleteOne(ctx, s.tables.Category, "category", id)
}

// ReorderCategories writes order_c for every listed category that exists.
func (s *RecordStore) ReorderCategories(ctx context.Context, ids []int64) error {
	return s.reorder(ctx, s.tables.Category, "category", categoryOrder, ids)
}

// CreateTask creates task and assigns its ID.
func (s *RecordStore) CreateTask(ctx context.Context, task *models.Task) error {
	rec, err := s.createOne(ctx, s.tables.Task, taskToRecord(task), taskFieldNames)
	if err != nil {
		return err
	}
	task.ID = int64Value(rec[fieldID])
	return nil
}

// GetTask retrieves a task by ID.
func (s *RecordStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	rec, err := s.get(ctx, s.tables.Task, "task", id, taskFields)
	if err != nil {
		return nil, err
	}
	t := recordToTask(rec)
	return &t, nil
}

// ListTasks retrieves all tasks ordered by order.
func (s *RecordStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.fetchTasks(ctx, recordstore.Query{})
}

// ListTasksByCategory retrieves the tasks of one category.
func (s *RecordStore) ListTasksByCategory(ctx context.Context, categoryID string) ([]models.Task, error) {
	id := categoryValue(categoryID)
	if id == nil {
		return []models.Task{}, nil
	}
	return s.fetchTasks(ctx, recordstore.Query{
		Where: []recordstore.Condition{{FieldName: taskCategory, Operator: recordstore.OpEqualTo, Values: []any{id}}},
	})
}

// SearchTasks retrieves the tasks whose title or description contains query.
func (s *RecordStore) SearchTasks(ctx context.Context, query string) ([]models.Task, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return s.ListTasks(ctx)
	}

	contains := func(field string) recordstore.SubGroup {
		return recordstore.SubGroup{
			Operator:   recordstore.GroupOR,
			Conditions: []recordstore.Condition{{FieldName: field, Operator: recordstore.OpContains, Values: []any{q}}},
		}
	}
	return s.fetchTasks(ctx, recordstore.Query{
		WhereGroups: []recordstore.WhereGroup{{
			Operator:  recordstore.GroupOR,
			SubGroups: []recordstore.SubGroup{contains(taskTitle), contains(taskDescription)},
		}},
	})
}

func (s *RecordStore) fetchTasks(ctx context.Context, q recordstore.Query) ([]models.Task, error) {
	q.Fields = taskFields
	q.OrderBy = byOrder(taskOrder)

	records, err := s.fetch(ctx, s.tables.Task, q)
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, recordToTask(rec))
	}
	models.SortTasks(tasks)
	return tasks, nil
}

// UpdateTask writes the fields present in patch.
func (s *RecordStore) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	rec, err := s.updateOne(ctx, s.tables.Task, "task", id, patchToRecord(id, patch), taskFieldNames)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return s.GetTask(ctx, id)
	}
	t := recordToTask(rec)
	return &t, nil
}

// DeleteTask deletes a task by ID.
func (s *RecordStore) DeleteTask(ctx context.Context, id int64) error {
	return s.deleteOne(ctx, s.tables.Task, "task", id)
}

// ToggleTaskComplete reads the task and writes back the flipped completed flag.
func (s *RecordStore) ToggleTaskComplete(ctx context.Context, id int64) (*models.Task, error) {
	cur, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	completed := !cur.Completed
	return s.UpdateTask(ctx, id, models.TaskPatch{Completed: &completed})
}

// ReorderTasks writes order_c for every listed task that exists.
func (s *RecordStore) ReorderTasks(ctx context.Context, ids []int64) error {
	return s.reorder(ctx, s.tables.Task, "task", taskOrder, ids)
}

func (s *RecordStore) reorder(ctx context.Context, table, kind, orderField string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	existing, err := s.fetch(ctx, table, recordstore.Query{
		Fields: recordstore.Fields(fieldID),
		Where:  []recordstore.Condition{{FieldName: fieldID, Operator: recordstore.OpEqualTo, Values: values}},
	})
	if err != nil {
		return err
	}

	known := make(map[int64]bool, len(existing))
	for _, rec := range existing {
		known[int64Value(rec[fieldID])] = true
	}

	var (
		records []recordstore.Record
		sentIDs []int64
		skipped int
	)
	for i, id := range ids {
		if !known[id] {
			skipped++
			continue
		}
		records = append(records, recordstore.Record{fieldID: id, orderField: i + 1})
		sentIDs = append(sentIDs, id)
	}
	if skipped > 0 {
		s.log.Debug().Str("table", table).Int("skipped", skipped).Msg("reorder skipped unknown ids")
	}
	if len(records) == 0 {
		return nil
	}

	resp, err := s.client.Update(ctx, table, records)
	if err != nil {
		return s.unavailable("update", table, err)
	}
	_, err = s.results("update", table, kind, resp, sentIDs, nil)
	return err
}

func (s *RecordStore) fetch(ctx context.Context, table string, q recordstore.Query) ([]recordstore.Record, error) {
	resp, err := s.client.Fetch(ctx, table, q)
	if err != nil {
		return nil, s.unavailable("fetch", table, err)
	}
	if !resp.Success {
		return nil, s.rejected("fetch", table, resp.Message)
	}
	return resp.Data, nil
}

func (s *RecordStore) get(ctx context.Context, table, kind string, id int64, fields []recordstore.Field) (recordstore.Record, error) {
	resp, err := s.client.Get(ctx, table, id, recordstore.Query{Fields: fields})
	if err != nil {
		return nil, s.unavailable("get", table, err)
	}
	if !resp.Success {
		return nil, s.rejected("get", table, resp.Message)
	}
	if resp.Data == nil {
		return nil, models.NotFound(kind, id)
	}
	return resp.Data, nil
}

func (s *RecordStore) createOne(ctx context.Context, table string, rec recordstore.Record, names map[string]string) (recordstore.Record, error) {
	resp, err := s.client.Create(ctx, table, []recordstore.Record{rec})
	if err != nil {
		return nil, s.unavailable("create", table, err)
	}
	data, err := s.results("create", table, "", resp, nil, names)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data[0] == nil {
		return nil, fmt.Errorf("create %s: %w: no record returned", table, models.ErrUnavailable)
	}
	return data[0], nil
}

func (s *RecordStore) updateOne(ctx context.Context, table, kind string, id int64, rec recordstore.Record, names map[string]string) (recordstore.Record, error) {
	resp, err := s.client.Update(ctx, table, []recordstore.Record{rec})
	if err != nil {
		return nil, s.unavailable("update", table, err)
	}
	data, err := s.results("update", table, kind, resp, []int64{id}, names)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data[0], nil
}

func (s *RecordStore) deleteOne(ctx context.Context, table, kind string, id int64) error {
	resp, err := s.client.Delete(ctx, table, []int64{id})
	if err != nil {
		return s.unavailable("delete", table, err)
	}
	_, err = s.results("delete", table, kind, resp, []int64{id}, nil)
	return err
}

// results checks a bulk write response. It returns the data of the
// successful records and a multierror holding one error per rejected field
// or record. ids, when given, are the record ids in request order.
func (s *RecordStore) results(op, table, kind string, resp *recordstore.WriteResponse, ids []int64, names map[string]string) ([]recordstore.Record, error) {
	if !resp.Success {
		return nil, s.rejected(op, table, resp.Message)
	}

	var (
		data   []recordstore.Record
		result *multierror.Error
	)
	for i, r := range resp.Results {
		if r.Success {
			data = append(data, r.Data)
			continue
		}

		s.log.Warn().
			Str("table", table).
			Str("op", op).
			Interface("errors", r.Errors).
			Str("message", r.Message).
			Msg("record rejected")

		if len(r.Errors) > 0 {
			for _, fe := range r.Errors {
				field := fe.FieldLabel
				if name, ok := names[field]; ok {
					field = name
				}
				result = multierror.Append(result, models.NewFieldError(field, fe.Message))
			}
			continue
		}

		if op != "create" && i < len(ids) {
			result = multierror.Append(result, models.NotFound(kind, ids[i]))
			continue
		}
		result = multierror.Append(result, fmt.Errorf("%s %s: %w: %s", op, table, models.ErrInvalidArgs, r.Message))
	}

	// Records the store did not report on were not written.
	for i := len(resp.Results); i < len(ids); i++ {
		result = multierror.Append(result, models.NotFound(kind, ids[i]))
	}

	return data, result.ErrorOrNil()
}

func (s *RecordStore) unavailable(op, table string, err error) error {
	s.log.Warn().Err(err).Str("table", table).Str("op", op).Msg("record store call failed")
	return fmt.Errorf("%s %s: %w: %w", op, table, models.ErrUnavailable, err)
}

func (s *RecordStore) rejected(op, table, message string) error {
	s.log.Warn().Str("table", table).Str("op", op).Str("message", message).Msg("record store rejected request")
	return fmt.Errorf("%s %s: %w: %s", op, table, models.ErrUnavailable, message)
}

func byOrder(field string) []recordstore.OrderBy {
	return []recordstore.OrderBy{
		{FieldName: field, SortType: recordstore.SortASC},
		{FieldName: fieldID, SortType: recordstore.SortASC},
	}
}

var _ Store = (*RecordStore)(nil)
