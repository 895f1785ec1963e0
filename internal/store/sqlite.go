package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"taskflow/internal/models"
)

const dateLayout = "2006-01-02"

// sqliteDriver is go-sqlite3 with a Unicode-aware fold() SQL function.
// SQLite's built-in lower() only folds ASCII letters.
const sqliteDriver = "sqlite3_taskflow"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

type categoryRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Color     string `db:"color"`
	SortOrder int    `db:"sort_order"`
}

func (r categoryRow) model() models.Category {
	return models.Category{ID: r.ID, Name: r.Name, Color: r.Color, Order: r.SortOrder}
}

type taskRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	CategoryID  sql.NullInt64  `db:"category_id"`
	Priority    string         `db:"priority"`
	DueDate     sql.NullString `db:"due_date"`
	Completed   bool           `db:"completed"`
	SortOrder   int            `db:"sort_order"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r taskRow) model() models.Task {
	t := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    models.Priority(r.Priority),
		Completed:   r.Completed,
		Order:       r.SortOrder,
		CreatedAt:   r.CreatedAt,
	}
	if r.CategoryID.Valid {
		t.CategoryID = strconv.FormatInt(r.CategoryID.Int64, 10)
	}
	if r.DueDate.Valid {
		if d, err := time.Parse(dateLayout, r.DueDate.String); err == nil {
			t.DueDate = &d
		}
	}
	return t
}

const (
	categoryColumns = `id, name, color, sort_order`
	taskColumns     = `id, title, description, category_id, priority, due_date, completed, sort_order, created_at`
)

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open(sqliteDriver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCategory creates a new category in the database.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, color, sort_order)
		VALUES (?, ?, ?)
	`, category.Name, category.Color, category.Order)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	category.ID = id

	return nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var row categoryRow
	err := s.db.GetContext(ctx, &row, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("category", id)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	c := row.model()
	return &c, nil
}

// ListCategories retrieves all categories ordered by sort_order.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, r.model())
	}
	return categories, nil
}

// UpdateCategory applies patch to an existing category.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row categoryRow
	if err := tx.GetContext(ctx, &row, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("category", id)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	c := row.model()
	patch.Apply(&c)

	_, err = tx.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, sort_order = ? WHERE id = ?
	`, c.Name, c.Color, c.Order, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit category update: %w", err)
	}
	return &c, nil
}

// DeleteCategory deletes a category. Tasks referencing it are kept.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "categories", "category", id)
}

// ReorderCategories updates the sort_order of categories based on the given order of IDs.
func (s *SQLiteStore) ReorderCategories(ctx context.Context, ids []int64) error {
	return s.reorder(ctx, "categories", ids)
}

// CreateTask creates a new task in the database.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *models.Task) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, category_id, priority, due_date, completed, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, task.Title, task.Description, categoryArg(task.CategoryID), string(task.Priority),
		dateArg(task.DueDate), task.Completed, task.Order, task.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id

	return nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NotFound("task", id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	t := row.model()
	return &t, nil
}

// ListTasks retrieves all tasks ordered by sort_order.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.selectTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY sort_order ASC, id ASC`)
}

// ListTasksByCategory retrieves the tasks of one category ordered by sort_order.
func (s *SQLiteStore) ListTasksByCategory(ctx context.Context, categoryID string) ([]models.Task, error) {
	id, err := strconv.ParseInt(categoryID, 10, 64)
	if err != nil {
		return []models.Task{}, nil
	}
	return s.selectTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE category_id = ? ORDER BY sort_order ASC, id ASC
	`, id)
}

// SearchTasks retrieves the tasks whose title or description contains query,
// ignoring case.
func (s *SQLiteStore) SearchTasks(ctx context.Context, query string) ([]models.Task, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.ListTasks(ctx)
	}

	return s.selectTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE instr(fold(title), ?) > 0 OR instr(fold(description), ?) > 0
		ORDER BY sort_order ASC, id ASC
	`, q, q)
}

func (s *SQLiteStore) selectTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.model())
	}
	return tasks, nil
}

// UpdateTask applies patch to an existing task.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(task)

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, category_id = ?, priority = ?, due_date = ?, completed = ?, sort_order = ?
		WHERE id = ?
	`, task.Title, task.Description, categoryArg(task.CategoryID), string(task.Priority),
		dateArg(task.DueDate), task.Completed, task.Order, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task update: %w", err)
	}
	return task, nil
}

// DeleteTask deletes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "tasks", "task", id)
}

// ToggleTaskComplete toggles the completed status of a task.
func (s *SQLiteStore) ToggleTaskComplete(ctx context.Context, id int64) (*models.Task, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE tasks SET completed = NOT completed WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle task complete: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, models.NotFound("task", id)
	}

	return s.GetTask(ctx, id)
}

// ReorderTasks updates the sort_order of tasks based on the given order of IDs.
func (s *SQLiteStore) ReorderTasks(ctx context.Context, ids []int64) error {
	return s.reorder(ctx, "tasks", ids)
}

func (s *SQLiteStore) deleteByID(ctx context.Context, table, kind string, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.NotFound(kind, id)
	}
	return nil
}

func (s *SQLiteStore) reorder(ctx context.Context, table string, ids []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE `+table+` SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i+1, id); err != nil {
			return fmt.Errorf("failed to update sort order: %w", err)
		}
	}

	return tx.Commit()
}

func categoryArg(categoryID string) interface{} {
	id, err := strconv.ParseInt(categoryID, 10, 64)
	if err != nil {
		return nil
	}
	return id
}

func dateArg(d *time.Time) interface{} {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

var _ Store = (*SQLiteStore)(nil)
