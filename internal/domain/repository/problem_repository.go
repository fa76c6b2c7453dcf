package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	Create(ctx context.Context, problem *model.Problem) error
	Update(ctx context.Context, problem *model.Problem) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	// SlugExists ignores the problem with excludeID so updates can keep
	// their own slug.
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	List(ctx context.Context, filter model.ProblemFilter) ([]model.ProblemSummary, int, error)
	SolvedByUser(ctx context.Context, userID string) ([]model.ProblemSummary, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

// likeEscaper makes user text match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

const problemColumns = `id, title, slug, description, difficulty, tags, visible_test_cases, hidden_test_cases,
	start_code, reference_solution, driver_code, created_by, created_at, updated_at`

// problemDocs holds the JSONB-encoded list fields of a problem.
type problemDocs struct {
	tags, visible, hidden, start, reference, driver []byte
}

func encodeProblemDocs(p *model.Problem) (*problemDocs, error) {
	var d problemDocs
	var err error
	fields := []struct {
		dst *[]byte
		src any
	}{
		{&d.tags, nonNil(p.Tags)},
		{&d.visible, nonNil(p.VisibleTestCases)},
		{&d.hidden, nonNil(p.HiddenTestCases)},
		{&d.start, nonNil(p.StartCode)},
		{&d.reference, nonNil(p.ReferenceSolution)},
		{&d.driver, nonNil(p.DriverCode)},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// nonNil keeps nil slices from being stored as JSON null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r *pgProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	docs, err := encodeProblemDocs(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create encode: %w", err)
	}

	query := `INSERT INTO problems (id, title, slug, description, difficulty, tags, visible_test_cases,
	              hidden_test_cases, start_code, reference_solution, driver_code, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Slug, p.Description, p.Difficulty,
		string(docs.tags), string(docs.visible), string(docs.hidden),
		string(docs.start), string(docs.reference), string(docs.driver), p.CreatedByID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) Update(ctx context.Context, p *model.Problem) error {
	docs, err := encodeProblemDocs(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update encode: %w", err)
	}

	query := `UPDATE problems SET
	              title = $1, slug = $2, description = $3, difficulty = $4, tags = $5,
	              visible_test_cases = $6, hidden_test_cases = $7, start_code = $8,
	              reference_solution = $9, driver_code = $10, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $11
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		p.Title, p.Slug, p.Description, p.Difficulty,
		string(docs.tags), string(docs.visible), string(docs.hidden),
		string(docs.start), string(docs.reference), string(docs.driver), p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	return nil
}

// Delete removes the problem; submissions and solved entries go with it
// through ON DELETE CASCADE.
func (r *pgProblemRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Delete rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE id = $1`

	p := &model.Problem{}
	var docs problemDocs
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty,
		&docs.tags, &docs.visible, &docs.hidden, &docs.start, &docs.reference, &docs.driver,
		&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindByID: %w", err)
	}

	fields := []struct {
		src []byte
		dst any
	}{
		{docs.tags, &p.Tags},
		{docs.visible, &p.VisibleTestCases},
		{docs.hidden, &p.HiddenTestCases},
		{docs.start, &p.StartCode},
		{docs.reference, &p.ReferenceSolution},
		{docs.driver, &p.DriverCode},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.FindByID decode: %w", err)
		}
	}
	return p, nil
}

func (r *pgProblemRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	var err error
	if excludeID == "" {
		err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM problems WHERE slug = $1)`, slug).Scan(&exists)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM problems WHERE slug = $1 AND id <> $2)`, slug, excludeID).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("pgProblemRepository.SlugExists: %w", err)
	}
	return exists, nil
}

func (r *pgProblemRepository) List(ctx context.Context, filter model.ProblemFilter) ([]model.ProblemSummary, int, error) {
	filter = filter.Normalize()

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, filter.Difficulty)
		argID++
	}
	if filter.Tag != "" {
		tagDoc, err := json.Marshal([]string{filter.Tag})
		if err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.List tag: %w", err)
		}
		conditions = append(conditions, fmt.Sprintf("tags @> $%d::jsonb", argID))
		args = append(args, string(tagDoc))
		argID++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`(title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, argID, argID))
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List count: %w", err)
	}

	query := `SELECT id, title, slug, difficulty, tags FROM problems` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List query: %w", err)
	}
	defer rows.Close()

	problems, err := scanSummaries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) SolvedByUser(ctx context.Context, userID string) ([]model.ProblemSummary, error) {
	query := `SELECT p.id, p.title, p.slug, p.difficulty, p.tags
	          FROM user_solved_problems s
	          JOIN problems p ON p.id = s.problem_id
	          WHERE s.user_id = $1
	          ORDER BY s.solved_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.SolvedByUser query: %w", err)
	}
	defer rows.Close()

	problems, err := scanSummaries(rows)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.SolvedByUser: %w", err)
	}
	return problems, nil
}

func scanSummaries(rows *sql.Rows) ([]model.ProblemSummary, error) {
	problems := []model.ProblemSummary{}
	for rows.Next() {
		var p model.ProblemSummary
		var tags []byte
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Difficulty, &tags); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &p.Tags); err != nil {
				return nil, fmt.Errorf("decode tags: %w", err)
			}
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return problems, nil
}
