package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
)

// statsWindow bounds the daily activity series.
const statsWindow = 365 * 24 * time.Hour

type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	// SaveVerdict stores the judged fields. An accepted verdict also records
	// the problem as solved for the user, at most once.
	SaveVerdict(ctx context.Context, sub *model.Submission) error
	ListForUser(ctx context.Context, userID, problemID string) ([]model.Submission, error)
	Stats(ctx context.Context, userID string) (*model.SubmissionStats, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, user_id, problem_id, code, language, status, runtime, memory, error_message,
	test_cases_passed, test_cases_total, test_results, created_at, updated_at`

func (r *pgSubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	results, err := json.Marshal(nonNil(s.TestResults))
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create encode: %w", err)
	}
	query := `INSERT INTO submissions (id, user_id, problem_id, code, language, status, runtime, memory,
	              error_message, test_cases_passed, test_cases_total, test_results)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.Code, s.Language, s.Status, s.Runtime, s.Memory,
		s.ErrorMessage, s.TestCasesPassed, s.TestCasesTotal, string(results),
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) SaveVerdict(ctx context.Context, s *model.Submission) error {
	results, err := json.Marshal(nonNil(s.TestResults))
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.SaveVerdict encode: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.SaveVerdict begin: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE submissions SET
	              status = $1, runtime = $2, memory = $3, error_message = $4,
	              test_cases_passed = $5, test_cases_total = $6, test_results = $7,
	              updated_at = CURRENT_TIMESTAMP
	          WHERE id = $8
	          RETURNING updated_at`
	err = tx.QueryRowContext(ctx, query,
		s.Status, s.Runtime, s.Memory, s.ErrorMessage,
		s.TestCasesPassed, s.TestCasesTotal, string(results), s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgSubmissionRepository.SaveVerdict update: %w", err)
	}

	if s.Status == model.StatusAccepted {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_solved_problems (user_id, problem_id, submission_id)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, problem_id) DO NOTHING`,
			s.UserID, s.ProblemID, s.ID)
		if err != nil {
			return fmt.Errorf("pgSubmissionRepository.SaveVerdict solved: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgSubmissionRepository.SaveVerdict commit: %w", err)
	}
	return nil
}

// ListForUser returns newest first. An empty problemID lists everything.
func (r *pgSubmissionRepository) ListForUser(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	var rows *sql.Rows
	var err error
	if problemID == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+submissionColumns+` FROM submissions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+submissionColumns+` FROM submissions WHERE user_id = $1 AND problem_id = $2 ORDER BY created_at DESC`,
			userID, problemID)
	}
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListForUser query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListForUser scan: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListForUser rows.Err: %w", err)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) Stats(ctx context.Context, userID string) (*model.SubmissionStats, error) {
	stats := &model.SubmissionStats{
		ByStatus:           map[string]int{},
		SolvedByDifficulty: map[string]int{},
		Daily:              []model.DailySubmissionCount{},
	}

	if err := r.countInto(ctx, stats.ByStatus,
		`SELECT status, COUNT(*) FROM submissions WHERE user_id = $1 GROUP BY status`, userID); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.Stats by status: %w", err)
	}
	for _, n := range stats.ByStatus {
		stats.TotalSubmissions += n
	}

	if err := r.countInto(ctx, stats.SolvedByDifficulty,
		`SELECT p.difficulty, COUNT(*)
		 FROM user_solved_problems s JOIN problems p ON p.id = s.problem_id
		 WHERE s.user_id = $1 GROUP BY p.difficulty`, userID); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.Stats solved: %w", err)
	}
	for _, n := range stats.SolvedByDifficulty {
		stats.SolvedTotal += n
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
		 FROM submissions
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY day ORDER BY day`,
		userID, time.Now().UTC().Add(-statsWindow))
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.Stats daily: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d model.DailySubmissionCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.Stats daily scan: %w", err)
		}
		stats.Daily = append(stats.Daily, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.Stats daily rows.Err: %w", err)
	}
	return stats, nil
}

func (r *pgSubmissionRepository) countInto(ctx context.Context, dst map[string]int, query string, args ...interface{}) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = n
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	s := &model.Submission{}
	var results []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.ProblemID, &s.Code, &s.Language, &s.Status, &s.Runtime, &s.Memory,
		&s.ErrorMessage, &s.TestCasesPassed, &s.TestCasesTotal, &results, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &s.TestResults); err != nil {
			return nil, fmt.Errorf("decode test results: %w", err)
		}
	}
	return s, nil
}
