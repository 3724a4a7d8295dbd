package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/quizrunner/internal/db"
	"github.com/vytor/quizrunner/internal/logger"
	"github.com/vytor/quizrunner/internal/models"
	"github.com/vytor/quizrunner/internal/repository"
)

const defaultListLimit = 50

var attemptColumns = []string{
	"attempt_id", "session_id", "learner_id", "quiz_id", "subject", "topic",
	"correct", "wrong", "total", "percentage", "elapsed_seconds",
	"status", "submit_attempts", "last_error", "finished_at",
}

type attemptRepository struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
}

// NewAttemptRepository creates an AttemptRepository on SQLite or Postgres.
func NewAttemptRepository(d *db.DB) repository.AttemptRepository {
	return &attemptRepository{db: d.DB, builder: d.Builder()}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (models.AttemptRecord, error) {
	var a models.AttemptRecord
	err := row.Scan(&a.AttemptID, &a.SessionID, &a.LearnerID, &a.QuizID, &a.Subject, &a.Topic,
		&a.Correct, &a.Wrong, &a.Total, &a.Percentage, &a.ElapsedSeconds,
		&a.Status, &a.SubmitAttempts, &a.LastError, &a.FinishedAt)
	return a, err
}

func (r *attemptRepository) Insert(ctx context.Context, a models.AttemptRecord) error {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("inserting attempt: attempt_id=%s, quiz_id=%s, status=%s", a.AttemptID, a.QuizID, a.Status)

	query, args, err := r.builder.Insert("attempts").Columns(attemptColumns...).
		Values(a.AttemptID, a.SessionID, a.LearnerID, a.QuizID, a.Subject, a.Topic,
			a.Correct, a.Wrong, a.Total, a.Percentage, a.ElapsedSeconds,
			a.Status, a.SubmitAttempts, a.LastError, a.FinishedAt.UTC()).
		Suffix("ON CONFLICT (attempt_id) DO NOTHING").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert attempt: %v", err)
		return err
	}
	return nil
}

func (r *attemptRepository) Get(ctx context.Context, attemptID string) (*models.AttemptRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("getting attempt: attempt_id=%s", attemptID)

	query, args, err := r.builder.Select(attemptColumns...).From("attempts").
		Where(squirrel.Eq{"attempt_id": attemptID}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("attempt not found: attempt_id=%s", attemptID)
		} else {
			log.Error("failed to get attempt: %v", err)
		}
		return nil, err
	}
	return &a, nil
}

func applyAttemptFilter(q squirrel.SelectBuilder, filter models.AttemptFilter) squirrel.SelectBuilder {
	if filter.LearnerID != "" {
		q = q.Where(squirrel.Eq{"learner_id": filter.LearnerID})
	}
	if filter.QuizID != "" {
		q = q.Where(squirrel.Eq{"quiz_id": filter.QuizID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	return q
}

func (r *attemptRepository) List(ctx context.Context, filter models.AttemptFilter) ([]models.AttemptRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("listing attempts with filter: learner_id=%s, quiz_id=%s, status=%s",
		filter.LearnerID, filter.QuizID, filter.Status)

	query := applyAttemptFilter(r.builder.Select(attemptColumns...).From("attempts"), filter).
		OrderBy("finished_at DESC", "attempt_id")

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var attempts []models.AttemptRecord
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			log.Error("failed to scan attempt row: %v", err)
			return nil, err
		}
		attempts = append(attempts, a)
	}
	log.Debug("found %d attempts", len(attempts))
	return attempts, rows.Err()
}

func (r *attemptRepository) Count(ctx context.Context, filter models.AttemptFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")

	sqlStr, args, err := applyAttemptFilter(r.builder.Select("COUNT(*)").From("attempts"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count attempts: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *attemptRepository) Stats(ctx context.Context, learnerID string) (*models.AttemptStats, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo").WithField("learner_id", learnerID)
	log.Debug("computing attempt stats")

	sqlStr, args, err := r.builder.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN status = 'submitted' THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN status = 'lost' THEN 1 ELSE 0 END), 0)",
		"COALESCE(AVG(percentage), 0)",
		"COALESCE(AVG(elapsed_seconds), 0)",
	).From("attempts").Where(squirrel.Eq{"learner_id": learnerID}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	stats := &models.AttemptStats{BestPercentages: map[string]int{}}
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&stats.TotalAttempts, &stats.Submitted, &stats.Lost,
		&stats.AveragePercentage, &stats.AverageTimeSeconds,
	); err != nil {
		log.Error("failed to compute attempt totals: %v", err)
		return nil, err
	}

	sqlStr, args, err = r.builder.Select("quiz_id", "MAX(percentage)").From("attempts").
		Where(squirrel.Eq{"learner_id": learnerID}).GroupBy("quiz_id").ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to compute best percentages: %v", err)
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var quizID string
		var best int
		if err := rows.Scan(&quizID, &best); err != nil {
			log.Error("failed to scan best percentage row: %v", err)
			return nil, err
		}
		stats.BestPercentages[quizID] = best
	}
	return stats, rows.Err()
}
