package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/service/promotion"
)

// ScheduleRepo implements promotion.ScheduleRepository against PostgreSQL.
type ScheduleRepo struct{ db *sql.DB }

// NewScheduleRepo creates a Postgres-backed schedule repository.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const scheduleColumns = `id, content_id, platform, schedule_type, start_time, end_time,
	       frequency, is_active, status, budget, target_metrics,
	       platform_specific_settings, recurrence_pattern, max_occurrences,
	       parent_schedule_id, timezone, completed_at, created_at, updated_at`

func scanSchedule(row interface {
	Scan(dest ...interface{}) error
}) (*domain.PromotionSchedule, error) {
	s := &domain.PromotionSchedule{}
	var endTime, completedAt sql.NullTime
	var maxOcc sql.NullInt64
	var parentID sql.NullString
	var targets, settings, recurrence []byte

	err := row.Scan(
		&s.ID, &s.ContentID, &s.Platform, &s.ScheduleType, &s.StartTime, &endTime,
		&s.Frequency, &s.IsActive, &s.Status, &s.Budget, &targets,
		&settings, &recurrence, &maxOcc,
		&parentID, &s.Timezone, &completedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	if maxOcc.Valid {
		n := int(maxOcc.Int64)
		s.MaxOccurrences = &n
	}
	if parentID.Valid {
		s.ParentScheduleID = &parentID.String
	}
	if len(targets) > 0 {
		if err := json.Unmarshal(targets, &s.TargetMetrics); err != nil {
			return nil, fmt.Errorf("decode target metrics: %w", err)
		}
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &s.PlatformSettings); err != nil {
			return nil, fmt.Errorf("decode platform settings: %w", err)
		}
	}
	if len(recurrence) > 0 {
		s.Recurrence = &domain.RecurrencePattern{}
		if err := json.Unmarshal(recurrence, s.Recurrence); err != nil {
			return nil, fmt.Errorf("decode recurrence pattern: %w", err)
		}
	}
	return s, nil
}

func (r *ScheduleRepo) Get(ctx context.Context, id string) (*domain.PromotionSchedule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM promotion_schedules WHERE id = $1`, id)
	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, promotion.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepo) Create(ctx context.Context, s *domain.PromotionSchedule) (string, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	targets, err := json.Marshal(s.TargetMetrics)
	if err != nil {
		return "", fmt.Errorf("encode target metrics: %w", err)
	}
	var settings []byte
	if s.PlatformSettings != nil {
		if settings, err = json.Marshal(s.PlatformSettings); err != nil {
			return "", fmt.Errorf("encode platform settings: %w", err)
		}
	}
	var recurrence []byte
	if s.Recurrence != nil {
		if recurrence, err = json.Marshal(s.Recurrence); err != nil {
			return "", fmt.Errorf("encode recurrence pattern: %w", err)
		}
	}

	var maxOcc sql.NullInt64
	if s.MaxOccurrences != nil {
		maxOcc = sql.NullInt64{Int64: int64(*s.MaxOccurrences), Valid: true}
	}
	var parentID sql.NullString
	if s.ParentScheduleID != nil {
		parentID = sql.NullString{String: *s.ParentScheduleID, Valid: true}
	}
	var endTime sql.NullTime
	if s.EndTime != nil {
		endTime = sql.NullTime{Time: *s.EndTime, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO promotion_schedules
			(id, content_id, platform, schedule_type, start_time, end_time,
			 frequency, is_active, status, budget, target_metrics,
			 platform_specific_settings, recurrence_pattern, max_occurrences,
			 parent_schedule_id, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`, s.ID, s.ContentID, s.Platform, s.ScheduleType, s.StartTime, endTime,
		s.Frequency, s.IsActive, s.Status, s.Budget, targets,
		settings, recurrence, maxOcc, parentID, s.Timezone)
	if err != nil {
		return "", fmt.Errorf("create schedule: %w", err)
	}
	return s.ID, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, id string, u promotion.UpdateFields) (*domain.PromotionSchedule, error) {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Platform != nil {
		add("platform", *u.Platform)
	}
	if u.StartTime != nil {
		add("start_time", *u.StartTime)
	}
	if u.EndTime != nil {
		add("end_time", *u.EndTime)
	}
	if u.Frequency != nil {
		add("frequency", *u.Frequency)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if u.Budget != nil {
		add("budget", *u.Budget)
	}
	if u.MaxOccurrences != nil {
		add("max_occurrences", *u.MaxOccurrences)
	}
	if u.Timezone != nil {
		add("timezone", *u.Timezone)
	}
	if u.TargetMetrics != nil {
		raw, err := json.Marshal(u.TargetMetrics)
		if err != nil {
			return nil, fmt.Errorf("encode target metrics: %w", err)
		}
		add("target_metrics", raw)
	}
	if u.PlatformSettings != nil {
		raw, err := json.Marshal(u.PlatformSettings)
		if err != nil {
			return nil, fmt.Errorf("encode platform settings: %w", err)
		}
		add("platform_specific_settings", raw)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = NOW()")
		q := fmt.Sprintf("UPDATE promotion_schedules SET %s WHERE id = $%d",
			joinComma(sets), idx)
		args = append(args, id)

		res, err := r.db.ExecContext(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("update schedule: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return nil, promotion.ErrScheduleNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *ScheduleRepo) DeleteWithChildren(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM promotion_schedules WHERE parent_schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete child schedules: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM promotion_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return promotion.ErrScheduleNotFound
	}
	return tx.Commit()
}

func (r *ScheduleRepo) ListByContent(ctx context.Context, contentID string) ([]domain.PromotionSchedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM promotion_schedules
		 WHERE content_id = $1 ORDER BY start_time ASC`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list schedules by content: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *ScheduleRepo) ListActiveDue(ctx context.Context, now time.Time) ([]domain.PromotionSchedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM promotion_schedules
		 WHERE is_active = true AND end_time IS NOT NULL AND end_time <= $1
		 ORDER BY end_time ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *ScheduleRepo) ListActiveStarted(ctx context.Context, now time.Time, f promotion.ActiveFilter) ([]domain.PromotionSchedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM promotion_schedules
	      WHERE is_active = true AND start_time <= $1`
	args := []interface{}{now}
	idx := 2

	if f.Platform != "" {
		q += fmt.Sprintf(" AND platform = $%d", idx)
		args = append(args, f.Platform)
		idx++
	}
	if f.MinBudget != nil {
		q += fmt.Sprintf(" AND budget >= $%d", idx)
		args = append(args, *f.MinBudget)
		idx++
	}
	if f.MaxBudget != nil {
		q += fmt.Sprintf(" AND budget <= $%d", idx)
		args = append(args, *f.MaxBudget)
		idx++
	}
	q += " ORDER BY start_time ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *ScheduleRepo) CountOccurrences(ctx context.Context, scheduleID string) (int, error) {
	var children int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM promotion_schedules WHERE parent_schedule_id = $1`,
		scheduleID).Scan(&children)
	if err != nil {
		return 0, fmt.Errorf("count occurrences: %w", err)
	}
	return 1 + children, nil
}

func (r *ScheduleRepo) CompleteBatch(ctx context.Context, ids []string, completedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete batch: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE promotion_schedules
		SET is_active = false, status = 'completed', completed_at = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`, completedAt, pq.Array(ids)); err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	return tx.Commit()
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func collectSchedules(rows *sql.Rows) ([]domain.PromotionSchedule, error) {
	var out []domain.PromotionSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return out, nil
}
