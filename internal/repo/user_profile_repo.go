package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/yirikai/yirikai/internal/model"
	"github.com/yirikai/yirikai/internal/pkg/dbutil"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

type UserProfileRepo struct {
	db *sql.DB
}

func NewUserProfileRepo(db *sql.DB) *UserProfileRepo {
	return &UserProfileRepo{db: db}
}

func (r *UserProfileRepo) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	const query = `
		SELECT user_id, role, daily_query_count, COALESCE(TO_CHAR(last_query_date, 'YYYY-MM-DD'), '')
		FROM user_profiles
		WHERE user_id = $1
	`
	var p model.UserProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Role, &p.DailyQueryCount, &p.LastQueryDate)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *UserProfileRepo) SetRole(ctx context.Context, userID, role string) error {
	const query = `
		INSERT INTO user_profiles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role
	`
	_, err := r.db.ExecContext(ctx, query, userID, role)
	return err
}

// QueryCount returns the number of queries the user made on day (YYYY-MM-DD).
func (r *UserProfileRepo) QueryCount(ctx context.Context, userID, day string) (int, error) {
	p, err := r.Get(ctx, userID)
	if appErr.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if p.LastQueryDate != day {
		return 0, nil
	}
	return p.DailyQueryCount, nil
}

// IncrQueryCount bumps the counter for day, restarting it when the stored
// date is older, and returns the new value.
func (r *UserProfileRepo) IncrQueryCount(ctx context.Context, userID, day string) (int, error) {
	const query = `
		INSERT INTO user_profiles (user_id, daily_query_count, last_query_date)
		VALUES ($1, 1, $2::date)
		ON CONFLICT (user_id) DO UPDATE SET
			daily_query_count = CASE
				WHEN user_profiles.last_query_date = $2::date THEN user_profiles.daily_query_count + 1
				ELSE 1
			END,
			last_query_date = $2::date
		RETURNING daily_query_count
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, day).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserProfileRepo) ResetQueryCount(ctx context.Context, userID string) error {
	sqlStr, args, err := builder.BuildUpdate("user_profiles", map[string]interface{}{"user_id": userID}, map[string]interface{}{"daily_query_count": 0})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
