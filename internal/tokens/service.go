package tokens

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/db"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Limit is the per-user token quota over a rolling 30-day window.
const Limit = 10000

const window = 30 * 24 * time.Hour

// Entry is one usage log row.
type Entry struct {
	UserID      uuid.UUID
	WorkspaceID *uuid.UUID
	TokensUsed  int
	UsageType   string
	DocumentID  *uuid.UUID
}

// Service tracks per-user token consumption.
type Service struct {
	DB db.Querier
}

// TotalLast30Days sums the user's logged token usage over the window.
func (s *Service) TotalLast30Days(ctx context.Context, userID uuid.UUID) (int, error) {
	query, args, err := qb.Select("COALESCE(SUM(tokens_used), 0)").
		From("token_usage_logs").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Gt{"created_at": time.Now().Add(-window)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		logrus.WithError(err).Error("service: failed to sum token usage")
		return 0, err
	}
	return total, nil
}

// LimitExceeded reports whether the user has used up the quota. Checked
// before any model call is made.
func (s *Service) LimitExceeded(ctx context.Context, userID uuid.UUID) (bool, error) {
	total, err := s.TotalLast30Days(ctx, userID)
	if err != nil {
		return false, err
	}
	exceeded := total >= Limit
	if exceeded {
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,
			"tokens_used": total,
		}).Warn("service: token limit exceeded")
	}
	return exceeded, nil
}

// Log records one usage entry.
func (s *Service) Log(ctx context.Context, entry Entry) error {
	query, args, err := qb.Insert("token_usage_logs").
		Columns("user_id", "workspace_id", "tokens_used", "usage_type", "document_id").
		Values(entry.UserID, entry.WorkspaceID, entry.TokensUsed, entry.UsageType, entry.DocumentID).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.DB.Exec(ctx, query, args...); err != nil {
		logrus.WithError(err).Error("service: failed to log token usage")
		return err
	}
	return nil
}
