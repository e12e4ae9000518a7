package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/omule0/digest/internal/auth"
	"github.com/omule0/digest/internal/db"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// User is an account row.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an issued token pair.
type Session struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// Service handles accounts and sessions.
type Service struct {
	DB db.Querier
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*User, error) {
	log := logrus.WithField("email", email)
	log.Info("service: creating new user")

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("service: failed to hash password")
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	query, args, err := qb.Insert("users").
		Columns("email", "password_hash").
		Values(email, string(hash)).
		Suffix("RETURNING id, email, password_hash, created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	u := &User{}
	row := s.DB.QueryRow(ctx, query, args...)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			log.Warn("service: signup with existing email")
			return nil, fmt.Errorf("email already exists")
		}
		log.WithError(err).Error("service: failed to insert user")
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	log.WithField("user_id", u.ID).Info("service: user created successfully")
	return u, nil
}

type LoginRequest struct {
	Email    string
	Password string
}

// LoginUser checks credentials and opens a new session.
func (s *Service) LoginUser(ctx context.Context, req LoginRequest) (*Session, error) {
	log := logrus.WithField("email", req.Email)
	log.Debug("user login attempt")

	u, err := s.GetUserByEmail(ctx, req.Email)
	if err != nil {
		log.WithError(err).Warn("login: failed to find user")
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("login: invalid password provided")
		return nil, fmt.Errorf("invalid credentials")
	}

	return s.createSession(ctx, u.ID)
}

func (s *Service) createSession(ctx context.Context, userID uuid.UUID) (*Session, error) {
	log := logrus.WithField("user_id", userID)

	accessToken, err := auth.GenerateToken(userID, accessTokenTTL)
	if err != nil {
		log.WithError(err).Error("session: failed to generate access token")
		return nil, fmt.Errorf("could not process login: %w", err)
	}
	refreshToken, err := auth.GenerateRefreshToken(32)
	if err != nil {
		log.WithError(err).Error("session: failed to generate refresh token")
		return nil, fmt.Errorf("could not process login: %w", err)
	}

	query, args, err := qb.Insert("sessions").
		Columns("user_id", "access_token", "refresh_token", "expires_at").
		Values(userID, accessToken, refreshToken, time.Now().Add(refreshTokenTTL)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(refreshTokenTTL),
	}
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&sess.ID); err != nil {
		log.WithError(err).Error("session: failed to insert session")
		return nil, fmt.Errorf("could not process login: %w", err)
	}

	log.WithField("session_id", sess.ID).Info("session created successfully")
	return sess, nil
}

// RefreshSession rotates the token pair for a valid refresh token.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	query, args, err := qb.Select("user_id").
		From("sessions").
		Where(sq.Eq{"refresh_token": refreshToken, "revoked_at": nil}).
		Where(sq.Gt{"expires_at": time.Now()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var userID uuid.UUID
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logrus.Warn("refresh: unknown or revoked refresh token")
			return nil, fmt.Errorf("invalid refresh token")
		}
		logrus.WithError(err).Error("refresh: database error")
		return nil, err
	}

	// Revoke the old session before issuing a new pair.
	revoke, args, err := qb.Update("sessions").
		Set("revoked_at", time.Now()).
		Where(sq.Eq{"refresh_token": refreshToken}).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := s.DB.Exec(ctx, revoke, args...); err != nil {
		logrus.WithError(err).Error("refresh: failed to revoke old session")
		return nil, err
	}

	return s.createSession(ctx, userID)
}

// Logout revokes the session behind an access token.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	query, args, err := qb.Update("sessions").
		Set("revoked_at", time.Now()).
		Where(sq.Eq{"access_token": accessToken, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		logrus.WithError(err).Error("logout: failed to revoke session")
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}
	logrus.Info("session revoked successfully")
	return nil
}

// ValidateSession implements auth.SessionValidator.
func (s *Service) ValidateSession(ctx context.Context, accessToken string) error {
	query, args, err := qb.Select("revoked_at").
		From("sessions").
		Where(sq.Eq{"access_token": accessToken}).
		ToSql()
	if err != nil {
		return err
	}

	var revokedAt *time.Time
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&revokedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("session not found")
		}
		return err
	}
	if revokedAt != nil {
		return fmt.Errorf("session revoked")
	}
	return nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query, args, err := qb.Select("id", "email", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, err
	}

	u := &User{}
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query, args, err := qb.Select("id", "email", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	u := &User{}
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
