package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/storage/postgres/internal/adapters"
)

const (
	actionCreateUser     = "create-user"
	actionGetUser        = "get-user"
	actionUpdateUser     = "update-user"
	actionDeactivateUser = "deactivate-user"
	actionSeedUser       = "seed-user"

	colName           = "name"
	colEmail          = "email"
	colPasswordHash   = "password_hash"
	colCanCreateBooks = "can_create_books"
	colCanUpdateBooks = "can_update_books"
	colCanDeleteBooks = "can_delete_books"
	colCanUpdateUsers = "can_update_users"
	colCanDeleteUsers = "can_delete_users"
)

var userColumns = []any{
	"id", colName, colEmail, colPasswordHash, colIsActive,
	colCanCreateBooks, colCanUpdateBooks, colCanDeleteBooks,
	colCanUpdateUsers, colCanDeleteUsers,
	"created_at", colUpdatedAt,
}

// Create inserts a new active user with no permission flags set. A unique
// violation on the email column maps to domain.ErrEmailAlreadyInUse.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (domain.User, error) {
	var empty domain.User

	sqlQuery, _, toSQLErr := builder.
		Insert(tableUsers).
		Rows(goqu.Record{colName: name, colEmail: email, colPasswordHash: passwordHash}).
		Returning(userColumns...).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionCreateUser, sqlQuery)
	if queryErr != nil {
		if adapters.IsUniqueViolation(queryErr) {
			return empty, domain.ErrEmailAlreadyInUse
		}

		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanUser(rows)
}

// UserByEmail loads a user by email, active or not; the login path decides
// what a disabled user means.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var empty domain.User

	sqlQuery, _, toSQLErr := builder.
		From(tableUsers).
		Select(userColumns...).
		Where(goqu.C(colEmail).Eq(email)).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionGetUser, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanUser(rows)
}

// UserByID loads a user by id. Inactive users are invisible unless
// includeInactive is set.
func (s *Store) UserByID(ctx context.Context, userID int64, includeInactive bool) (domain.User, error) {
	var empty domain.User

	stmt := builder.
		From(tableUsers).
		Select(userColumns...).
		Where(goqu.C("id").Eq(userID))

	if !includeInactive {
		stmt = stmt.Where(goqu.C(colIsActive).IsTrue())
	}

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionGetUser, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanUser(rows)
}

// UpdateUser applies a partial update and bumps updated_at.
func (s *Store) UpdateUser(ctx context.Context, userID int64, update domain.UserUpdate) (domain.User, error) {
	var empty domain.User

	if update.IsEmpty() {
		return empty, domain.ErrNothingToUpdate
	}

	record := goqu.Record{colUpdatedAt: now()}
	if update.Name != nil {
		record[colName] = *update.Name
	}
	if update.PasswordHash != nil {
		record[colPasswordHash] = *update.PasswordHash
	}

	sqlQuery, _, toSQLErr := builder.
		Update(tableUsers).
		Set(record).
		Where(goqu.C("id").Eq(userID)).
		Returning(userColumns...).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionUpdateUser, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanUser(rows)
}

// DeactivateUser soft-deletes an active user.
func (s *Store) DeactivateUser(ctx context.Context, userID int64) (domain.User, error) {
	var empty domain.User

	sqlQuery, _, toSQLErr := builder.
		Update(tableUsers).
		Set(goqu.Record{colIsActive: false, colUpdatedAt: now()}).
		Where(
			goqu.C("id").Eq(userID),
			goqu.C(colIsActive).IsTrue(),
		).
		Returning(userColumns...).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionDeactivateUser, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanUser(rows)
}

// SeedUser inserts a fully-privileged user unless the email already exists.
// It returns true when a row was created.
func (s *Store) SeedUser(ctx context.Context, name, email, passwordHash string) (bool, error) {
	sqlQuery, _, toSQLErr := builder.
		Insert(tableUsers).
		Rows(goqu.Record{
			colName:           name,
			colEmail:          email,
			colPasswordHash:   passwordHash,
			colCanCreateBooks: true,
			colCanUpdateBooks: true,
			colCanDeleteBooks: true,
			colCanUpdateUsers: true,
			colCanDeleteUsers: true,
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if toSQLErr != nil {
		return false, s.buildErr(toSQLErr)
	}

	rowsAffected, execErr := s.exec(ctx, s.db, actionSeedUser, sqlQuery)
	if execErr != nil {
		return false, execErr
	}

	return rowsAffected == 1, nil
}

func (s *Store) scanUser(rows adapters.DBRows) (domain.User, error) {
	var empty domain.User

	if !rows.Next() {
		return empty, domain.ErrUserNotFound
	}

	var user domain.User
	scanErr := rows.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsActive,
		&user.CanCreateBooks, &user.CanUpdateBooks, &user.CanDeleteBooks,
		&user.CanUpdateUsers, &user.CanDeleteUsers,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if scanErr != nil {
		return empty, s.scanErr(scanErr)
	}

	return user, nil
}
