package repository

import (
	"database/sql"

	"go-auth-api/logger"
	"go-auth-api/model"

	"github.com/lib/pq"
)

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (email, password, permissions, roles) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.DB.QueryRow(query, user.Email, user.Password, pq.Array(user.Permissions), pq.Array(user.Roles)).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		logger.Log.WithError(err).WithField("email", user.Email).Error("Failed to execute create user query")
		return err
	}
	return nil
}

// GetUserByEmail returns sql.ErrNoRows when no user matches.
func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := `SELECT id, email, password, permissions, roles, created_at FROM users WHERE email = $1`
	return r.scanUser(r.DB.QueryRow(query, email))
}

func (r *UserRepository) GetUserByID(id int) (*model.User, error) {
	query := `SELECT id, email, password, permissions, roles, created_at FROM users WHERE id = $1`
	return r.scanUser(r.DB.QueryRow(query, id))
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Password, pq.Array(&user.Permissions), pq.Array(&user.Roles), &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
