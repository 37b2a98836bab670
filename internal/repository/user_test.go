package repository

import (
	"context"
	"testing"

	"github.com/yyyyyan/wonderline-server/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var userCols = []string{
	"id", "name", "unique_name", "access_level", "avatar_src", "signature",
	"profile_lq_src", "profile_src", "create_time", "follower_nb", "push_token",
}

func userRow(mock pgxmock.PgxPoolIface, id, name string) *pgxmock.Rows {
	return mock.NewRows(userCols).AddRow(
		id, name, name, "everyone", "", "", "", "", int64(1000), 0, nil)
}

func TestUserGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("u1").
		WillReturnRows(userRow(mock, "u1", "Ann"))

	user, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.ID != "u1" || user.Name != "Ann" {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestUserGetByIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()
	repo := NewUserRepository(mock)

	rows := mock.NewRows(userCols).
		AddRow("u1", "Ann", "ann", "everyone", "", "", "", "", int64(1000), 0, nil).
		AddRow("u2", "Bob", "bob", "everyone", "", "", "", "", int64(2000), 0, nil)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ANY\\(\\$1\\) ORDER BY create_time ASC LIMIT 2 OFFSET \\$2").
		WithArgs([]string{"u1", "u2"}, 0).
		WillReturnRows(rows)

	nb := 2
	users, err := repo.GetByIDs(context.Background(), []string{"u1", "u2"}, "createTime", &nb, 0, false)
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(users) != 2 || users[0].ID != "u1" || users[1].ID != "u2" {
		t.Errorf("unexpected users: %+v", users)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUserGetByIDsEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()
	repo := NewUserRepository(mock)

	users, err := repo.GetByIDs(context.Background(), nil, "createTime", nil, 0, false)
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty result, got %+v", users)
	}
}

func TestUserSortColumnWhitelist(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"createTime", "create_time"},
		{"name", "name"},
		{"followerNb", "follower_nb"},
		{"; DROP TABLE users", "create_time"},
		{"", "create_time"},
	}
	for _, tt := range tests {
		if got := userSortColumn(tt.in); got != tt.want {
			t.Errorf("userSortColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserEmailExists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ann@example.com").
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Error("expected email to exist")
	}
}
