package campgrounds

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "name", "price", "description", "location", "lat", "lng", "image_url", "image_id",
	"author_id", "author_username", "created_at"}

var created = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleRows() *sqlmock.Rows {
	return sqlmock.NewRows(columns).
		AddRow("c-2", "Lake Site", "12.50", "quiet", "Lake Tahoe, CA", 39.09, -120.03, "http://img/2.jpg", "k2", "u-1", "alice", created).
		AddRow("c-1", "Salmon Creek", "9", "fish", "Salmon Creek, WA", 45.71, -122.65, "http://img/1.jpg", "k1", "u-2", "bob", created.Add(-time.Hour))
}

func TestList_All(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,.*FROM\s+campgrounds\s+ORDER\s+BY\s+created_at\s+DESC,\s*id$`).
		WithArgs().
		WillReturnRows(sampleRows())

	got, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, &models.Campground{
		ID: "c-2", Name: "Lake Site", Price: "12.50", Description: "quiet", Location: "Lake Tahoe, CA",
		Lat: 39.09, Lng: -120.03, ImageURL: "http://img/2.jpg", ImageID: "k2",
		Author: models.Author{ID: "u-1", Username: "alice"}, CreatedAt: created,
	}, got[0])
	assert.Equal(t, "bob", got[1].Author.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_SearchIsLiteral(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// The search text travels as a bind parameter to strpos, so pattern
	// characters reach the database untouched.
	mock.ExpectQuery(`(?s)FROM\s+campgrounds\s+WHERE\s+strpos\(lower\(name\),\s*lower\(\$1\)\)\s*>\s*0\s+ORDER\s+BY`).
		WithArgs("a.b*").
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background(), "a.b*")
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+campgrounds`).WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), "")
	if err == nil || !regexp.MustCompile(`failed to select campgrounds: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByAuthor(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+campgrounds\s+WHERE\s+author_id\s*=\s*\$1\s+ORDER\s+BY`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("c-2", "Lake Site", "", "", "", 0.0, 0.0, "", "", "u-1", "alice", created))

	got, err := repo.ListByAuthor(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c-2", got[0].ID)
}

func TestGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`(?s)FROM\s+campgrounds\s+WHERE\s+id\s*=\s*\$1$`).
			WithArgs("c-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("c-1", "Salmon Creek", "9", "fish", "WA", 1.5, 2.5, "u", "k1", "u-2", "bob", created))

		got, err := repo.GetByID(context.Background(), "c-1")
		require.NoError(t, err)
		assert.Equal(t, "Salmon Creek", got.Name)
		assert.Equal(t, 2.5, got.Lng)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`FROM\s+campgrounds`).WithArgs("c-404").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "c-404")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`FROM\s+campgrounds`).WillReturnError(errors.New("boom"))

		_, err := repo.GetByID(context.Background(), "c-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
		assert.Contains(t, err.Error(), "db error: boom")
	})
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+campgrounds\s*\(name,.*author_username\)\s*VALUES\s*\(\$1,.*\$10\)\s*RETURNING\s+id,\s*created_at$`).
		WithArgs("Lake Site", "12", "quiet", "Lake Tahoe, CA", 39.0, -120.0, "http://img/k", "k", "u-1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("c-9", created))

	c := &models.Campground{Name: "Lake Site", Price: "12", Description: "quiet", Location: "Lake Tahoe, CA",
		Lat: 39.0, Lng: -120.0, ImageURL: "http://img/k", ImageID: "k", Author: models.Author{ID: "u-1", Username: "alice"}}

	got, err := repo.Create(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "c-9", got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+campgrounds`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Campground{Name: "x"})
	if err == nil || !regexp.MustCompile(`db error: .*fk violation`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"updated", 1, nil},
		{"missing", 0, common.ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectExec(`(?s)^UPDATE\s+campgrounds\s+SET\s+name\s*=\s*\$2,.*image_id\s*=\s*\$9\s+WHERE\s+id\s*=\s*\$1$`).
				WithArgs("c-1", "New", "5", "d", "loc", 1.0, 2.0, "url", "key").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.Update(context.Background(), &models.Campground{ID: "c-1", Name: "New", Price: "5",
				Description: "d", Location: "loc", Lat: 1.0, Lng: 2.0, ImageURL: "url", ImageID: "key"})
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+campgrounds\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE\s+FROM\s+campgrounds`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE\s+FROM\s+campgrounds`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "c-1"), common.ErrorNotFound)
	assert.EqualError(t, repo.Delete(context.Background(), "c-1"), "unexpected rows affected: 2")
}
