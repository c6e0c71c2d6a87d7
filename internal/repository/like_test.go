package repository

import (
	"context"
	"regexp"
	"testing"

	"kasinoforum/internal/models"
	"kasinoforum/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plusOne(post *models.Post, liked bool) int {
	if liked {
		return 1
	}
	return -1
}

func TestLikeRepository_Toggle_LocksRowsOnPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "posts" WHERE "posts"."id" = \$1 .*FOR UPDATE`).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "thread_id"}).AddRow(10, 7, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "post_id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM "users" WHERE "users"."id" = \$1 .*FOR UPDATE`).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "reputation"=reputation + $1`)).
		WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE post_id = $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	out, err := repo.Toggle(context.Background(), 2, 10, plusOne)
	require.NoError(t, err)
	assert.True(t, out.Liked)
	assert.Equal(t, int64(1), out.LikeCount)
	assert.Equal(t, uint(7), out.AuthorID)
	assert.Equal(t, 1, out.ReputationDelta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Toggle_MissingPostRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "posts"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Toggle(context.Background(), 2, 404, plusOne)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Toggle_Symmetry(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, models.RoleUser)
	fan := testutil.CreateUser(t, db, models.RoleUser)
	_, post := testutil.CreateThread(t, db, testutil.CreateCategory(t, db), author)

	on, err := repo.Toggle(ctx, fan.ID, post.ID, plusOne)
	require.NoError(t, err)
	assert.True(t, on.Liked)
	assert.Equal(t, int64(1), on.LikeCount)
	assert.Equal(t, 1, testutil.Reputation(t, db, author.ID))

	off, err := repo.Toggle(ctx, fan.ID, post.ID, plusOne)
	require.NoError(t, err)
	assert.False(t, off.Liked)
	assert.Equal(t, int64(0), off.LikeCount)
	assert.Equal(t, 0, testutil.Reputation(t, db, author.ID))

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Zero(t, likes)
}

func TestLikeRepository_Toggle_ZeroDeltaLeavesReputation(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLikeRepository(db)

	author := testutil.CreateUser(t, db, models.RoleUser)
	_, post := testutil.CreateThread(t, db, testutil.CreateCategory(t, db), author)

	out, err := repo.Toggle(context.Background(), author.ID, post.ID, func(*models.Post, bool) int { return 0 })
	require.NoError(t, err)
	assert.True(t, out.Liked)
	assert.Zero(t, out.ReputationDelta)
	assert.Equal(t, 0, testutil.Reputation(t, db, author.ID))
}
