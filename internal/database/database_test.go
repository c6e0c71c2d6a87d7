package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"kasinoforum/internal/config"
	"kasinoforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	dsn := DSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "forum", DBPassword: "pw", DBName: "kf"})
	assert.Equal(t, "host=db port=5432 user=forum password=pw dbname=kf sslmode=disable", dsn)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Report{}, PendingReportIndex))
	assert.False(t, db.Migrator().HasColumn(&models.Thread{}, "post_count"))
}

func TestMigrate_PendingReportIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(context.Background(), db))

	require.NoError(t, db.Create(&models.Report{Reason: "spam", PostID: 1, UserID: 1}).Error)
	err := db.Create(&models.Report{Reason: "spam igen", PostID: 1, UserID: 1}).Error
	require.Error(t, err)

	require.NoError(t, db.Model(&models.Report{}).Where("id = ?", 1).Update("status", models.ReportResolved).Error)
	assert.NoError(t, db.Create(&models.Report{Reason: "spam igen", PostID: 1, UserID: 1}).Error)
}

func TestBackfillFirstPosts(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, db.Exec("ALTER TABLE threads ADD COLUMN content text").Error)

	author := models.User{ExternalID: "legacy-1", Username: "gammal", Role: models.RoleUser}
	require.NoError(t, db.Create(&author).Error)
	cat := models.ForumCategory{Slug: "slots", Name: "Slots"}
	require.NoError(t, db.Create(&cat).Error)

	created := time.Now().Add(-48 * time.Hour).UTC()
	insert := "INSERT INTO threads (title, slug, category_id, author_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	require.NoError(t, db.Exec(insert, "Gammal tråd", "gammal-trad", cat.ID, author.ID, "<p>Hej från förr</p><script>x</script>", created, created).Error)
	require.NoError(t, db.Exec(insert, "Tom tråd", "tom-trad", cat.ID, author.ID, "", created, created).Error)
	require.NoError(t, db.Exec(insert, "Har inlägg", "har-inlagg", cat.ID, author.ID, "ignoreras", created, created).Error)

	var withPost models.Thread
	require.NoError(t, db.Where("slug = ?", "har-inlagg").First(&withPost).Error)
	require.NoError(t, db.Create(&models.Post{Content: "<p>redan här</p>", AuthorID: author.ID, ThreadID: withPost.ID}).Error)

	res, err := BackfillFirstPosts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, res.PostsCreated)
	assert.Equal(t, 3, res.PointersRepaired)
	assert.True(t, res.ColumnDropped)
	assert.False(t, db.Migrator().HasColumn(&models.Thread{}, "content"))

	var posts []models.Post
	require.NoError(t, db.Order("thread_id").Find(&posts).Error)
	require.Len(t, posts, 3)
	bodies := make([]string, 0, len(posts))
	for _, p := range posts {
		bodies = append(bodies, p.Content)
	}
	joined := strings.Join(bodies, "|")
	assert.Contains(t, joined, "Hej från förr")
	assert.NotContains(t, joined, "script")
	assert.Contains(t, joined, MissingContentPlaceholder)
	assert.NotContains(t, joined, "ignoreras")

	var threads []models.Thread
	require.NoError(t, db.Find(&threads).Error)
	for _, th := range threads {
		require.NotNil(t, th.LastPostID, th.Slug)
		require.NotNil(t, th.LastPostByID)
		assert.Equal(t, author.ID, *th.LastPostByID)
	}

	again, err := BackfillFirstPosts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{}, again)
}

func TestUpgrade_LegacyStoreWithoutPointerColumns(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, db.Exec("ALTER TABLE threads DROP COLUMN last_post_id").Error)
	require.NoError(t, db.Exec("ALTER TABLE threads ADD COLUMN content text").Error)
	require.False(t, db.Migrator().HasColumn(&models.Thread{}, "last_post_id"))

	author := models.User{ExternalID: "legacy-2", Username: "gammal", Role: models.RoleUser}
	require.NoError(t, db.Create(&author).Error)
	cat := models.ForumCategory{Slug: "poker", Name: "Poker"}
	require.NoError(t, db.Create(&cat).Error)
	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		"INSERT INTO threads (title, slug, category_id, author_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"Gammal pokertråd", "gammal-pokertrad", cat.ID, author.ID, "<p>Full house</p>", now, now).Error)

	_, err := BackfillFirstPosts(ctx, db)
	require.Error(t, err)
	assert.True(t, db.Migrator().HasColumn(&models.Thread{}, "content"), "failed backfill rolls back")

	res, err := Upgrade(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{PostsCreated: 1, PointersRepaired: 1, ColumnDropped: true}, res)
	assert.False(t, db.Migrator().HasColumn(&models.Thread{}, "content"))

	var thread models.Thread
	require.NoError(t, db.First(&thread).Error)
	require.NotNil(t, thread.LastPostID)

	again, err := Upgrade(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{}, again)
}
