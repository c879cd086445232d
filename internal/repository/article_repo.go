package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/JavaNood/record-log/internal/database"
	"github.com/JavaNood/record-log/internal/models"
)

const articleColumns = `id, title, content, summary, author, status, permission,
	verify_question, verify_answer, allow_comments, is_top, view_count,
	like_count, comments_count, created_at, updated_at`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) (int64, error) {
	query := `
		INSERT INTO articles (title, content, summary, author, status, permission,
			verify_question, verify_answer, allow_comments, is_top, view_count,
			like_count, comments_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)
		RETURNING id
	`
	now := time.Now()
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		article.Title, article.Content, article.Summary, article.Author,
		article.Status, article.Permission, article.VerifyQuestion, article.VerifyAnswer,
		article.AllowComments, article.IsTop, article.ViewCount, article.LikeCount,
		now, now,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update modifies an existing article
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles
		SET title = $2, content = $3, summary = $4, author = $5, status = $6,
			permission = $7, verify_question = $8, verify_answer = $9,
			allow_comments = $10, is_top = $11, updated_at = $12
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Content, article.Summary, article.Author,
		article.Status, article.Permission, article.VerifyQuestion, article.VerifyAnswer,
		article.AllowComments, article.IsTop, time.Now(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an article together with its comments and tag links.
// The comments FK also cascades, but the deletes are explicit so the
// whole removal is one visible transaction.
func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE article_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM article_tags WHERE article_id = $1", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// GetByID retrieves an article by ID regardless of status
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE id = $1", articleColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetPublished retrieves a published article by ID
func (r *articleRepo) GetPublished(ctx context.Context, id int64) (*models.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE id = $1 AND status = 'published'", articleColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves published articles matching the query, pinned first
// then newest, with the total match count for pagination
func (r *articleRepo) List(ctx context.Context, q ArticleQuery) ([]*models.Article, int, error) {
	where := []string{"a.status = 'published'"}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.TitleLike != "" {
		where = append(where, fmt.Sprintf("a.title ILIKE '%%' || %s || '%%'", arg(q.TitleLike)))
	}
	if q.Start != nil {
		where = append(where, fmt.Sprintf("a.created_at >= %s", arg(*q.Start)))
	}
	if q.End != nil {
		where = append(where, fmt.Sprintf("a.created_at < %s", arg(*q.End)))
	}
	if q.Permission != "" {
		where = append(where, fmt.Sprintf("a.permission = %s", arg(q.Permission)))
	}

	join := ""
	if q.Tag != "" {
		join = "JOIN article_tags at ON at.article_id = a.id JOIN tags t ON t.id = at.tag_id"
		where = append(where, fmt.Sprintf("t.name = %s", arg(q.Tag)))
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT a.id) FROM articles a %s WHERE %s", join, clause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	cols := prefixColumns("a")
	listQuery := fmt.Sprintf(
		"SELECT DISTINCT %s FROM articles a %s WHERE %s ORDER BY a.is_top DESC, a.created_at DESC LIMIT %s OFFSET %s",
		cols, join, clause, arg(q.PerPage), arg((q.Page-1)*q.PerPage),
	)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles, err := r.scanRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ListAdmin retrieves all articles for the moderation console, pinned
// first then most recently updated
func (r *articleRepo) ListAdmin(ctx context.Context, page, perPage int) ([]*models.Article, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM articles ORDER BY is_top DESC, updated_at DESC LIMIT $1 OFFSET $2",
		articleColumns,
	)
	rows, err := r.db.QueryContext(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles, err := r.scanRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// Top retrieves the most-viewed published articles
func (r *articleRepo) Top(ctx context.Context, limit int) ([]*models.Article, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM articles WHERE status = 'published' ORDER BY view_count DESC LIMIT $1",
		articleColumns,
	)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// IncrementViewCount bumps the view counter by one
func (r *articleRepo) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE articles SET view_count = view_count + 1 WHERE id = $1", id)
	return err
}

// AdjustLikeCount shifts the like counter, clamped at zero
func (r *articleRepo) AdjustLikeCount(ctx context.Context, id int64, delta int) error {
	query := "UPDATE articles SET like_count = GREATEST(like_count + $2, 0) WHERE id = $1"
	_, err := r.db.ExecContext(ctx, query, id, delta)
	return err
}

func (r *articleRepo) scanOne(row *sql.Row) (*models.Article, error) {
	article, err := scanArticle(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (r *articleRepo) scanRows(rows *sql.Rows) ([]*models.Article, error) {
	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func scanArticle(scan func(...interface{}) error) (*models.Article, error) {
	var a models.Article
	var summary, author, question, answer sql.NullString
	err := scan(
		&a.ID, &a.Title, &a.Content, &summary, &author, &a.Status, &a.Permission,
		&question, &answer, &a.AllowComments, &a.IsTop, &a.ViewCount,
		&a.LikeCount, &a.CommentsCount, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Summary = summary.String
	a.Author = author.String
	a.VerifyQuestion = question.String
	a.VerifyAnswer = answer.String
	return &a, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(articleColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
