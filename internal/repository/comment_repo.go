package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/JavaNood/record-log/internal/database"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/lib/pq"
)

const commentColumns = `id, article_id, parent_id, content, nickname, status,
	is_private, ip_address, location, created_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment and refreshes the owning article's
// approved-comment counter in the same transaction
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO comments (article_id, parent_id, content, nickname, status,
			is_private, ip_address, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id int64
	err = tx.QueryRowContext(ctx, query,
		comment.ArticleID, comment.ParentID, comment.Content, comment.Nickname,
		comment.Status, comment.IsPrivate, comment.IPAddress, comment.Location,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := recountComments(ctx, tx, comment.ArticleID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := fmt.Sprintf("SELECT %s FROM comments WHERE id = $1", commentColumns)

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Approve flips a pending comment to approved. The status guard in the
// UPDATE makes repeated approvals a no-op, so the counter can never be
// bumped twice for one comment.
func (r *commentRepo) Approve(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, id,
		"UPDATE comments SET status = 'approved' WHERE id = $1 AND status = 'pending' RETURNING article_id")
}

// Reject moves a pending or approved comment to rejected
func (r *commentRepo) Reject(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, id,
		"UPDATE comments SET status = 'rejected' WHERE id = $1 AND status IN ('pending', 'approved') RETURNING article_id")
}

// Delete removes the comment from any state
func (r *commentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return r.transition(ctx, id,
		"DELETE FROM comments WHERE id = $1 RETURNING article_id")
}

// transition runs a guarded status mutation and recomputes the owning
// article's counter inside one transaction. Returns false when the
// guard matched no row.
func (r *commentRepo) transition(ctx context.Context, id int64, query string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var articleID int64
	err = tx.QueryRowContext(ctx, query, id).Scan(&articleID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := recountComments(ctx, tx, articleID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// recountComments derives comments_count from durable rows rather than
// applying a blind increment, so concurrent transitions on the same
// article converge on the true approved count.
func recountComments(ctx context.Context, tx *sql.Tx, articleID int64) error {
	query := `
		UPDATE articles
		SET comments_count = (
			SELECT COUNT(*) FROM comments
			WHERE article_id = $1 AND status = 'approved'
		)
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, articleID)
	return err
}

// ListRoots retrieves root comments for an article, newest first, with
// the total root count for pagination. publicOnly hides private and
// unapproved comments.
func (r *commentRepo) ListRoots(ctx context.Context, articleID int64, publicOnly bool, page, perPage int) ([]*models.Comment, int, error) {
	visibility := ""
	if publicOnly {
		visibility = "AND status = 'approved' AND is_private = false"
	}

	var total int
	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM comments WHERE article_id = $1 AND parent_id IS NULL %s", visibility)
	if err := r.db.QueryRowContext(ctx, countQuery, articleID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM comments WHERE article_id = $1 AND parent_id IS NULL %s ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		commentColumns, visibility,
	)
	rows, err := r.db.QueryContext(ctx, query, articleID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListReplies retrieves all replies under the given root comments,
// oldest first (chronological reading order). Replies are never
// paginated independently.
func (r *commentRepo) ListReplies(ctx context.Context, rootIDs []int64, publicOnly bool) ([]*models.Comment, error) {
	if len(rootIDs) == 0 {
		return nil, nil
	}

	visibility := ""
	if publicOnly {
		visibility = "AND status = 'approved' AND is_private = false"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM comments WHERE parent_id = ANY($1) %s ORDER BY created_at ASC",
		commentColumns, visibility,
	)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(rootIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanComments(rows)
}

// ListAdmin retrieves comments across all articles for the moderation
// console, newest first, optionally filtered by status
func (r *commentRepo) ListAdmin(ctx context.Context, status models.CommentStatus, page, perPage int) ([]*models.Comment, int, error) {
	filter := ""
	args := []interface{}{perPage, (page - 1) * perPage}
	countQuery := "SELECT COUNT(*) FROM comments"
	var countArgs []interface{}
	if status != "" {
		args = append(args, status)
		filter = "WHERE status = $3"
		countQuery = "SELECT COUNT(*) FROM comments WHERE status = $1"
		countArgs = []interface{}{status}
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM comments %s ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		commentColumns, filter,
	)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// CountByStatus returns the number of comments in the given state
// across all articles. The admin pending badge reads this live query,
// never the cached per-article counter.
func (r *commentRepo) CountByStatus(ctx context.Context, status models.CommentStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE status = $1", status).Scan(&count)
	return count, err
}

// CountApproved returns the live approved-comment count for an article
func (r *commentRepo) CountApproved(ctx context.Context, articleID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE article_id = $1 AND status = 'approved'",
		articleID).Scan(&count)
	return count, err
}

func scanComment(scan func(...interface{}) error) (*models.Comment, error) {
	var c models.Comment
	var parentID sql.NullInt64
	var nickname, ip, location sql.NullString
	err := scan(
		&c.ID, &c.ArticleID, &parentID, &c.Content, &nickname, &c.Status,
		&c.IsPrivate, &ip, &location, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}
	c.Nickname = nickname.String
	c.IPAddress = ip.String
	c.Location = location.String
	return &c, nil
}

func scanComments(rows *sql.Rows) ([]*models.Comment, error) {
	var comments []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
