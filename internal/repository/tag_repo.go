package repository

import (
	"context"
	"database/sql"

	"github.com/JavaNood/record-log/internal/database"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/lib/pq"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

// List retrieves all tags ordered by name, with published-article counts
func (r *tagRepo) List(ctx context.Context) ([]models.Tag, error) {
	query := `
		SELECT t.id, t.name, t.color, t.created_at,
			COUNT(a.id) FILTER (WHERE a.status = 'published')
		FROM tags t
		LEFT JOIN article_tags at ON at.tag_id = t.id
		LEFT JOIN articles a ON a.id = at.article_id
		GROUP BY t.id
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.ArticleCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Create inserts a new tag
func (r *tagRepo) Create(ctx context.Context, name, color string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO tags (name, color) VALUES ($1, $2) RETURNING id",
		name, color).Scan(&id)
	return id, err
}

// Delete removes a tag and its article links
func (r *tagRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM article_tags WHERE tag_id = $1", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = $1", id)
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

// ReplaceForArticle rewrites an article's tag links
func (r *tagRepo) ReplaceForArticle(ctx context.Context, articleID int64, tagIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM article_tags WHERE article_id = $1", articleID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			articleID, tagID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ForArticles retrieves the tags of each of the given articles
func (r *tagRepo) ForArticles(ctx context.Context, articleIDs []int64) (map[int64][]models.Tag, error) {
	if len(articleIDs) == 0 {
		return map[int64][]models.Tag{}, nil
	}

	query := `
		SELECT at.article_id, t.id, t.name, t.color, t.created_at
		FROM article_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(articleIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]models.Tag)
	for rows.Next() {
		var articleID int64
		var t models.Tag
		if err := rows.Scan(&articleID, &t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		result[articleID] = append(result[articleID], t)
	}
	return result, rows.Err()
}
