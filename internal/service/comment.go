package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JavaNood/record-log/internal/geo"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/repository"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	articles repository.ArticleRepository
	comments repository.CommentRepository
	resolver geo.Resolver
	pageSize int
	log      zerolog.Logger
}

func newCommentService(articles repository.ArticleRepository, comments repository.CommentRepository, resolver geo.Resolver, pageSize int, log zerolog.Logger) CommentService {
	return &commentService{
		articles: articles,
		comments: comments,
		resolver: resolver,
		pageSize: pageSize,
		log:      log.With().Str("component", "comments").Logger(),
	}
}

// Submit creates a pending comment from a public visitor
func (s *commentService) Submit(ctx context.Context, req SubmitRequest) (*models.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if n := utf8.RuneCountInString(content); n < models.MinCommentLength {
		return nil, Failf("comment content too short")
	} else if n > models.MaxCommentLength {
		return nil, Failf("comment content too long")
	}

	nickname := strings.TrimSpace(req.Nickname)
	if utf8.RuneCountInString(nickname) > models.MaxNicknameLength {
		return nil, Failf("nickname too long")
	}

	article, err := s.articles.GetPublished(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, Failf("article not found")
	}
	if !article.AllowComments {
		return nil, Failf("comments are closed for this article")
	}

	parentID, err := s.resolveParent(ctx, req.ArticleID, req.ParentID)
	if err != nil {
		return nil, err
	}

	// Best-effort location label. The resolver carries its own short
	// timeout and always answers, so submission never blocks on it.
	location := s.resolver.Lookup(ctx, req.IP)

	comment := &models.Comment{
		ArticleID: req.ArticleID,
		ParentID:  parentID,
		Content:   content,
		Nickname:  nickname,
		Status:    models.CommentPending,
		IsPrivate: req.IsPrivate,
		IPAddress: req.IP,
		Location:  location,
	}

	id, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = id

	s.log.Info().
		Int64("comment_id", id).
		Int64("article_id", req.ArticleID).
		Bool("is_reply", parentID != nil).
		Msg("Comment submitted for moderation")

	return comment, nil
}

// AdminReply creates an already-approved reply under the site owner's
// identity. It never passes through the pending state, and the owning
// article's counter reflects it as soon as the insert commits.
func (s *commentService) AdminReply(ctx context.Context, parentID int64, content string, isPrivate bool) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < models.MinCommentLength {
		return nil, Failf("comment content too short")
	} else if n > models.MaxCommentLength {
		return nil, Failf("comment content too long")
	}

	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, Failf("parent comment not found")
	}
	if parent.Status != models.CommentApproved {
		return nil, Failf("cannot reply to an unapproved comment")
	}

	rootID := parentID
	if parent.ParentID != nil {
		rootID = *parent.ParentID
	}

	comment := &models.Comment{
		ArticleID: parent.ArticleID,
		ParentID:  &rootID,
		Content:   content,
		Nickname:  models.AdminNickname,
		Status:    models.CommentApproved,
		IsPrivate: isPrivate,
		IPAddress: "127.0.0.1",
	}

	id, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin reply: %w", err)
	}
	comment.ID = id

	s.log.Info().Int64("comment_id", id).Int64("parent_id", rootID).Msg("Admin reply posted")
	return comment, nil
}

// resolveParent checks reply preconditions and flattens nesting to one
// level: replying to a reply re-parents under the original root.
func (s *commentService) resolveParent(ctx context.Context, articleID int64, parentID *int64) (*int64, error) {
	if parentID == nil {
		return nil, nil
	}

	parent, err := s.comments.GetByID(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, Failf("parent comment not found")
	}
	if parent.ArticleID != articleID {
		return nil, Failf("parent comment belongs to another article")
	}
	if parent.Status != models.CommentApproved {
		return nil, Failf("cannot reply to an unapproved comment")
	}

	rootID := *parentID
	if parent.ParentID != nil {
		rootID = *parent.ParentID
	}
	return &rootID, nil
}

// Moderate applies a single moderation action
func (s *commentService) Moderate(ctx context.Context, commentID int64, action models.ModerationAction) error {
	var (
		ok  bool
		err error
	)

	switch action {
	case models.ActionApprove:
		ok, err = s.comments.Approve(ctx, commentID)
		if err == nil && !ok {
			return Failf("comment not found or not pending")
		}
	case models.ActionReject:
		ok, err = s.comments.Reject(ctx, commentID)
		if err == nil && !ok {
			return Failf("comment not found or already rejected")
		}
	case models.ActionDelete:
		ok, err = s.comments.Delete(ctx, commentID)
		if err == nil && !ok {
			return Failf("comment not found")
		}
	default:
		return Failf("unknown action: %s", action)
	}

	if err != nil {
		return fmt.Errorf("failed to %s comment %d: %w", action, commentID, err)
	}

	s.log.Info().Int64("comment_id", commentID).Str("action", string(action)).Msg("Comment moderated")
	return nil
}

// BatchModerate applies the action to each comment independently. A
// failure on one item (missing, already in the target state) is skipped
// rather than aborting the batch.
func (s *commentService) BatchModerate(ctx context.Context, commentIDs []int64, action models.ModerationAction) (BatchResult, error) {
	if !models.ValidActions[action] {
		return BatchResult{}, Failf("unknown action: %s", action)
	}

	processed := 0
	for _, id := range commentIDs {
		if err := s.Moderate(ctx, id, action); err != nil {
			s.log.Debug().Int64("comment_id", id).Err(err).Msg("Batch item skipped")
			continue
		}
		processed++
	}

	return BatchResult{
		Processed: processed,
		Message:   fmt.Sprintf("processed %d of %d comments", processed, len(commentIDs)),
	}, nil
}

// ListPublic returns one page of approved, non-private root comments,
// newest first, each carrying its full reply thread oldest first.
func (s *commentService) ListPublic(ctx context.Context, articleID int64, page int) (*CommentPage, error) {
	if page < 1 {
		page = 1
	}

	roots, total, err := s.comments.ListRoots(ctx, articleID, true, page, s.pageSize)
	if err != nil {
		return nil, err
	}

	rootIDs := make([]int64, len(roots))
	byID := make(map[int64]*models.Comment, len(roots))
	for i, root := range roots {
		rootIDs[i] = root.ID
		byID[root.ID] = root
	}

	// Replies attach to the roots of the current page regardless of
	// pagination; they are never paginated on their own.
	replies, err := s.comments.ListReplies(ctx, rootIDs, true)
	if err != nil {
		return nil, err
	}
	for _, reply := range replies {
		if root, ok := byID[*reply.ParentID]; ok {
			root.Replies = append(root.Replies, reply)
		}
	}

	// Anonymous commenters get a stable identifier derived from the
	// comment id instead of a blank name.
	for _, root := range roots {
		root.Nickname = root.DisplayName()
		for _, reply := range root.Replies {
			reply.Nickname = reply.DisplayName()
		}
	}

	return &CommentPage{Comments: roots, Total: total, Page: page, PerPage: s.pageSize}, nil
}

// ListAdmin returns one page of comments across all articles for the
// moderation console, any status, private included
func (s *commentService) ListAdmin(ctx context.Context, status models.CommentStatus, page int) (*CommentPage, error) {
	if page < 1 {
		page = 1
	}

	comments, total, err := s.comments.ListAdmin(ctx, status, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &CommentPage{Comments: comments, Total: total, Page: page, PerPage: s.pageSize}, nil
}

// PendingCount returns the live number of comments awaiting moderation
func (s *commentService) PendingCount(ctx context.Context) (int, error) {
	return s.comments.CountByStatus(ctx, models.CommentPending)
}
