package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/JavaNood/record-log/internal/geo"
	"github.com/JavaNood/record-log/internal/mocks"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/rs/zerolog"
)

func newTestCommentService() (CommentService, *mocks.MockArticleRepository, *mocks.MockCommentRepository) {
	articles := mocks.NewMockArticleRepository()
	comments := mocks.NewMockCommentRepository(articles)
	svc := newCommentService(articles, comments, geo.Fixed("Testland"), 10, zerolog.Nop())
	return svc, articles, comments
}

func commentableArticle(id int64) *models.Article {
	return &models.Article{
		ID:            id,
		Title:         "open for comments",
		Status:        models.ArticlePublished,
		Permission:    models.PermissionPublic,
		AllowComments: true,
	}
}

func TestSubmit_CreatesPendingComment(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	comment, err := svc.Submit(context.Background(), SubmitRequest{
		ArticleID: 1,
		Content:   "  nice article  ",
		Nickname:  "alice",
		IP:        "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if comment.Status != models.CommentPending {
		t.Errorf("expected pending status, got %s", comment.Status)
	}
	if comment.Content != "nice article" {
		t.Errorf("content not trimmed: %q", comment.Content)
	}
	if comment.Location != "Testland" {
		t.Errorf("expected resolved location, got %q", comment.Location)
	}
	// A pending comment must not count toward the article's total.
	if articles.Articles[1].CommentsCount != 0 {
		t.Errorf("pending comment counted: %d", articles.Articles[1].CommentsCount)
	}
}

func TestSubmit_ContentBounds(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	tests := []struct {
		name    string
		content string
	}{
		{"too short", "x"},
		{"whitespace only", "    "},
		{"too long", strings.Repeat("a", models.MaxCommentLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: tt.content})
			if _, ok := AsFailure(err); !ok {
				t.Errorf("expected a user-facing failure, got %v", err)
			}
		})
	}

	// Multibyte runes count as one character each.
	_, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: strings.Repeat("日", models.MaxCommentLength)})
	if err != nil {
		t.Errorf("max-length multibyte content rejected: %v", err)
	}
}

func TestSubmit_ClosedOrMissingArticle(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	closed := commentableArticle(1)
	closed.AllowComments = false
	articles.Add(closed)
	draft := commentableArticle(2)
	draft.Status = models.ArticleDraft
	articles.Add(draft)

	for _, id := range []int64{1, 2, 99} {
		_, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: id, Content: "hello there"})
		if _, ok := AsFailure(err); !ok {
			t.Errorf("article %d: expected a user-facing failure, got %v", id, err)
		}
	}
}

func TestSubmit_ReplyFlattening(t *testing.T) {
	svc, articles, comments := newTestCommentService()
	articles.Add(commentableArticle(1))

	root, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "root comment"})
	if err != nil {
		t.Fatalf("root submit failed: %v", err)
	}
	if _, err := comments.Approve(context.Background(), root.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	reply, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "first reply", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("reply submit failed: %v", err)
	}
	if reply.ParentID == nil || *reply.ParentID != root.ID {
		t.Fatalf("reply not parented to root: %+v", reply.ParentID)
	}
	if _, err := comments.Approve(context.Background(), reply.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Replying to a reply re-parents under the original root.
	nested, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "nested reply", ParentID: &reply.ID})
	if err != nil {
		t.Fatalf("nested submit failed: %v", err)
	}
	if nested.ParentID == nil || *nested.ParentID != root.ID {
		t.Errorf("nested reply not flattened to root: %+v", nested.ParentID)
	}
}

func TestSubmit_ReplyPreconditions(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))
	articles.Add(commentableArticle(2))

	pending, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "still pending"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	missing := int64(99)
	tests := []struct {
		name      string
		articleID int64
		parentID  *int64
	}{
		{"parent missing", 1, &missing},
		{"parent not approved", 1, &pending.ID},
		{"parent on another article", 2, &pending.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: tt.articleID, Content: "a reply", ParentID: tt.parentID})
			if _, ok := AsFailure(err); !ok {
				t.Errorf("expected a user-facing failure, got %v", err)
			}
		})
	}
}

func TestModerate_ApproveUpdatesCounter(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	comment, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "approve me"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := svc.Moderate(context.Background(), comment.ID, models.ActionApprove); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if articles.Articles[1].CommentsCount != 1 {
		t.Errorf("expected counter 1, got %d", articles.Articles[1].CommentsCount)
	}

	// A second approve is a no-op failure and must not drift the counter.
	err = svc.Moderate(context.Background(), comment.ID, models.ActionApprove)
	if _, ok := AsFailure(err); !ok {
		t.Errorf("expected a user-facing failure on double approve, got %v", err)
	}
	if articles.Articles[1].CommentsCount != 1 {
		t.Errorf("double approve drifted counter to %d", articles.Articles[1].CommentsCount)
	}
}

func TestModerate_RejectAndDelete(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	approved, _ := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "to reject"})
	if err := svc.Moderate(context.Background(), approved.ID, models.ActionApprove); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := svc.Moderate(context.Background(), approved.ID, models.ActionReject); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if articles.Articles[1].CommentsCount != 0 {
		t.Errorf("rejected comment still counted: %d", articles.Articles[1].CommentsCount)
	}

	// Rejecting again is a no-op failure.
	if err := svc.Moderate(context.Background(), approved.ID, models.ActionReject); err == nil {
		t.Error("expected failure on double reject")
	}

	if err := svc.Moderate(context.Background(), approved.ID, models.ActionDelete); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Moderate(context.Background(), approved.ID, models.ActionDelete); err == nil {
		t.Error("expected failure deleting a missing comment")
	}

	if err := svc.Moderate(context.Background(), 1, "publish"); err == nil {
		t.Error("expected failure on unknown action")
	}
}

func TestBatchModerate_ContinuesPastFailures(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	a, _ := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "first comment"})
	b, _ := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "second comment"})

	// One missing id in the middle must not abort the batch.
	result, err := svc.BatchModerate(context.Background(), []int64{a.ID, 999, b.ID}, models.ActionApprove)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if result.Processed != 2 {
		t.Errorf("expected 2 processed, got %d", result.Processed)
	}
	if articles.Articles[1].CommentsCount != 2 {
		t.Errorf("expected counter 2, got %d", articles.Articles[1].CommentsCount)
	}

	if _, err := svc.BatchModerate(context.Background(), []int64{a.ID}, "publish"); err == nil {
		t.Error("expected failure on unknown batch action")
	}
}

func TestAdminReply_ApprovedImmediately(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	root, _ := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "a question"})
	if err := svc.Moderate(context.Background(), root.ID, models.ActionApprove); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	reply, err := svc.AdminReply(context.Background(), root.ID, "an answer", false)
	if err != nil {
		t.Fatalf("admin reply failed: %v", err)
	}
	if reply.Status != models.CommentApproved {
		t.Errorf("admin reply not approved: %s", reply.Status)
	}
	if reply.Nickname != models.AdminNickname {
		t.Errorf("admin reply under wrong identity: %q", reply.Nickname)
	}
	if articles.Articles[1].CommentsCount != 2 {
		t.Errorf("admin reply not counted: %d", articles.Articles[1].CommentsCount)
	}

	// Replying to the reply flattens under the root.
	second, err := svc.AdminReply(context.Background(), reply.ID, "a follow-up", false)
	if err != nil {
		t.Fatalf("second admin reply failed: %v", err)
	}
	if second.ParentID == nil || *second.ParentID != root.ID {
		t.Errorf("admin reply not flattened to root: %+v", second.ParentID)
	}

	pending, _ := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "still pending"})
	if _, err := svc.AdminReply(context.Background(), pending.ID, "too early", false); err == nil {
		t.Error("expected failure replying to an unapproved comment")
	}
}

func TestListPublic_VisibilityAndThreading(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	now := time.Now()
	submit := func(content string, parentID *int64, offset time.Duration) *models.Comment {
		c, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: content, ParentID: parentID})
		if err != nil {
			t.Fatalf("submit %q failed: %v", content, err)
		}
		c.CreatedAt = now.Add(offset)
		return c
	}

	older := submit("older root", nil, -time.Hour)
	newer := submit("newer root", nil, 0)
	hidden := submit("hidden root", nil, -time.Minute)
	for _, c := range []*models.Comment{older, newer} {
		if err := svc.Moderate(context.Background(), c.ID, models.ActionApprove); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
	}
	_ = hidden // stays pending

	early := submit("early reply", &older.ID, -30*time.Minute)
	late := submit("late reply", &older.ID, -10*time.Minute)
	pendingReply := submit("pending reply", &older.ID, -5*time.Minute)
	for _, c := range []*models.Comment{early, late} {
		if err := svc.Moderate(context.Background(), c.ID, models.ActionApprove); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
	}
	_ = pendingReply

	page, err := svc.ListPublic(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if page.Total != 2 {
		t.Errorf("expected 2 visible roots, got %d", page.Total)
	}
	if len(page.Comments) != 2 {
		t.Fatalf("expected 2 roots on page, got %d", len(page.Comments))
	}
	// Roots newest first.
	if page.Comments[0].ID != newer.ID || page.Comments[1].ID != older.ID {
		t.Errorf("roots out of order: %d, %d", page.Comments[0].ID, page.Comments[1].ID)
	}

	// Replies oldest first under their root, pending ones hidden.
	thread := page.Comments[1].Replies
	if len(thread) != 2 {
		t.Fatalf("expected 2 visible replies, got %d", len(thread))
	}
	if thread[0].ID != early.ID || thread[1].ID != late.ID {
		t.Errorf("replies out of order: %d, %d", thread[0].ID, thread[1].ID)
	}
}

func TestListPublic_PrivateCommentsHidden(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	private, err := svc.Submit(context.Background(), SubmitRequest{
		ArticleID: 1,
		Content:   "just for the author",
		IsPrivate: true,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := svc.Moderate(context.Background(), private.ID, models.ActionApprove); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Approved but private: invisible publicly.
	page, err := svc.ListPublic(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("public list failed: %v", err)
	}
	if page.Total != 0 || len(page.Comments) != 0 {
		t.Errorf("private comment leaked publicly: total=%d comments=%d", page.Total, len(page.Comments))
	}

	// But fully visible in the moderation console.
	adminPage, err := svc.ListAdmin(context.Background(), models.CommentApproved, 1)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if adminPage.Total != 1 || len(adminPage.Comments) != 1 {
		t.Fatalf("private comment missing from admin list: total=%d", adminPage.Total)
	}
	if adminPage.Comments[0].ID != private.ID || !adminPage.Comments[0].IsPrivate {
		t.Errorf("admin list returned wrong comment: %+v", adminPage.Comments[0])
	}

	// A private reply under a public root stays hidden too.
	public, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "a public root"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := svc.Moderate(context.Background(), public.ID, models.ActionApprove); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	reply, err := svc.Submit(context.Background(), SubmitRequest{
		ArticleID: 1,
		Content:   "a private reply",
		IsPrivate: true,
		ParentID:  &public.ID,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := svc.Moderate(context.Background(), reply.ID, models.ActionApprove); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	page, err = svc.ListPublic(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("public list failed: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected 1 visible root, got %d", page.Total)
	}
	if len(page.Comments[0].Replies) != 0 {
		t.Errorf("private reply leaked publicly: %+v", page.Comments[0].Replies)
	}
}

func TestListPublic_NicknameFallback(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	anonymous, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "no name given"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	named, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "signed comment", Nickname: "alice"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	for _, c := range []*models.Comment{anonymous, named} {
		if err := svc.Moderate(context.Background(), c.ID, models.ActionApprove); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
	}

	page, err := svc.ListPublic(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	byID := make(map[int64]*models.Comment)
	for _, c := range page.Comments {
		byID[c.ID] = c
	}
	if got := byID[named.ID].Nickname; got != "alice" {
		t.Errorf("given nickname overwritten: %q", got)
	}
	want := fmt.Sprintf("Visitor-%04d", anonymous.ID%10000)
	if got := byID[anonymous.ID].Nickname; got != want {
		t.Errorf("anonymous nickname = %q, want %q", got, want)
	}
}

func TestListAdmin_StatusFilterAndPendingCount(t *testing.T) {
	svc, articles, _ := newTestCommentService()
	articles.Add(commentableArticle(1))

	a, _ := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "first comment"})
	if _, err := svc.Submit(context.Background(), SubmitRequest{ArticleID: 1, Content: "second comment"}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := svc.Moderate(context.Background(), a.ID, models.ActionApprove); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	all, err := svc.ListAdmin(context.Background(), "", 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if all.Total != 2 {
		t.Errorf("expected 2 comments total, got %d", all.Total)
	}

	pending, err := svc.ListAdmin(context.Background(), models.CommentPending, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if pending.Total != 1 {
		t.Errorf("expected 1 pending comment, got %d", pending.Total)
	}

	count, err := svc.PendingCount(context.Background())
	if err != nil || count != 1 {
		t.Errorf("expected pending count 1, got %d (%v)", count, err)
	}
}
