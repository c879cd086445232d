package service

import (
	"context"
	"testing"
	"time"

	"github.com/JavaNood/record-log/internal/mocks"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/session"
	"github.com/rs/zerolog"
)

func newTestArticleService() (ArticleService, *mocks.MockArticleRepository, *mocks.MockTagRepository) {
	articles := mocks.NewMockArticleRepository()
	tags := mocks.NewMockTagRepository()
	return newArticleService(articles, tags, 10, 5, zerolog.Nop()), articles, tags
}

func TestParseCustomDate(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantStart string
		wantEnd   string
	}{
		{"year", "2024", "2024-01-01", "2025-01-01"},
		{"month", "202403", "2024-03-01", "2024-04-01"},
		{"day", "20240315", "2024-03-15", "2024-03-16"},
		{"separators stripped", "2024-03-15", "2024-03-15", "2024-03-16"},
		{"slashes stripped", "2024/03", "2024-03-01", "2024-04-01"},
		{"december rolls over", "202412", "2024-12-01", "2025-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := parseCustomDate(tt.raw)
			if start == nil || end == nil {
				t.Fatalf("expected a window for %q", tt.raw)
			}
			if got := start.Format("2006-01-02"); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := end.Format("2006-01-02"); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
		})
	}
}

func TestParseCustomDate_Invalid(t *testing.T) {
	tests := []string{"", "abc", "20", "202413", "20240230x1", "20241301", "20240332"}

	for _, raw := range tests {
		start, end := parseCustomDate(raw)
		if start != nil || end != nil {
			t.Errorf("expected no window for %q, got %v..%v", raw, start, end)
		}
	}
}

func TestResolveTimeWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		timeRange string
		wantDays  int
	}{
		{models.RangeWeek, 7},
		{models.RangeMonth, 30},
		{models.RangeQuarter, 90},
		{models.RangeYear, 365},
	}

	for _, tt := range tests {
		t.Run(tt.timeRange, func(t *testing.T) {
			start, end := resolveTimeWindow(tt.timeRange, "", now)
			if start == nil || end != nil {
				t.Fatalf("expected open-ended window, got %v..%v", start, end)
			}
			if got := now.Sub(*start); got != time.Duration(tt.wantDays)*24*time.Hour {
				t.Errorf("window = %v, want %d days", got, tt.wantDays)
			}
		})
	}

	if start, end := resolveTimeWindow(models.RangeAll, "", now); start != nil || end != nil {
		t.Error("expected no window for the all range")
	}
	if start, end := resolveTimeWindow("bogus", "", now); start != nil || end != nil {
		t.Error("expected no window for an unknown range")
	}
}

func TestList_FiltersAndOrdering(t *testing.T) {
	svc, articles, _ := newTestArticleService()

	now := time.Now()
	add := func(id int64, title string, isTop bool, age time.Duration) *models.Article {
		return articles.Add(&models.Article{
			ID:         id,
			Title:      title,
			Status:     models.ArticlePublished,
			Permission: models.PermissionPublic,
			IsTop:      isTop,
			CreatedAt:  now.Add(-age),
		})
	}
	add(1, "old post", false, 48*time.Hour)
	add(2, "fresh post", false, time.Hour)
	add(3, "pinned post", true, 72*time.Hour)
	articles.Add(&models.Article{ID: 4, Title: "draft post", Status: models.ArticleDraft, CreatedAt: now})

	list, err := svc.List(context.Background(), models.ArticleFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Total != 3 {
		t.Errorf("expected 3 published articles, got %d", list.Total)
	}
	// Pinned first, then newest.
	got := make([]int64, len(list.Articles))
	for i, a := range list.Articles {
		got[i] = a.ID
	}
	want := []int64{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	// Title search is case-insensitive.
	list, err = svc.List(context.Background(), models.ArticleFilter{Query: "FRESH"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if list.Total != 1 || list.Articles[0].ID != 2 {
		t.Errorf("search matched wrong articles: %+v", list.Articles)
	}
}

func TestList_GatedContentHidden(t *testing.T) {
	svc, articles, _ := newTestArticleService()
	articles.Add(&models.Article{
		ID:         1,
		Title:      "secret post",
		Content:    "the secret body",
		Summary:    "a teaser",
		Status:     models.ArticlePublished,
		Permission: models.PermissionVerify,
		CreatedAt:  time.Now(),
	})

	list, err := svc.List(context.Background(), models.ArticleFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Articles[0].Content != "" {
		t.Error("gated article body leaked into the listing")
	}
	if list.Articles[0].Summary != "a teaser" {
		t.Error("summary should survive in listings")
	}
}

func TestLike_IdempotentPerSession(t *testing.T) {
	svc, articles, _ := newTestArticleService()
	articles.Add(&models.Article{ID: 1, Title: "likeable", Status: models.ArticlePublished})

	state := session.State{}
	var err error
	for i := 0; i < 3; i++ {
		state, err = svc.Like(context.Background(), 1, state)
		if err != nil {
			t.Fatalf("like failed: %v", err)
		}
	}

	if articles.Articles[1].LikeCount != 1 {
		t.Errorf("repeated likes drifted counter to %d", articles.Articles[1].LikeCount)
	}
	if !state.HasLiked(1) {
		t.Error("like not recorded in session")
	}

	state, err = svc.Unlike(context.Background(), 1, state)
	if err != nil {
		t.Fatalf("unlike failed: %v", err)
	}
	if articles.Articles[1].LikeCount != 0 {
		t.Errorf("expected counter 0 after unlike, got %d", articles.Articles[1].LikeCount)
	}

	// Unliking without a recorded like is a no-op.
	if _, err = svc.Unlike(context.Background(), 1, state); err != nil {
		t.Fatalf("second unlike failed: %v", err)
	}
	if articles.Articles[1].LikeCount != 0 {
		t.Errorf("unmatched unlike drove counter to %d", articles.Articles[1].LikeCount)
	}

	if _, err := svc.Like(context.Background(), 99, session.State{}); err == nil {
		t.Error("expected failure liking a missing article")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestArticleService()

	tests := []struct {
		name    string
		article *models.Article
	}{
		{"missing title", &models.Article{}},
		{"gated without question", &models.Article{Title: "t", Permission: models.PermissionVerify}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.article, nil); err == nil {
				t.Error("expected validation failure")
			}
		})
	}

	// Defaults fill in, and a gated article may omit the answer.
	article := &models.Article{Title: "ok", Permission: models.PermissionVerify, VerifyQuestion: "press any key"}
	id, err := svc.Create(context.Background(), article, nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == 0 {
		t.Error("expected an assigned id")
	}
	if article.Status != models.ArticleDraft {
		t.Errorf("expected draft default, got %s", article.Status)
	}
}

func TestTags_CreateAndAttach(t *testing.T) {
	svc, _, _ := newTestArticleService()

	tagID, err := svc.CreateTag(context.Background(), "go", "")
	if err != nil {
		t.Fatalf("create tag failed: %v", err)
	}

	article := &models.Article{Title: "tagged", Status: models.ArticlePublished, CreatedAt: time.Now()}
	if _, err := svc.Create(context.Background(), article, []int64{tagID}); err != nil {
		t.Fatalf("create article failed: %v", err)
	}

	got, err := svc.GetPublished(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "go" {
		t.Errorf("expected tag [go], got %+v", got.Tags)
	}
	if got.Tags[0].Color != "#007bff" {
		t.Errorf("expected default color, got %q", got.Tags[0].Color)
	}

	if _, err := svc.CreateTag(context.Background(), "  ", ""); err == nil {
		t.Error("expected failure on blank tag name")
	}
}
