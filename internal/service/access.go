package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/repository"
	"github.com/JavaNood/record-log/internal/session"
	"github.com/rs/zerolog"
)

// accessGate is the concrete implementation of AccessGate
type accessGate struct {
	articles repository.ArticleRepository
	log      zerolog.Logger
}

func newAccessGate(articles repository.ArticleRepository, log zerolog.Logger) AccessGate {
	return &accessGate{
		articles: articles,
		log:      log.With().Str("component", "access_gate").Logger(),
	}
}

// CheckAccess decides whether the visitor may view the article's full
// content. Public articles are always granted, whatever the session
// looks like; gated articles require a previously recorded unlock.
func (g *accessGate) CheckAccess(article *models.Article, state session.State) AccessDecision {
	if article == nil || !article.IsGated() {
		return AccessGranted
	}
	if state.HasVerified(article.ID) {
		return AccessGranted
	}
	return AccessMustVerify
}

// VerifyAnswer validates a submitted answer against the article's
// stored secret. Both sides are trimmed and lowercased before the
// comparison. An article gated without a stored secret unlocks on any
// non-empty answer ("click-through" gating).
func (g *accessGate) VerifyAnswer(ctx context.Context, articleID, answer string, state session.State) (session.State, VerifyResult, error) {
	answer = strings.TrimSpace(answer)
	if articleID == "" || answer == "" {
		return state, VerifyResult{Message: "article id and answer are required"}, nil
	}

	id, err := strconv.ParseInt(strings.TrimSpace(articleID), 10, 64)
	if err != nil {
		return state, VerifyResult{Message: "invalid article id"}, nil
	}

	article, err := g.articles.GetPublished(ctx, id)
	if err != nil {
		return state, VerifyResult{}, err
	}
	if article == nil || !article.IsGated() {
		return state, VerifyResult{Message: "article not found or not gated"}, nil
	}

	secret := strings.ToLower(strings.TrimSpace(article.VerifyAnswer))
	if secret != "" && strings.ToLower(answer) != secret {
		return state, VerifyResult{Message: "wrong answer"}, nil
	}

	// Idempotent: re-verifying an unlocked article just reconfirms.
	state = state.AddVerified(id)

	g.log.Info().Int64("article_id", id).Msg("Article gate unlocked")
	return state, VerifyResult{Success: true, Message: "verified"}, nil
}
