package session

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// State is the visitor-scoped session payload. It carries the set of
// gated articles this visitor has already unlocked and the set of
// articles they have liked. It is decoded from client-held cookie data,
// so every read goes through Parse, which normalizes arbitrary shapes
// into this known-good representation.
type State struct {
	VerifiedArticleIDs []int64 `json:"verified_articles,omitempty"`
	LikedArticleIDs    []int64 `json:"liked_articles,omitempty"`
	// Permanent marks the session as long-lived. Set once a gate has
	// been unlocked so the visitor is not re-prompted after the short
	// default lifetime.
	Permanent bool `json:"permanent,omitempty"`
}

// wireState mirrors State with untyped fields so that malformed or
// legacy payloads still decode instead of failing wholesale.
type wireState struct {
	VerifiedArticleIDs interface{} `json:"verified_articles"`
	LikedArticleIDs    interface{} `json:"liked_articles"`
	Permanent          bool        `json:"permanent"`
}

// Parse normalizes a raw session payload into a State. Session storage
// is semi-trusted, client-influenced data: anything that is not
// list-like becomes an empty list, and list entries that do not coerce
// to an integer id are dropped.
func Parse(raw []byte) State {
	if len(raw) == 0 {
		return State{}
	}

	var wire wireState
	if err := json.Unmarshal(raw, &wire); err != nil {
		return State{}
	}

	return State{
		VerifiedArticleIDs: normalizeIDs(wire.VerifiedArticleIDs),
		LikedArticleIDs:    normalizeIDs(wire.LikedArticleIDs),
		Permanent:          wire.Permanent,
	}
}

// normalizeIDs coerces a decoded JSON value into a deduplicated id list.
func normalizeIDs(v interface{}) []int64 {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}

	var ids []int64
	seen := make(map[int64]bool, len(list))
	for _, entry := range list {
		id, ok := coerceID(entry)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// coerceID applies numeric-equivalence normalization: ids may have been
// serialized as JSON numbers, strings or floats across session
// round-trips, and all of those must compare equal to the same id.
func coerceID(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < 0 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// HasVerified reports whether the visitor has unlocked the given article.
func (s State) HasVerified(articleID int64) bool {
	return contains(s.VerifiedArticleIDs, articleID)
}

// HasLiked reports whether the visitor has liked the given article.
func (s State) HasLiked(articleID int64) bool {
	return contains(s.LikedArticleIDs, articleID)
}

// AddVerified records an unlocked article and marks the session
// long-lived. Idempotent: re-verifying an already-verified article does
// not duplicate the entry.
func (s State) AddVerified(articleID int64) State {
	if !s.HasVerified(articleID) {
		s.VerifiedArticleIDs = append(append([]int64(nil), s.VerifiedArticleIDs...), articleID)
	}
	s.Permanent = true
	return s
}

// AddLiked records a like. Idempotent.
func (s State) AddLiked(articleID int64) State {
	if !s.HasLiked(articleID) {
		s.LikedArticleIDs = append(append([]int64(nil), s.LikedArticleIDs...), articleID)
	}
	return s
}

// RemoveLiked removes a like if present.
func (s State) RemoveLiked(articleID int64) State {
	if !s.HasLiked(articleID) {
		return s
	}
	ids := make([]int64, 0, len(s.LikedArticleIDs)-1)
	for _, id := range s.LikedArticleIDs {
		if id != articleID {
			ids = append(ids, id)
		}
	}
	s.LikedArticleIDs = ids
	return s
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
