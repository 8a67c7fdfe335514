package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

// cacheKeyPrefix versions the cache namespace so key-shape changes never
// collide with entries written by older builds.
const cacheKeyPrefix = "search:v1:"

// Fingerprint derives the cache key for a search request: a stable hash
// of (user, target document, top_k, normalized query). Queries differing
// only in case or whitespace share a key.
func Fingerprint(req domain.SearchRequest) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(req.Query)), " ")

	h := sha256.New()
	for _, part := range []string{
		req.UserID,
		req.TargetDocumentID,
		strconv.Itoa(req.TopK),
		normalized,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0}) // separator
	}

	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
