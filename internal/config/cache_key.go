package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PaperPayloadKey returns the cache key for a paper's student-facing payload.
func (r *CacheKeyStruct) PaperPayloadKey(paperID int) string {
	return fmt.Sprintf("paper:%d:payload", paperID)
}

// TranslationKey returns the cache key for a memoized translation.
// The text is hashed so arbitrary question bodies make safe Redis keys.
func (r *CacheKeyStruct) TranslationKey(targetLang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("translate:%s:%s", targetLang, hex.EncodeToString(sum[:16]))
}

var CacheKey = NewCacheKeyStruct()
