package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/openexam/examportal-backend/internal/config"
	"github.com/openexam/examportal-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TranslateService calls a LibreTranslate-compatible endpoint and memoizes
// results in Redis. It never surfaces errors: any failure returns the source
// text unchanged, so the exam flow is independent of translation uptime.
type TranslateService struct {
	cfg    *config.Config
	rdb    *redis.Client
	client *http.Client
	log    zerolog.Logger
}

// NewTranslateService creates a new TranslateService.
func NewTranslateService(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *TranslateService {
	return &TranslateService{
		cfg:    cfg,
		rdb:    rdb,
		client: &http.Client{Timeout: cfg.TranslateTimeout},
		log:    log.With().Str("component", "translate_service").Logger(),
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate returns text rendered into targetLang, or the input unchanged on
// any failure (endpoint unset, network error, bad payload).
func (s *TranslateService) Translate(ctx context.Context, text, targetLang string) string {
	if s.cfg.TranslateURL == "" || text == "" {
		return text
	}

	cacheKey := config.CacheKey.TranslationKey(targetLang, text)
	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		return cached
	}

	body, err := json.Marshal(translateRequest{Q: text, Source: "en", Target: targetLang, Format: "text"})
	if err != nil {
		return text
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TranslateURL, bytes.NewReader(body))
	if err != nil {
		return text
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug().Err(err).Msg("Translate request failed")
		return text
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Debug().Int("status", resp.StatusCode).Msg("Translate endpoint rejected request")
		return text
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.TranslatedText == "" {
		return text
	}

	// Memoize indefinitely — question text is effectively immutable and the
	// key is content-addressed.
	if err := s.rdb.Set(ctx, cacheKey, out.TranslatedText, 0).Err(); err != nil {
		s.log.Debug().Err(err).Msg("Translation cache write failed")
	}

	return out.TranslatedText
}

// TranslateQuestion fills a question's translated fields. The five strings
// are fetched concurrently and each one falls back independently.
func (s *TranslateService) TranslateQuestion(ctx context.Context, q *model.ExamQuestion, targetLang string) {
	fields := []struct {
		src string
		dst *string
	}{
		{q.Text, &q.TextHi},
		{q.OptionA, &q.OptionAHi},
		{q.OptionB, &q.OptionBHi},
		{q.OptionC, &q.OptionCHi},
		{q.OptionD, &q.OptionDHi},
	}

	var wg sync.WaitGroup
	for _, f := range fields {
		wg.Add(1)
		go func(src string, dst *string) {
			defer wg.Done()
			*dst = s.Translate(ctx, src, targetLang)
		}(f.src, f.dst)
	}
	wg.Wait()
}
