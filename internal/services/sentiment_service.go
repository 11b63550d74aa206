package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/privacy"
)

// SentimentService calls the external sentiment collaborator. The plain
// text leaves the envelope only for the duration of the request and only
// when the user has granted the sentimentAnalysis purpose.
type SentimentService struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	consent    *consent.Service
	audit      *audit.Recorder
}

type sentimentRequest struct {
	Text string `json:"text"`
}

// SentimentResult is the collaborator's scored verdict, stored alongside
// the entry as plain metadata.
type SentimentResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func NewSentimentService(apiURL, apiKey string, httpClient *http.Client, cons *consent.Service, rec *audit.Recorder) *SentimentService {
	return &SentimentService{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		consent:    cons,
		audit:      rec,
	}
}

func (s *SentimentService) IsConfigured() bool { return s.apiURL != "" }

// Analyze re-checks consent at call time, so a revocation between entry
// creation and the async analysis is honored.
func (s *SentimentService) Analyze(ctx context.Context, userID, text string) (*SentimentResult, error) {
	if !s.IsConfigured() {
		return nil, errors.New("sentiment collaborator not configured")
	}
	if !s.consent.Has(ctx, userID, consent.PurposeSentimentAnalysis) {
		return nil, privacy.E(privacy.KindPermissionDenied, "sentiment analysis consent not granted")
	}

	body, _ := json.Marshal(sentimentRequest{Text: text})

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sentiment API status %d", resp.StatusCode)
	}

	var result SentimentResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, audit.ActionSentimentAnalyzed,
		audit.WithDetail("label", result.Label))
	return &result, nil
}
