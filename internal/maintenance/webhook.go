package maintenance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path"
	"strings"

	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

const signaturePrefix = "sha256="

// WebhookResult is the response of POST /maintenance/webhook/github.
type WebhookResult struct {
	Status          string   `json:"status"`
	Event           string   `json:"event"`
	Processed       int      `json:"processed"`
	NotificationIDs []string `json:"notification_ids"`
}

type pushPayload struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Commits []struct {
		ID       string   `json:"id"`
		Message  string   `json:"message"`
		Added    []string `json:"added"`
		Modified []string `json:"modified"`
		Removed  []string `json:"removed"`
	} `json:"commits"`
}

// VerifySignature checks a GitHub X-Hub-Signature-256 header against the
// payload. An empty secret accepts every payload.
func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" {
		return true
	}
	got, ok := strings.CutPrefix(strings.TrimSpace(signature), signaturePrefix)
	if !ok {
		return false
	}
	decoded, err := hex.DecodeString(got)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(decoded, mac.Sum(nil))
}

// GitHubWebhook turns the code files of a push event into change
// notifications. Other events are acknowledged and ignored.
func (s *Service) GitHubWebhook(ctx context.Context, event string, payload []byte, signature string) (*WebhookResult, error) {
	if !VerifySignature(s.webhookSecret, payload, signature) {
		s.logger.Warn("Rejected webhook with invalid signature", zap.String("event", event))
		return nil, appErrors.NewUnauthorized("Invalid webhook signature")
	}
	if event == "" {
		event = "push"
	}
	result := &WebhookResult{Status: "webhook processed", Event: event, NotificationIDs: []string{}}
	if event == "ping" {
		result.Status = "pong"
		return result, nil
	}
	if event != "push" {
		result.Status = "ignored"
		return result, nil
	}

	var push pushPayload
	if err := json.Unmarshal(payload, &push); err != nil {
		return nil, appErrors.NewValidation("Invalid webhook payload")
	}

	for _, commit := range push.Commits {
		groups := []struct {
			changeType string
			files      []string
		}{
			{"added", commit.Added},
			{"modified", commit.Modified},
			{"removed", commit.Removed},
		}
		for _, g := range groups {
			for _, file := range g.files {
				if !s.isCodeFile(file) {
					continue
				}
				n, err := s.NotifyChange(ctx, ChangeRequest{
					ComponentName: strings.TrimSuffix(path.Base(file), path.Ext(file)),
					ChangeType:    g.changeType,
					FilePath:      file,
					CommitHash:    commit.ID,
				})
				if err != nil {
					s.logger.Warn("Failed to record webhook change", zap.String("path", file), zap.Error(err))
					continue
				}
				result.NotificationIDs = append(result.NotificationIDs, n.ID)
			}
		}
	}
	result.Processed = len(result.NotificationIDs)

	s.logger.Info("GitHub webhook processed",
		zap.String("repository", push.Repository.FullName),
		zap.String("ref", push.Ref),
		zap.Int("commits", len(push.Commits)),
		zap.Int("processed", result.Processed),
	)
	return result, nil
}

func (s *Service) isCodeFile(file string) bool {
	ext := strings.ToLower(path.Ext(file))
	for _, e := range defaultCodeExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
