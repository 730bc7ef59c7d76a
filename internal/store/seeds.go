package store

import (
	"time"

	"supportboard/internal/models"
)

// SeedSnapshot returns the built-in starter dataset. It is used only in
// memory-fallback mode: a configured backend that holds nothing gets
// empty collections, never these defaults.
func SeedSnapshot() *models.DataSnapshot {
	now := time.Now().UTC()

	snapshot := &models.DataSnapshot{
		KnowledgeEntries: []models.KnowledgeEntry{
			{
				ID:        "kb-antivirus-block",
				Title:     "Antivirus blocking the macro",
				Content:   "Add the install folder to your antivirus exclusions or temporarily disable real-time protection, then restart the client. Windows Defender and Avast are the most common offenders.",
				Keywords:  []string{"antivirus", "firewall", "defender", "blocked"},
				CreatedAt: now,
				CreatedBy: "system",
			},
			{
				ID:        "kb-license-invalid",
				Title:     "License key reported as invalid",
				Content:   "Check that the key was copied without trailing spaces and that it matches the edition you installed. Keys are single-activation; use /reset-license to move machines.",
				Keywords:  []string{"license", "key", "activation"},
				CreatedAt: now,
				CreatedBy: "system",
			},
			{
				ID:        "kb-update-loop",
				Title:     "Client stuck in an update loop",
				Content:   "Delete the cache folder under %APPDATA% and launch the client as administrator once. The updater repairs itself on the next run.",
				Keywords:  []string{"update", "loop", "launcher", "stuck"},
				CreatedAt: now,
				CreatedBy: "system",
			},
		},
		AutoResponses: []models.AutoResponse{
			{
				ID:              "ar-password-reset",
				Name:            "Password reset",
				TriggerKeywords: []string{"password", "forgot my login"},
				ResponseText:    "You can reset your password at any time from the account page: https://example.com/account/reset — reset emails can take a few minutes to arrive.",
				CreatedAt:       now,
			},
			{
				ID:              "ar-refund-policy",
				Name:            "Refund policy",
				TriggerKeywords: []string{"refund", "money back"},
				ResponseText:    "Refunds are handled through the store you purchased from within 14 days. Open a ticket with your order ID and the team will take it from there.",
				CreatedAt:       now,
			},
		},
		CommandDocs: []models.CommandDoc{
			{
				Name:        "solve",
				Description: "Mark the current thread as solved and queue a knowledge summary for review",
				Parameters:  map[string]string{"note": "Optional closing note posted to the thread"},
			},
			{
				Name:        "kb",
				Description: "Search the knowledge base and post the best matching article",
				Parameters:  map[string]string{"query": "Free-text search terms"},
			},
		},
		BotSettings: models.BotSettings{
			models.SettingSystemPrompt:        "You are the support assistant for this server. Answer from the knowledge base and escalate anything you are not sure about.",
			models.SettingConfidenceThreshold: 0.6,
			models.SettingAutoRespondEnabled:  true,
		},
		PendingEntries: []models.PendingKnowledgeEntry{},
	}

	snapshot.Normalize()
	return snapshot
}
