package utils

import (
	"log"
	"time"

	"github.com/Himanshu2415411/FusionBridge/config"

	"github.com/go-resty/resty/v2"
)

// NotifyCourseCompleted posts a completion event to the configured webhook.
// Fire-and-forget: failures are logged, never surfaced to the request.
func NotifyCourseCompleted(userID, courseID uint, xpAwarded int, certificateNumber string) {
	webhookURL := config.AppConfig.CompletionWebhookURL
	if webhookURL == "" {
		return
	}

	client := resty.New().SetTimeout(10 * time.Second)

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"event":             "course.completed",
			"userId":            userID,
			"courseId":          courseID,
			"xpAwarded":         xpAwarded,
			"certificateNumber": certificateNumber,
			"occurredAt":        time.Now().UTC(),
		}).
		Post(webhookURL)
	if err != nil {
		log.Printf("[NOTIFIER] Failed to deliver completion event for user %d course %d: %v", userID, courseID, err)
		return
	}

	if resp.IsError() {
		log.Printf("[NOTIFIER] Completion webhook returned %d for user %d course %d", resp.StatusCode(), userID, courseID)
	}
}
