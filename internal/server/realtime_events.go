package server

import (
	"context"
	"encoding/json"

	"circle/internal/middleware"
	"circle/internal/models"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated           = "post_created"
	EventFriendRequestReceived = "friend_request_received"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventFriendRequestRejected = "friend_request_rejected"
	EventFriendBlocked         = "friend_blocked"
)

type event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

func encodeEvent(eventType string, payload map[string]interface{}) (string, bool) {
	raw, err := json.Marshal(event{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.Error("failed to marshal event", "type", eventType, "error", err)
		return "", false
	}
	return string(raw), true
}

// publishUserEvent is fire-and-forget: a publish failure never fails the request.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}
	if err := s.notifier.PublishUser(context.WithoutCancel(ctx), userID, message); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish user event",
			"type", eventType, "user_id", userID, "error", err)
	}
}

func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}
	if err := s.notifier.PublishBroadcast(context.WithoutCancel(ctx), message); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish broadcast event",
			"type", eventType, "error", err)
	}
}

// publishPostCreated announces public posts only; friends-only posts stay private.
func (s *Server) publishPostCreated(ctx context.Context, post *models.Post) {
	if post.Visibility != models.VisibilityPublic {
		return
	}
	s.publishBroadcastEvent(ctx, EventPostCreated, map[string]interface{}{
		"post_id":    post.ID,
		"author_id":  post.UserID,
		"created_at": post.CreatedAt.UTC(),
	})
}

func friendshipPayload(f *models.Friendship) map[string]interface{} {
	return map[string]interface{}{
		"friendship_id": f.ID,
		"user_id1":      f.UserID1,
		"user_id2":      f.UserID2,
		"status":        f.Status,
	}
}
