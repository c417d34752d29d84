package models

import (
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Chat struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	PairKey       string              `json:"-" bson:"pair_key"`
	Participants  []string            `json:"participants" bson:"participants"`
	RideID        *primitive.ObjectID `json:"ride_id,omitempty" bson:"ride_id,omitempty"`
	LastMessage   string              `json:"last_message" bson:"last_message"`
	LastMessageAt *time.Time          `json:"last_message_at,omitempty" bson:"last_message_at,omitempty"`
	MessageSeq    int64               `json:"message_seq" bson:"message_seq"`
	UnreadCounts  map[string]int      `json:"-" bson:"unread_counts"`
	UnreadCount   int                 `json:"unread_count" bson:"-"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`
}

// ChatPairKey derives the identity of a two-party conversation from its
// participants, independent of their order. Each id is length-prefixed so
// ids containing the separator cannot produce the same key.
func ChatPairKey(a, b string) string {
	pair := SortedParticipants(a, b)
	return strconv.Itoa(len(pair[0])) + ":" + pair[0] + ":" + strconv.Itoa(len(pair[1])) + ":" + pair[1]
}

// SortedParticipants returns the pair in the order used for pair keys.
func SortedParticipants(a, b string) []string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of userID, or "" when userID is
// not part of the chat.
func (c *Chat) OtherParticipant(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ForViewer fills the viewer specific unread count.
func (c *Chat) ForViewer(userID string) *Chat {
	c.UnreadCount = c.UnreadCounts[userID]
	return c
}
