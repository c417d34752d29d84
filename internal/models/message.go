package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxMessageLength = 2000

// Message is ordered within its chat by Seq, which is assigned under the
// chat document's write lock.
type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChatID    primitive.ObjectID `json:"chat_id" bson:"chat_id"`
	SenderID  string             `json:"sender_id" bson:"sender_id"`
	Text      string             `json:"text" bson:"text"`
	Seq       int64              `json:"seq" bson:"seq"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Preview shortens a message text for chat lists.
func Preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
