package broadcast

// Publisher is the pub/sub primitive the coordination core depends on:
// deliver a payload to every current subscriber of a destination, or only
// to the subscribers of a destination that belong to one user. Delivery is
// fire-and-forget; a Publisher never blocks the caller.
type Publisher interface {
	Publish(topic string, payload any)
	PublishToUser(topic, userID string, payload any)
}

// PresenceTopic carries PresenceUpdate envelopes for every user.
const PresenceTopic = "presence"

// RoomTopic is the destination for one call's signaling traffic.
func RoomTopic(roomID string) string {
	return "webrtc/" + roomID
}

// TypingTopic is the destination for one chat's typing indicators.
func TypingTopic(chatID string) string {
	return "chat/" + chatID + "/typing"
}

// NopPublisher discards every message. Used when no transport is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(string, any)               {}
func (NopPublisher) PublishToUser(string, string, any) {}
