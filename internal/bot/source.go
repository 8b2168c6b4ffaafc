package bot

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// GetChatID extracts the conversation identifier from a LINE source.
// Returns group ID for groups, room ID for rooms, user ID for personal
// chats. This is the tenancy key for all shop records.
func GetChatID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	}
	return ""
}

// GetUserID extracts the user ID from a LINE source.
// Returns empty string if source type is unknown or the user ID is not
// available.
func GetUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}

// IsPersonalChat checks if the source is a personal (1-on-1) chat.
// Unknown keywords get a reply only in personal chats; groups stay quiet.
func IsPersonalChat(source webhook.SourceInterface) bool {
	_, ok := source.(webhook.UserSource)
	return ok
}
