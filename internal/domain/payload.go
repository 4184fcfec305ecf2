package domain

import "strings"

// ActionPrefixTake marks the callback button that claims an offer.
// Buttons carry "<action>_<orderId>" in their callback data.
const ActionPrefixTake = "take_"

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type ReplyMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// OrderPayload is the body of a publish request. It is also what gets cached
// in the payload store so a refused order can be re-published verbatim.
type OrderPayload struct {
	ChatID      string       `json:"chat_id,omitempty"`
	Text        string       `json:"text"`
	ParseMode   string       `json:"parse_mode,omitempty"`
	ReplyMarkup *ReplyMarkup `json:"reply_markup,omitempty"`
}

// MessageLocation remembers where an offer message was posted.
type MessageLocation struct {
	ChatID    string `json:"chatId"`
	MessageID int    `json:"messageId"`
}

// ExtractOrderID pulls the order id out of the first "take" button of the
// payload's keyboard. Empty string when the payload carries no such button.
func ExtractOrderID(p OrderPayload) string {
	if p.ReplyMarkup == nil {
		return ""
	}
	for _, row := range p.ReplyMarkup.InlineKeyboard {
		for _, b := range row {
			if len(b.CallbackData) > len(ActionPrefixTake) &&
				strings.HasPrefix(strings.ToLower(b.CallbackData), ActionPrefixTake) {
				return b.CallbackData[len(ActionPrefixTake):]
			}
		}
	}
	return ""
}
