package telegram

// Main menu labels. Pressing a button sends the label as plain text.
const (
	LabelWallet    = "👛 הארנק שלי"
	LabelGift      = "🎁 שלח מתנה"
	LabelAI        = "🤖 עוזר AI"
	LabelCommunity = "👥 הצטרף לקהילה"
	LabelStats     = "📊 סטטיסטיקות"
	LabelSettings  = "⚙️ הגדרות"
)

// Callback data of inline buttons.
const (
	CallbackConfirmJoin  = "confirm_join"
	CallbackBackMain     = "back_main"
	CallbackAIContract   = "ai_contract_help"
	CallbackAIInvestment = "ai_investment_advice"
)

type KeyboardButton struct {
	Text string `json:"text"`
}

type ReplyKeyboardMarkup struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard,omitempty"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// MainKeyboard is the persistent reply keyboard shown after /start.
func MainKeyboard() ReplyKeyboardMarkup {
	return ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: LabelWallet}, {Text: LabelGift}},
			{{Text: LabelAI}, {Text: LabelCommunity}},
			{{Text: LabelStats}, {Text: LabelSettings}},
		},
		ResizeKeyboard: true,
	}
}

// CommunityKeyboard links to the group and lets the user confirm joining.
// The link row is omitted when groupURL is empty.
func CommunityKeyboard(groupURL string) InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	if groupURL != "" {
		rows = append(rows, []InlineKeyboardButton{{Text: LabelCommunity, URL: groupURL}})
	}
	rows = append(rows,
		[]InlineKeyboardButton{{Text: "✅ אישור הצטרפות", CallbackData: CallbackConfirmJoin}},
		[]InlineKeyboardButton{{Text: "🔙 חזרה", CallbackData: CallbackBackMain}},
	)
	return InlineKeyboardMarkup{InlineKeyboard: rows}
}

// AIKeyboard offers the preset assistant prompts.
func AIKeyboard() InlineKeyboardMarkup {
	return InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "📝 עזרה בכתיבת חוזה", CallbackData: CallbackAIContract}},
		{{Text: "💡 ייעוץ השקעות", CallbackData: CallbackAIInvestment}},
		{{Text: "🔙 חזרה", CallbackData: CallbackBackMain}},
	}}
}
