package conversation

import (
	"fmt"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/token"
	"SLH-Bot/internal/wallet"
)

const (
	msgAskAmount        = "💸 כמה %s תרצה להעביר?\nשלח סכום (למשל 12.5) או \"ביטול\" כדי לצאת."
	msgInvalidAmount    = "❌ סכום לא תקין. שלח מספר חיובי, למשל 12.5."
	msgTooPrecise       = "❌ לטוקן יש %d ספרות אחרי הנקודה בלבד. נסה סכום אחר."
	msgAskRecipient     = "📬 לאיזו כתובת לשלוח %s %s?\nשלח כתובת BSC מלאה (מתחילה ב-0x)."
	msgInvalidAddress   = "❌ כתובת לא תקינה. שלח כתובת של 42 תווים שמתחילה ב-0x."
	msgChecksumMismatch = "❌ בדיקת ה-checksum של הכתובת נכשלה. העתק את הכתובת בדיוק כפי שהיא, עם אותיות גדולות וקטנות.\nהצורה הנכונה: %s"
	msgConfirm          = "🔎 אישור העברה\n\nסכום: %s %s\nאל: %s\n%s\nלאשר? (כן / לא)"
	msgConfirmBalance   = "יתרה נוכחית: %s %s"
	msgConfirmNoKey     = "⚠️ עדיין לא נרשם מפתח חתימה. שלח /setkey לפני האישור."
	msgAskYesNo         = "נא לענות \"כן\" או \"לא\"."
	msgCancelled        = "🚫 ההעברה בוטלה."
	msgInsufficient     = "❌ אין מספיק יתרה.\nיתרה נוכחית: %s %s\nנדרש: %s %s"
	msgMissingKey       = "🔑 לא נמצא מפתח חתימה. שלח /setkey <מפתח פרטי> ואז התחל שוב עם /transfer."
	msgSuccess          = "✅ ההעברה נשלחה!\n\nמזהה עסקה: %s\n%s"
	msgFailed           = "❌ ההעברה נכשלה: %s"
	msgInternalError    = "⚠️ אירעה שגיאה, ההעברה הופסקה. נסה שוב מאוחר יותר."
)

func resultMessage(r wallet.TransferResult, symbol string) string {
	if r.OK() {
		return fmt.Sprintf(msgSuccess, r.TxHash, r.ExplorerURL)
	}
	switch r.Code {
	case xerrors.CodeInsufficientBalance:
		return insufficientMessage(r.Balance, r.Required, symbol)
	case xerrors.CodeMissingCredential:
		return msgMissingKey
	default:
		return fmt.Sprintf(msgFailed, r.Message)
	}
}

func insufficientMessage(balance, required token.Amount, symbol string) string {
	return fmt.Sprintf(msgInsufficient, balance, symbol, required, symbol)
}
