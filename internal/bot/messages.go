package bot

const (
	msgWelcome = "👋 ברוך הבא %s!\n\nSLH Platform, הבית של מטבע %s ב-BNB Smart Chain.\n\n" +
		"• 👛 ניהול ארנק\n• 🎁 העברות בקהילה\n• 🛍️ חנות אישית\n• 🤖 עוזר AI\n\nבחר אחת האפשרויות למטה 👇"
	msgHelp = "📖 פקודות זמינות:\n" +
		"/wallet [כתובת] - הצגה או רישום של כתובת הארנק\n" +
		"/balance - יתרת %s\n" +
		"/transfer - העברת טוקנים\n" +
		"/setkey <מפתח> - רישום מפתח חתימה זמני\n" +
		"/cancel - ביטול פעולה\n" +
		"/history - היסטוריית פעולות\n" +
		"/store - המוצרים שלך\n" +
		"/add שם, מחיר - הוספת מוצר\n" +
		"/ai <שאלה> - שאלה לעוזר AI"
	msgUnknown         = "אשמח לעזור לך! בחר אחת האפשרויות מהתפריט 📱"
	msgUnknownCommand  = "❓ פקודה לא מוכרת. שלח /help לרשימת הפקודות."
	msgNothingToCancel = "אין פעולה פעילה לביטול."

	msgNoWallet        = "👛 עדיין לא רשומה כתובת ארנק.\nשלח את כתובת ה-BSC שלך (מתחילה ב-0x)."
	msgWallet          = "👛 הארנק שלך\n\nכתובת: %s\n💰 יתרה: %s"
	msgBalance         = "💰 היתרה שלך: %s %s"
	msgBalanceError    = "⚠️ לא ניתן לקרוא את היתרה כרגע. נסה שוב מאוחר יותר."
	msgWalletSaved     = "✅ כתובת הארנק נשמרה!\n\nכתובת: %s\n💰 יתרה: %s"
	msgInvalidWallet   = "❌ כתובת ארנק לא תקינה."
	msgWalletError     = "❌ שגיאה בשמירת כתובת הארנק."
	balanceUnavailable = "לא זמינה"

	msgSetKeyUsage   = "🔑 שימוש: /setkey <מפתח פרטי בהקסדצימלי>"
	msgInvalidKey    = "❌ מפתח לא תקין."
	msgKeyRegistered = "🔑 מפתח החתימה נרשם עבור %s.\nהמפתח נשמר בזיכרון בלבד, לזמן מוגבל ולהעברה אחת.\n\n⚠️ מחק עכשיו את ההודעה עם המפתח מהצ'אט!"

	msgHistoryEmpty = "📜 אין עדיין פעולות בהיסטוריה."
	msgHistoryTitle = "📜 הפעולות האחרונות שלך:"
	msgHistoryError = "⚠️ לא ניתן לטעון את ההיסטוריה כרגע."

	msgStoreEmpty   = "אין מוצרים בחנות שלך."
	msgStoreTitle   = "🛍️ החנות שלך:"
	msgStoreError   = "⚠️ לא ניתן לטעון את החנות כרגע."
	msgProduct      = "🛍️ %s - %s %s"
	msgAddUsage     = "שימוש: /add שם מוצר, מחיר"
	msgProductAdded = "המוצר %s נוסף לחנות שלך."
	msgAddError     = "⚠️ לא ניתן לשמור את המוצר כרגע."

	msgAIMenu    = "🤖 עוזר AI של SLH\n\n📝 עזרה בכתיבת חוזה\n💡 ייעוץ השקעות\n\nבחר אפשרות או שלח שאלה:\n/ai [השאלה שלך]"
	msgCommunity = "👥 קהילת SLH\n\n1. הצטרף לקבוצה\n2. חזור לבוט ולחץ \"✅ אישור הצטרפות\""
	msgJoined    = "✅ הצטרפות אושרה! ברוך הבא לקהילת SLH."
	msgJoinError = "⚠️ לא ניתן לעדכן את הסטטוס כרגע."
	msgBackMain  = "חזרת לתפריט הראשי"
	msgSettings  = "⚙️ הגדרות - בפיתוח"

	msgAIContract   = "🤖 טיפים לכתיבת חוזה:\n\n%s"
	msgAIInvestment = "💡 ייעוץ השקעות:\n\n%s"

	aiContractQuestion   = "תן טיפים לכתיבת חוזה %s"
	aiContractSystem     = "אתה עוזר בכתיבת חוזים"
	aiInvestmentQuestion = "תן ייעוץ השקעות כללי למטבע %s"
	aiInvestmentSystem   = "אתה יועץ השקעות"

	msgStats        = "📊 הסטטיסטיקה שלך\n\nשם: %s\nמשתמש: %s\nארנק: %s\nקהילה: %s"
	msgStatsError   = "לא נמצאו נתונים עבורך במערכת."
	statusJoined    = "✅ חבר בקהילה"
	statusNotJoined = "❌ טרם הצטרף"
	notRegistered   = "לא רשום"
)
