package lineup

import (
	"fmt"
	"strings"
)

// Narrate 將畫面轉為朗讀用的文字，供視障使用者的語音輸出
func Narrate(v View) string {
	var b strings.Builder
	b.WriteString(v.Title)
	b.WriteString(". ")

	if len(v.Cards) == 0 {
		b.WriteString("No dining halls are available right now.")
		return b.String()
	}

	for i, c := range v.Cards {
		if i > 0 {
			b.WriteString(" ")
		}
		if v.Personalized && c.MatchPercent != nil {
			fmt.Fprintf(&b, "%s, %d percent match.", c.Name, *c.MatchPercent)
		} else {
			fmt.Fprintf(&b, "%s, %s.", c.Name, c.Signature)
		}
		if len(c.TopPicks) > 0 {
			fmt.Fprintf(&b, " Top picks: %s.", strings.Join(c.TopPicks, ", "))
		}
		if c.PersonalNote != "" {
			fmt.Fprintf(&b, " %s.", strings.ReplaceAll(c.PersonalNote, labelSeparator, ". "))
		}
	}
	return b.String()
}
