package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// FormatAlert wraps a plain-text failure description into a Telegram HTML message.
func FormatAlert(text string, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚠️ <b>QuoteLedger</b> | %s UTC\n\n", at.UTC().Format("2006-01-02 15:04:05")))
	lines := strings.SplitN(text, "\n", 2)
	b.WriteString("<b>" + html.EscapeString(lines[0]) + "</b>")
	if len(lines) == 2 && lines[1] != "" {
		b.WriteString("\n<code>" + html.EscapeString(lines[1]) + "</code>")
	}
	return b.String()
}
