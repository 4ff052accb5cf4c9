package telegram

import "github.com/microcosm-cc/bluemonday"

// telegramPolicy keeps only the HTML tags the Bot API accepts in
// parse_mode=HTML messages. Anything else in model output would make
// sendMessage reject the whole message, so it is stripped up front.
var telegramPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del",
		"span", "tg-spoiler", "code", "pre", "blockquote")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("class").OnElements("code")
	return p
}()

// SanitizeHTML reduces text to the Telegram-safe HTML subset.
func SanitizeHTML(text string) string {
	return telegramPolicy.Sanitize(text)
}
