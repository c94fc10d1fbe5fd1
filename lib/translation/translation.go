package translation

import (
	"fmt"
	"strings"

	"github.com/leonelquinteros/gotext"
)

const domain = "default"

// Translator looks messages up in a gotext locale. Message ids are the
// Chinese texts, so a missing locale falls back to them unchanged.
type Translator struct {
	locale *gotext.Locale
}

// New loads <dir>/<lang>/default.po (or LC_MESSAGES/default.po) if present
func New(dir, lang string) *Translator {
	l := gotext.NewLocale(dir, normalize(lang))
	l.AddDomain(domain)
	return &Translator{locale: l}
}

func (t *Translator) Translate(msgID string, vars ...interface{}) string {
	if t == nil || t.locale == nil {
		if len(vars) == 0 {
			return msgID
		}
		return fmt.Sprintf(msgID, vars...)
	}
	return t.locale.Get(msgID, vars...)
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "und" || lang == "" {
		return "zh"
	}
	return lang
}
