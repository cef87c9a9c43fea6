package services

import (
	"fmt"
	"strings"
	"time"

	"apartment-watcher/models"
	"apartment-watcher/notifier"
	"apartment-watcher/utils"
)

var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
)

// escapeMarkdown protects scraped text from being read as legacy Markdown.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ListingMessage announces one newly seen listing. The link preview is kept.
func ListingMessage(l models.Listing) notifier.Message {
	area := "Não informado"
	if l.Area != nil {
		area = fmt.Sprintf("%d m²", *l.Area)
	}

	var b strings.Builder
	b.WriteString("🏠 *Novo Apartamento!*\n\n")
	fmt.Fprintf(&b, "📍 *Local:* %s\n", escapeMarkdown(l.Location))
	fmt.Fprintf(&b, "💰 *Preço:* %s\n", escapeMarkdown(l.Price))
	fmt.Fprintf(&b, "📐 *Área:* %s\n", area)
	fmt.Fprintf(&b, "📝 *Título:* %s\n\n", escapeMarkdown(l.Title))
	fmt.Fprintf(&b, "🔗 [Ver anúncio](%s)", l.Link)

	return notifier.Message{Text: b.String()}
}

// SummaryMessage reports the counters of a finished cycle.
func SummaryMessage(r *models.CycleReport, loc *time.Location) notifier.Message {
	text := fmt.Sprintf("✅ *Verificação #%d concluída*\n\n"+
		"🔍 Total encontrado: %d\n"+
		"📍 Nos bairros filtrados: %d\n"+
		"🆕 Novos: %d\n\n"+
		"⏰ Próxima verificação: %s",
		r.CheckIndex, r.TotalFound, r.TotalFiltered, r.NovelCount(),
		utils.FormatLocal(r.NextCheck, loc))

	return notifier.Message{Text: text, DisablePreview: true}
}

// ErrorMessage reports a failed cycle.
func ErrorMessage(err error) notifier.Message {
	return notifier.Message{
		Text:           "❌ *Erro na verificação*\n\n" + escapeMarkdown(err.Error()),
		DisablePreview: true,
	}
}
