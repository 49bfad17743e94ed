package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"linkgrab/internal/media"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(8)
	urlStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// maxListed caps how many image URLs the card prints.
const maxListed = 5

// Card renders a resolved result for the terminal.
func Card(r *media.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Title))
	b.WriteString("\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("平台", r.Platform)
	row("作者", r.Author)
	row("来源", r.SourceURL)

	switch r.Kind {
	case media.Video:
		row("视频", urlStyle.Render(r.VideoURL))
	case media.ImageSet:
		row("图片", fmt.Sprintf("%d 张", len(r.Images)))
		for i, u := range r.Images {
			if i == maxListed {
				b.WriteString(fmt.Sprintf("  … %d more\n", len(r.Images)-maxListed))
				break
			}
			b.WriteString("  ")
			b.WriteString(urlStyle.Render(u))
			b.WriteString("\n")
		}
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}
