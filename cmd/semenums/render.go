package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/c360studio/semenums/enum"
	"github.com/c360studio/semenums/paging"
)

const (
	colorMauve    lipgloss.Color = "#cba6f7"
	colorPeach    lipgloss.Color = "#fab387"
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMauve)
	codeStyle  = lipgloss.NewStyle().Foreground(colorPeach)
	labelStyle = lipgloss.NewStyle().Foreground(colorText)
	metaStyle  = lipgloss.NewStyle().Foreground(colorOverlay1)
	countStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
)

// renderSummary lists every enum with its value count.
func renderSummary(catalog enum.Catalog) string {
	names := catalog.Names()
	if len(names) == 0 {
		return metaStyle.Render("(no enums loaded)") + "\n"
	}

	width := 0
	for _, name := range names {
		width = max(width, lipgloss.Width(name))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d enums", len(names))))
	b.WriteString("\n")
	for _, name := range names {
		b.WriteString("  ")
		b.WriteString(codeStyle.Width(width).Render(name))
		b.WriteString("  ")
		b.WriteString(countStyle.Render(fmt.Sprintf("%d values", len(catalog[name]))))
		b.WriteString("\n")
	}
	return b.String()
}

// renderPage prints one page of an enum: a header, one line per value with
// its code and display name, and the position within the filtered list.
func renderPage(name string, page paging.Page[enum.Value]) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")

	if len(page.Content) == 0 {
		b.WriteString("  ")
		b.WriteString(metaStyle.Render("(no values on this page)"))
		b.WriteString("\n")
	}

	width := 0
	for _, v := range page.Content {
		width = max(width, lipgloss.Width(v.Code()))
	}
	for _, v := range page.Content {
		b.WriteString("  ")
		if v.Kind() == enum.KindStructured {
			b.WriteString(codeStyle.Width(width).Render(v.Code()))
			b.WriteString("  ")
			b.WriteString(labelStyle.Render(v.DisplayName()))
		} else {
			b.WriteString(codeStyle.Render(v.Code()))
		}
		b.WriteString("\n")
	}

	b.WriteString(metaStyle.Render(fmt.Sprintf("page %d of %d, %d of %d values",
		page.Number, page.TotalPages, page.NumberOfElements, page.TotalElements)))
	b.WriteString("\n")
	return b.String()
}
