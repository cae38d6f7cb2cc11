package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const transcriptWidth = 80

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

func printUser(text string) {
	fmt.Println(userStyle.Render("You: ") + text)
}

func printAssistant(text string) {
	fmt.Println(assistantStyle.Render(wordwrap.String("Aida: "+text, transcriptWidth)))
}

func printStatus(text string) {
	fmt.Println(statusStyle.Render(text))
}

func printError(text string) {
	fmt.Println(errorStyle.Render(text))
}
