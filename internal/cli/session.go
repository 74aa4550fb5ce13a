// Package cli runs the interactive question session in a terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"

	"github.com/sqler/sqler/internal/examples"
	"github.com/sqler/sqler/internal/pipeline"
)

const (
	Prompt       = "Votre question (ou 'quitter' pour arrêter) : "
	NoChartLabel = "Impossible de créer un graphique avec ces données."
	greeting     = "Salut ! Je suis THE SQLer, un agent IA expert en SQL et DataViz. Je suis là pour vous aider à requêter la base de données ClassicModels en langage naturel."
	closing      = "Comment puis-je vous aider aujourd'hui ?"
)

var sentinels = []string{"quitter", "quit", "exit"}

type Asker interface {
	Ask(ctx context.Context, question string, opts pipeline.Options) pipeline.Outcome
}

type Session struct {
	Pipeline Asker
	Examples examples.Set
	In       io.Reader
	Out      io.Writer
	// Spinner animates model calls. Leave it off when Out is not a terminal.
	Spinner bool
	Logger  *slog.Logger
}

// IsSentinel reports whether input ends the session.
func IsSentinel(input string) bool {
	input = strings.TrimSpace(input)
	for _, s := range sentinels {
		if strings.EqualFold(input, s) {
			return true
		}
	}
	return false
}

// maxQuestionBytes bounds one pasted question line.
const maxQuestionBytes = 1 << 20

// Run prints the welcome box and answers questions until a sentinel, EOF or
// ctx cancellation.
func (s *Session) Run(ctx context.Context) error {
	if s.Pipeline == nil {
		return errors.New("session pipeline is required")
	}
	in, out := s.In, s.Out
	if in == nil {
		return errors.New("session input is required")
	}
	if out == nil {
		out = io.Discard
	}

	_, _ = fmt.Fprintln(out, Welcome(s.Examples))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxQuestionBytes)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, "\n"+Prompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if IsSentinel(question) {
			return nil
		}
		outcome := s.ask(ctx, question)
		_, _ = fmt.Fprint(out, Render(outcome))
	}
}

func (s *Session) ask(ctx context.Context, question string) pipeline.Outcome {
	if !s.Spinner || s.Out == nil {
		return s.Pipeline.Ask(ctx, question, pipeline.Options{})
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(s.Out).WithRemoveWhenDone(true).Start("Analyse de la question...")
	if err != nil {
		if s.Logger != nil {
			s.Logger.Debug("spinner unavailable", slog.Any("error", err))
		}
		return s.Pipeline.Ask(ctx, question, pipeline.Options{})
	}
	outcome := s.Pipeline.Ask(ctx, question, pipeline.Options{})
	_ = spinner.Stop()
	return outcome
}

// Welcome renders the greeting with French and English example questions.
func Welcome(set examples.Set) string {
	var b strings.Builder
	b.WriteString(greeting)
	b.WriteString("\n\nExemples de questions:\n")
	writeBullets(&b, set.French)
	b.WriteString("\nExample questions:\n")
	writeBullets(&b, set.English)
	b.WriteString("\n")
	b.WriteString(closing)
	return pterm.DefaultBox.WithTitle("THE SQLer").Sprint(b.String())
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}

// Render formats one outcome the way the session prints it.
func Render(o pipeline.Outcome) string {
	var b strings.Builder
	if o.SQL != "" {
		b.WriteString("\n")
		b.WriteString(pterm.DefaultSection.Sprint("Requête SQL générée"))
		b.WriteString("```sql\n" + o.SQL + "\n```\n")
	}
	if o.Status != pipeline.StatusAnswered {
		b.WriteString("\n" + o.Message() + "\n")
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(pterm.DefaultSection.Sprint("Résultats de la base de données"))
	b.WriteString(o.Table + "\n")
	if o.Result != nil && o.Result.Truncated {
		b.WriteString(pterm.Warning.Sprintfln("Résultats tronqués à %d lignes.", len(o.Result.Rows)))
	}
	if o.Export != "" {
		b.WriteString(pterm.Info.Sprintfln("Export Parquet : %s", o.Export))
	}
	if o.ExportURL != "" {
		b.WriteString(pterm.Info.Sprintfln("Lien de téléchargement : %s", o.ExportURL))
	}

	switch {
	case o.ChartPath != "":
		b.WriteString("\n" + pterm.Success.Sprintfln("Un graphique a été créé pour ces résultats. Fichier : %s", o.ChartPath))
	case o.ChartKey != "":
		b.WriteString("\n" + pterm.Success.Sprintfln("Un graphique a été publié pour ces résultats. Objet : %s", o.ChartKey))
	default:
		b.WriteString("\n" + NoChartLabel + "\n")
	}
	if o.ChartURL != "" {
		b.WriteString(pterm.Info.Sprintfln("Lien de partage : %s", o.ChartURL))
	}
	return b.String()
}
