// Package examples produces the sample questions shown when a session
// starts. Output is cosmetic: every failure falls back to a fixed list.
package examples

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sqler/sqler/internal/llm"
)

const (
	Count                  = 4
	GenerationTemperature  = 0.8
	TranslationTemperature = 0.2
	DefaultMaxTokens       = 500
)

var ErrNoQuestions = errors.New("no example questions in model response")

var (
	FallbackFrench = []string{
		"Quel est le chiffre d'affaire en 2004 ?",
		"Qui sont nos meilleurs clients ?",
		"Où sont localisés nos meilleurs clients ?",
		"Dans quels mois de l'année fait-on plus de chiffre d'affaire ?",
	}
	FallbackEnglish = []string{
		"What is the turnover in 2004?",
		"Who are our best customers?",
		"Where are our best customers located?",
		"In which months of the year do we make more turnover?",
	}
)

const generationPrompt = `Vous êtes un expert en analyse de données et en SQL. Votre tâche est de générer 4 questions d'analyse de données que l'on pourrait poser à une base de données %s. Les questions doivent être diverses, pertinentes et basées sur le schéma de la base de données fourni ci-dessous.
Chaque question doit être formulée en français comme si elle provenait d'un utilisateur final non technique.
Le résultat doit être une liste de 4 questions numérotées, SANS aucun autre texte, explication ou formatage.

Schéma de la base de données :
%s

Exemple de sortie attendue :
1. Quelle est notre chiffre d'affaires total pour l'année dernière ?
2. Quels sont nos 5 produits les plus vendus ?
3. Où sont situés nos employés ?
4. Y a-t-il des clients dont le solde est impayé ?

Maintenant, générez 4 questions basées sur le schéma de la base de données ClassicModels :`

const translationPrompt = `Vous êtes un traducteur de texte expert. Votre tâche est de traduire une liste de questions d'analyse de données du français vers l'anglais. Le résultat doit être une liste numérotée de questions traduites. Ne pas inclure de texte d'introduction ou de conclusion, seulement les questions.

Questions à traduire :
%s

Traduction en anglais :`

// Set holds the same questions in French and English.
type Set struct {
	French    []string `json:"fr"`
	English   []string `json:"en"`
	Generated bool     `json:"generated"`
}

func Fallback() Set {
	return Set{
		French:  append([]string(nil), FallbackFrench...),
		English: append([]string(nil), FallbackEnglish...),
	}
}

type Generator struct {
	Client    llm.Client
	Model     string
	Dialect   string
	MaxTokens int
	Logger    *slog.Logger
}

// Generate asks the model for Count questions about the schema.
func (g *Generator) Generate(ctx context.Context, schemaText string) ([]string, error) {
	dialect := g.Dialect
	if dialect == "" {
		dialect = "MySQL"
	}
	return g.complete(ctx, "examples", fmt.Sprintf(generationPrompt, dialect, schemaText), GenerationTemperature)
}

// Translate returns the English version of questions.
func (g *Generator) Translate(ctx context.Context, questions []string) ([]string, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return g.complete(ctx, "translate", fmt.Sprintf(translationPrompt, strings.Join(questions, "\n")), TranslationTemperature)
}

// Examples generates and translates, substituting the fixed lists for any
// step that fails. It never returns an error.
func (g *Generator) Examples(ctx context.Context, schemaText string) Set {
	set := Set{Generated: true}

	french, err := g.Generate(ctx, schemaText)
	if err != nil {
		g.logger().Warn("example question generation failed", "error", err)
		french, set.Generated = FallbackFrench, false
	}
	english, err := g.Translate(ctx, french)
	if err != nil {
		g.logger().Warn("example question translation failed", "error", err)
		english, set.Generated = FallbackEnglish, false
	}

	set.French = append([]string(nil), french...)
	set.English = append([]string(nil), english...)
	return set
}

func (g *Generator) complete(ctx context.Context, purpose, prompt string, temperature float64) ([]string, error) {
	if g.Client == nil {
		return nil, fmt.Errorf("language model client is required")
	}
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	resp, err := g.Client.Complete(ctx, llm.Request{
		Purpose:     purpose,
		System:      prompt,
		Model:       g.Model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}
	questions := ParseList(resp.Text)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

var listMarker = regexp.MustCompile(`^\s*(?:\d+\s*[.)]|[-*•])\s+`)

// ParseList splits a model answer into questions. When some lines carry a
// list marker ("1.", "2)", "-") only those lines are kept, without the
// marker, so a stray introduction line is dropped.
func ParseList(text string) []string {
	var marked, all []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if loc := listMarker.FindStringIndex(line); loc != nil {
			if item := strings.TrimSpace(line[loc[1]:]); item != "" {
				marked = append(marked, item)
			}
			continue
		}
		all = append(all, line)
	}
	if len(marked) > 0 {
		return marked
	}
	return all
}
