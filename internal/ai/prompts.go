package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/thomas-vilte/gemscout/internal/vcs"
)

const (
	readmeLimit     = 4000
	maxFileSamples  = 5
	fileSampleLimit = 500
	maxCommits      = 5
)

// FileSample is a source file excerpt shown to the reviewer.
type FileSample struct {
	Path    string
	Content string
}

// ReviewRequest holds the parameters for the review template
type ReviewRequest struct {
	FullName    string
	Description string
	Language    string
	Stars       int
	Forks       int
	Topics      string
	HasLicense  bool
	HasWiki     bool
	Readme      string
	Files       []FileSample
	Commits     []string
}

// NewReviewRequest builds a request from a repository profile, trimming the
// README, file samples and commit messages to the prompt limits.
func NewReviewRequest(p vcs.RepoProfile, files ...FileSample) ReviewRequest {
	req := ReviewRequest{
		FullName:    p.FullName(),
		Description: p.Description(),
		Language:    p.Language(),
		Stars:       p.Stars(),
		Forks:       p.Forks(),
		Topics:      strings.Join(p.Topics(), ", "),
		HasLicense:  p.HasLicense(),
		HasWiki:     p.HasWiki(),
		Readme:      truncate(p.ReadmeExcerpt(), readmeLimit),
	}
	if req.Description == "" {
		req.Description = "No description"
	}
	if req.Language == "" {
		req.Language = "Unknown"
	}

	for _, f := range files {
		if len(req.Files) == maxFileSamples {
			break
		}
		req.Files = append(req.Files, FileSample{Path: f.Path, Content: truncate(f.Content, fileSampleLimit)})
	}

	for _, msg := range p.CommitMessages() {
		if len(req.Commits) == maxCommits {
			break
		}
		subject, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
		if subject != "" {
			req.Commits = append(req.Commits, subject)
		}
	}
	return req
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

// BuildReviewPrompt renders the review template for the given locale.
func BuildReviewPrompt(lang string, req ReviewRequest) (string, error) {
	return RenderPrompt("review", GetReviewPromptTemplate(lang), req)
}

func GetReviewPromptTemplate(lang string) string {
	switch lang {
	case "es":
		return reviewPromptTemplateES
	default:
		return reviewPromptTemplateEN
	}
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

const (
	reviewPromptTemplateEN = `# Task
Act as a Senior Software Architect reviewing an open-source repository for a curated list of hidden gems.

# Repository
- Name: {{.FullName}}
- Description: {{.Description}}
- Language: {{.Language}}
- Stars: {{.Stars}} | Forks: {{.Forks}}
{{- if .Topics}}
- Topics: {{.Topics}}
{{- end}}
- License: {{if .HasLicense}}yes{{else}}no{{end}} | Wiki: {{if .HasWiki}}yes{{else}}no{{end}}

# README
{{if .Readme}}{{.Readme}}{{else}}(no README available){{end}}
{{- if .Files}}

# Sampled Files
{{- range .Files}}
## {{.Path}}
{{.Content}}
{{- end}}
{{- end}}
{{- if .Commits}}

# Recent Commits
{{- range .Commits}}
- {{.}}
{{- end}}
{{- end}}

# Instructions
Rate each dimension with an integer from 1 (poor) to 10 (excellent):
- architecture: code organization and design
- documentation: README and docs quality
- testing: evidence of tests and CI
- practices: conventions, hygiene and maintainability
- innovation: how novel or useful the project is

# Output Format
Respond ONLY with a JSON object, no markdown and no extra text:
{
  "architecture": 7,
  "documentation": 7,
  "testing": 7,
  "practices": 7,
  "innovation": 7,
  "key_strengths": ["..."],
  "improvements": ["..."],
  "assessment": "one or two sentences"
}`

	reviewPromptTemplateES = `# Tarea
Actuá como Arquitecto de Software Senior revisando un repositorio open-source para una lista curada de joyas ocultas.

# Repositorio
- Nombre: {{.FullName}}
- Descripción: {{.Description}}
- Lenguaje: {{.Language}}
- Estrellas: {{.Stars}} | Forks: {{.Forks}}
{{- if .Topics}}
- Topics: {{.Topics}}
{{- end}}
- Licencia: {{if .HasLicense}}sí{{else}}no{{end}} | Wiki: {{if .HasWiki}}sí{{else}}no{{end}}

# README
{{if .Readme}}{{.Readme}}{{else}}(sin README disponible){{end}}
{{- if .Files}}

# Archivos de muestra
{{- range .Files}}
## {{.Path}}
{{.Content}}
{{- end}}
{{- end}}
{{- if .Commits}}

# Commits recientes
{{- range .Commits}}
- {{.}}
{{- end}}
{{- end}}

# Instrucciones
Calificá cada dimensión con un entero de 1 (malo) a 10 (excelente):
- architecture: organización y diseño del código
- documentation: calidad del README y la documentación
- testing: evidencia de tests y CI
- practices: convenciones, higiene y mantenibilidad
- innovation: qué tan novedoso o útil es el proyecto

# Formato de salida
Respondé SOLO con un objeto JSON, sin markdown ni texto extra. Las claves van en inglés:
{
  "architecture": 7,
  "documentation": 7,
  "testing": 7,
  "practices": 7,
  "innovation": 7,
  "key_strengths": ["..."],
  "improvements": ["..."],
  "assessment": "una o dos oraciones"
}`
)
