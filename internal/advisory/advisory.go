// Package advisory wraps the text-generation calls used to analyse job photos
// and answer client questions. Failures never escape as errors: callers get a
// Result tagged OK=false with the reason.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("no ai provider configured")

// UnavailableText is what a Request stores when photo analysis fails.
const UnavailableText = "analysis unavailable"

// Image is one photo sent inline to the model.
type Image struct {
	MIME string
	Data []byte
}

// Generator is a text-generation backend.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, images []Image) (string, error)
	Name() string
}

// Result is the outcome of one advisory call.
type Result struct {
	OK     bool
	Text   string
	Reason string
}

func failed(err error) Result {
	return Result{OK: false, Text: UnavailableText, Reason: err.Error()}
}

const photoPrompt = `Analyse cette photo de chantier pour des travaux de %s.

Donne une estimation rapide:
1. Surface approximative en m²
2. État actuel
3. Principaux travaux nécessaires
4. Estimation de prix (fourchette basse-haute)

Sois concis (max 150 mots).`

const assistantSystem = `Tu es un assistant expert en travaux et rénovation.
Tu aides les clients à comprendre leurs besoins, estimer les coûts, choisir les matériaux.
Donne des réponses claires, précises et avec des fourchettes de prix réalistes.
Sois concis (max 200 mots) et pratique.`

type Advisor struct {
	gen     Generator
	timeout time.Duration
}

// New returns an Advisor over gen; a nil gen behaves like Disabled.
func New(gen Generator, timeout time.Duration) *Advisor {
	if gen == nil {
		gen = Disabled{}
	}
	return &Advisor{gen: gen, timeout: timeout}
}

func (a *Advisor) Provider() string { return a.gen.Name() }

func (a *Advisor) call(ctx context.Context, system, prompt string, images []Image) Result {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	text, err := a.gen.Generate(ctx, system, prompt, images)
	if err != nil {
		return failed(fmt.Errorf("%s: %w", a.gen.Name(), err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return failed(fmt.Errorf("%s: empty answer", a.gen.Name()))
	}
	return Result{OK: true, Text: text}
}

// AnalyzeJobPhoto asks for a short estimate of the work shown in img.
func (a *Advisor) AnalyzeJobPhoto(ctx context.Context, img Image, category string) Result {
	if len(img.Data) == 0 {
		return failed(errors.New("empty image"))
	}
	return a.call(ctx, "", fmt.Sprintf(photoPrompt, category), []Image{img})
}

// AnswerQuestion answers one free-form renovation question.
func (a *Advisor) AnswerQuestion(ctx context.Context, question string) Result {
	question = strings.TrimSpace(question)
	if question == "" {
		return failed(errors.New("empty question"))
	}
	r := a.call(ctx, assistantSystem, "Question: "+question, nil)
	if !r.OK {
		r.Text = ""
	}
	return r
}

// Disabled is the Generator used when no provider is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, string, []Image) (string, error) {
	return "", ErrDisabled
}

func (Disabled) Name() string { return "none" }
