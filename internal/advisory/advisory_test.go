package advisory_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bricpa/internal/advisory"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubGen struct {
	text  string
	err   error
	delay time.Duration

	gotSystem, gotPrompt string
	gotImages            int
}

func (s *stubGen) Name() string { return "stub" }

func (s *stubGen) Generate(ctx context.Context, system, prompt string, images []advisory.Image) (string, error) {
	s.gotSystem, s.gotPrompt, s.gotImages = system, prompt, len(images)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

var jpeg = advisory.Image{MIME: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}

func TestAnalyzeJobPhoto(t *testing.T) {
	gen := &stubGen{text: "  Surface: 20 m²  "}
	a := advisory.New(gen, time.Second)

	r := a.AnalyzeJobPhoto(context.Background(), jpeg, "Peinture")
	if !r.OK || r.Text != "Surface: 20 m²" {
		t.Fatalf("result = %+v", r)
	}
	if !strings.Contains(gen.gotPrompt, "travaux de Peinture") || gen.gotImages != 1 {
		t.Fatalf("prompt=%q images=%d", gen.gotPrompt, gen.gotImages)
	}
}

func TestAnalyzeJobPhotoFailuresAreTagged(t *testing.T) {
	cases := []struct {
		name string
		gen  advisory.Generator
		img  advisory.Image
	}{
		{"provider error", &stubGen{err: errors.New("quota exceeded")}, jpeg},
		{"empty answer", &stubGen{text: "   "}, jpeg},
		{"empty image", &stubGen{text: "ok"}, advisory.Image{}},
		{"disabled", advisory.Disabled{}, jpeg},
		{"timeout", &stubGen{text: "late", delay: time.Second}, jpeg},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := advisory.New(tc.gen, 20*time.Millisecond)
			r := a.AnalyzeJobPhoto(context.Background(), tc.img, "Peinture")
			if r.OK {
				t.Fatalf("expected failure, got %+v", r)
			}
			if r.Text != advisory.UnavailableText || r.Reason == "" {
				t.Fatalf("failure not tagged: %+v", r)
			}
		})
	}
}

func TestAnswerQuestion(t *testing.T) {
	gen := &stubGen{text: "Entre 20 et 40 €/m²."}
	a := advisory.New(gen, 0)

	r := a.AnswerQuestion(context.Background(), "Prix pour repeindre ?")
	if !r.OK || r.Text != "Entre 20 et 40 €/m²." {
		t.Fatalf("result = %+v", r)
	}
	if !strings.Contains(gen.gotSystem, "rénovation") || !strings.HasSuffix(gen.gotPrompt, "Prix pour repeindre ?") {
		t.Fatalf("system=%q prompt=%q", gen.gotSystem, gen.gotPrompt)
	}

	r = advisory.New(&stubGen{err: errors.New("boom")}, 0).AnswerQuestion(context.Background(), "x")
	if r.OK || r.Text != "" || !strings.Contains(r.Reason, "boom") {
		t.Fatalf("failed answer = %+v", r)
	}
}

func TestNilGeneratorIsDisabled(t *testing.T) {
	a := advisory.New(nil, 0)
	if a.Provider() != "none" {
		t.Fatalf("provider = %q", a.Provider())
	}
	if r := a.AnswerQuestion(context.Background(), "hello"); r.OK {
		t.Fatalf("disabled advisor answered: %+v", r)
	}
}

func TestGeminiGenerateSendsInlineImage(t *testing.T) {
	var got struct {
		Contents []struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction *struct{} `json:"systemInstruction"`
	}
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, key = r.URL.Path, r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Mur "},{"text":"fissuré"}]}}]}`))
	}))
	defer srv.Close()

	g, err := advisory.NewGemini("k-123", "models/gemini-2.0-flash", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	g.BaseURL = srv.URL

	text, err := g.Generate(context.Background(), "", "analyse", []advisory.Image{jpeg})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Mur fissuré" {
		t.Fatalf("text = %q", text)
	}
	if path != "/models/gemini-2.0-flash:generateContent" || key != "k-123" {
		t.Fatalf("path=%q key=%q", path, key)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 2 {
		t.Fatalf("parts = %+v", got.Contents)
	}
	inline := got.Contents[0].Parts[1].InlineData
	if inline == nil || inline.MimeType != "image/jpeg" || inline.Data != base64.StdEncoding.EncodeToString(jpeg.Data) {
		t.Fatalf("inline part = %+v", inline)
	}
	if got.SystemInstruction != nil {
		t.Fatal("empty system prompt should be omitted")
	}
}

func TestGeminiErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	g, _ := advisory.NewGemini("bad", "gemini-2.0-flash", srv.Client())
	g.BaseURL = srv.URL
	_, err := g.Generate(context.Background(), "sys", "q", nil)
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("err = %v", err)
	}

	if _, err := advisory.NewGemini("  ", "m", nil); err == nil {
		t.Fatal("empty key accepted")
	}
}

func TestOllamaGenerate(t *testing.T) {
	var got struct {
		Model  string   `json:"model"`
		System string   `json:"system"`
		Images []string `json:"images"`
		Stream *bool    `json:"stream"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llava","response":"Parquet abîmé","done":true}` + "\n"))
	}))
	defer srv.Close()

	o, err := advisory.NewOllama(srv.URL, "llava", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	text, err := o.Generate(context.Background(), "sys", "analyse", []advisory.Image{jpeg})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Parquet abîmé" {
		t.Fatalf("text = %q", text)
	}
	if got.Model != "llava" || got.System != "sys" || len(got.Images) != 1 {
		t.Fatalf("request = %+v", got)
	}
	if got.Stream == nil || *got.Stream {
		t.Fatal("expected stream=false")
	}
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llava' not found"}`))
	}))
	defer srv.Close()

	o, _ := advisory.NewOllama(srv.URL, "llava", srv.Client())
	a := advisory.New(o, time.Second)
	r := a.AnalyzeJobPhoto(context.Background(), jpeg, "Plomberie")
	if r.OK || !strings.Contains(r.Reason, "ollama") {
		t.Fatalf("result = %+v", r)
	}

	if _, err := advisory.NewOllama("::not a url", "m", nil); err == nil {
		t.Fatal("bad url accepted")
	}
}
