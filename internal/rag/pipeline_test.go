package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sena/anime-rec/internal/config"
	"github.com/sena/anime-rec/internal/index"
	"github.com/sena/anime-rec/internal/ingest"
	"github.com/sena/anime-rec/internal/recerr"
	"github.com/sena/anime-rec/internal/retrieve"
	"github.com/sena/anime-rec/internal/session"
)

type stubRetriever struct {
	docs []string
	err  error
}

func (s *stubRetriever) Retrieve(context.Context, string) ([]string, error) {
	return s.docs, s.err
}

// stubGenerator records every prompt and answers from a queue.
type stubGenerator struct {
	prompts []string
	answers []string
	err     error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	answer := s.answers[0]
	if len(s.answers) > 1 {
		s.answers = s.answers[1:]
	}
	return answer, nil
}

func TestAnswerAppendsHistoryInOrder(t *testing.T) {
	sessions := session.NewStore()
	gen := &stubGenerator{answers: []string{"A1", "A2"}}
	p := New(&stubRetriever{docs: []string{"doc"}}, gen, sessions)

	for _, q := range []string{"Q1", "Q2"} {
		if _, err := p.Answer(context.Background(), q, "s1"); err != nil {
			t.Fatalf("Answer(%s) failed: %v", q, err)
		}
	}

	turns := sessions.History("s1")
	want := []session.Turn{
		{Role: session.RoleUser, Content: "Q1"},
		{Role: session.RoleAssistant, Content: "A1"},
		{Role: session.RoleUser, Content: "Q2"},
		{Role: session.RoleAssistant, Content: "A2"},
	}
	if len(turns) != len(want) {
		t.Fatalf("expected %d turns, got %d: %v", len(want), len(turns), turns)
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Fatalf("turn %d: got %+v, want %+v", i, turns[i], want[i])
		}
	}

	// The second prompt carries the first exchange as history.
	second := gen.prompts[1]
	if !strings.Contains(second, "user: Q1") || !strings.Contains(second, "assistant: A1") {
		t.Fatalf("second prompt missing history:\n%s", second)
	}
}

func TestAnswerSessionIsolation(t *testing.T) {
	sessions := session.NewStore()
	p := New(&stubRetriever{docs: []string{"doc"}}, &stubGenerator{answers: []string{"A"}}, sessions)

	if _, err := p.Answer(context.Background(), "Q", "s1"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if got := sessions.History("s2"); len(got) != 0 {
		t.Fatalf("s2 history must be untouched, got %v", got)
	}
}

func TestAnswerPromptContainsContext(t *testing.T) {
	sessions := session.NewStore()
	gen := &stubGenerator{answers: []string{"A"}}
	docs := []string{"Title: X | Overview: A hero fights. | Genres: Action", "Title: Y | Overview: More. | Genres: Drama"}
	p := New(&stubRetriever{docs: docs}, gen, sessions)

	if _, err := p.Answer(context.Background(), "suggest an action anime", "s1"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, docs[0]+"\n\n"+docs[1]) {
		t.Fatalf("prompt missing joined context block:\n%s", prompt)
	}
	if !strings.Contains(prompt, "suggest an action anime") {
		t.Fatalf("prompt missing question:\n%s", prompt)
	}
}

func TestAnswerGenerationFailureLeavesHistoryUntouched(t *testing.T) {
	sessions := session.NewStore()
	sessions.Append("s1", session.Turn{Role: session.RoleUser, Content: "earlier"})
	genErr := fmt.Errorf("%w: rate limited", recerr.ErrGeneration)
	p := New(&stubRetriever{docs: []string{"doc"}}, &stubGenerator{err: genErr}, sessions)

	_, err := p.Answer(context.Background(), "Q", "s1")
	if !errors.Is(err, recerr.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	if turns := sessions.History("s1"); len(turns) != 1 {
		t.Fatalf("history changed on failed generation: %v", turns)
	}
}

func TestAnswerRetrievalFailureSkipsGeneration(t *testing.T) {
	sessions := session.NewStore()
	gen := &stubGenerator{answers: []string{"A"}}
	retErr := fmt.Errorf("%w: backend down", recerr.ErrEmbedding)
	p := New(&stubRetriever{err: retErr}, gen, sessions)

	_, err := p.Answer(context.Background(), "Q", "s1")
	if !errors.Is(err, recerr.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Fatal("generator must not be called when retrieval fails")
	}
	if turns := sessions.History("s1"); len(turns) != 0 {
		t.Fatalf("history changed on failed retrieval: %v", turns)
	}
}

// e2eEmbedder maps the one indexed record and the query onto nearby
// vectors so real index + retriever wiring can run without a backend.
type e2eEmbedder struct{}

func (e2eEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (e2eEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.9, 0.1}, nil
}

func TestAnswerEndToEnd(t *testing.T) {
	ctx := context.Background()
	combined := ingest.CombinedInfo("X", "A hero fights.", "Action")

	store, err := index.Build(ctx, t.TempDir(), "anime_collection", []string{combined}, e2eEmbedder{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cfg := config.RetrieverConfig{DefaultType: "similarity"}
	cfg.Settings.Similarity.SearchKwargs.K = 1
	retriever, err := retrieve.New(store, cfg)
	if err != nil {
		t.Fatalf("retriever setup failed: %v", err)
	}

	gen := &stubGenerator{answers: []string{"Watch X."}}
	p := New(retriever, gen, session.NewStore())

	answer, err := p.Answer(ctx, "suggest an action anime", "s1")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "Watch X." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if !strings.Contains(gen.prompts[0], combined) {
		t.Fatalf("prompt missing retrieved record verbatim:\n%s", gen.prompts[0])
	}
}
