// Package rag composes retrieval, prompt assembly, generation and
// session history into the single Answer call.
package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sena/anime-rec/internal/llm"
	"github.com/sena/anime-rec/internal/prompt"
	"github.com/sena/anime-rec/internal/session"
)

// Documents are joined into one context block with this separator.
const docSeparator = "\n\n"

// Retriever yields the documents relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// HistoryStore hands out and extends per-session conversation history.
type HistoryStore interface {
	History(id string) []session.Turn
	Append(id string, turns ...session.Turn)
}

type Pipeline struct {
	retriever Retriever
	generator llm.Generator
	history   HistoryStore
}

func New(retriever Retriever, generator llm.Generator, history HistoryStore) *Pipeline {
	return &Pipeline{retriever: retriever, generator: generator, history: history}
}

// Answer runs one full query: retrieve documents for the question
// (retrieval is query-only, history is not consulted), assemble the
// prompt from context block + history + question, generate, and only
// then commit both turns to the session. Any failure on the way leaves
// the history untouched so a failed call cannot corrupt later context.
func (p *Pipeline) Answer(ctx context.Context, question, sessionID string) (string, error) {
	start := time.Now()
	history := p.history.History(sessionID)

	docs, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	rendered := prompt.Render(history, strings.Join(docs, docSeparator), question)

	answer, err := p.generator.Generate(ctx, rendered)
	if err != nil {
		return "", err
	}

	p.history.Append(sessionID,
		session.Turn{Role: session.RoleUser, Content: question},
		session.Turn{Role: session.RoleAssistant, Content: answer},
	)

	slog.Info("query answered",
		"session", sessionID,
		"docs", len(docs),
		"duration", time.Since(start),
	)
	return answer, nil
}
