package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/mail-agent/internal/ai"
)

// Route identifies which information-gathering backend handles a query.
type Route string

const (
	RouteWeb Route = "WEB"
	RouteRAG Route = "RAG"
	RouteDB  Route = "DB"
)

// Router classifies a query and runs only the chosen branch: a classifier
// stage picks the route at runtime, the matching tool supplies raw results,
// and a specialist prompt turns them into an answer.
type Router struct {
	llm   ai.Completer
	tools map[Route]Tool
}

// NewRouter creates a router over the three standard backends.
func NewRouter(llm ai.Completer) *Router {
	return &Router{
		llm: llm,
		tools: map[Route]Tool{
			RouteWeb: webSearchTool,
			RouteRAG: ragSearchTool,
			RouteDB:  dbCallTool,
		},
	}
}

const classifierSystem = `You are a supervisor that routes queries to the right agent.

Analyze the query and decide which ONE agent should handle it:
- WEB: for public/latest info, general knowledge
- RAG: for internal docs, company-specific knowledge
- DB: for database queries, structured data

Return ONLY: WEB, RAG, or DB`

// branchSystems are the specialist prompts per route.
var branchSystems = map[Route]string{
	RouteWeb: "You are a web research specialist. Use the search results " +
		"to answer the query clearly.",
	RouteRAG: "You are a knowledge base specialist. Use the internal docs " +
		"to answer the query clearly.",
	RouteDB: "You are a data specialist. Use the database results " +
		"to answer the query clearly.",
}

// Route asks the classifier which backend should handle the query.
// Unrecognized classifier output falls back to the web route.
func (r *Router) Route(ctx context.Context, query string) (Route, error) {
	out, err := r.llm.Complete(ctx, classifierSystem, fmt.Sprintf(
		"User query: %s\n\nWhich agent should handle this? "+
			"Return only: WEB, RAG, or DB", query,
	))
	if err != nil {
		return "", fmt.Errorf("classifying query: %w", err)
	}

	return parseRoute(out), nil
}

// parseRoute normalizes classifier output into a valid route.
func parseRoute(s string) Route {
	switch Route(strings.ToUpper(strings.TrimSpace(s))) {
	case RouteRAG:
		return RouteRAG
	case RouteDB:
		return RouteDB
	default:
		return RouteWeb
	}
}

// Run classifies the query, invokes only the chosen branch's tool, and has
// the branch specialist frame the answer.
func (r *Router) Run(ctx context.Context, query string) (string, error) {
	route, err := r.Route(ctx, query)
	if err != nil {
		return "", err
	}

	result := r.tools[route](query)

	answer, err := r.llm.Complete(ctx, branchSystems[route], fmt.Sprintf(
		"Query: %s\n\nResults: %s\n\nProvide a clear answer.",
		query, result,
	))
	if err != nil {
		return "", fmt.Errorf("running %s branch: %w", route, err)
	}

	return answer, nil
}
