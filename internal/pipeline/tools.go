package pipeline

import "fmt"

// Tool answers an information-gathering query from one backend.
type Tool func(query string) string

// webSearchTool looks up public or latest information.
// Simulated; replace with a real search API.
func webSearchTool(query string) string {
	return fmt.Sprintf("[WEB SEARCH] Best public info about: %s", query)
}

// ragSearchTool looks up internal knowledge-base documents.
// Simulated; replace with a real vector store.
func ragSearchTool(query string) string {
	return fmt.Sprintf("[RAG] Internal knowledge for: %s", query)
}

// dbCallTool queries structured data.
// Simulated; replace with a real database or API.
func dbCallTool(query string) string {
	return fmt.Sprintf("[DB] Queried database with: %s", query)
}
