package pipeline

import (
	"context"
	"fmt"

	"github.com/nhle/mail-agent/internal/ai"
	"github.com/nhle/mail-agent/internal/model"
)

// FormatEmail renders a fetched record as the seed input for the chain.
func FormatEmail(rec model.EmailRecord) string {
	return fmt.Sprintf(
		"From: %s\nSubject: %s\nDate: %s\n\nContent:\n%s",
		rec.Sender, rec.Subject, rec.Date, rec.Body,
	)
}

// ReaderStage analyzes the incoming email: sender intent, key points,
// tone, and what a response needs to cover.
type ReaderStage struct {
	llm ai.Completer
}

func (s *ReaderStage) Name() string { return "reader" }

func (s *ReaderStage) Run(ctx context.Context, t *Transcript) (string, error) {
	const system = "You are an expert email analyst. You excel at " +
		"extracting important information from emails, identifying the " +
		"sender's intent, and summarizing the key points that need to be " +
		"addressed in a response."

	user := fmt.Sprintf(`Read and analyze the following email:

%s

Extract and summarize:
1. Who is the sender?
2. What is the main purpose of this email?
3. What are the key points that need to be addressed?
4. What is the tone and urgency level?
5. What information is needed to craft an appropriate response?`,
		t.Seed())

	return s.llm.Complete(ctx, system, user)
}

// GatherStage answers the reader's open information needs through the
// router, so only the relevant backend is consulted.
type GatherStage struct {
	router *Router
}

func (s *GatherStage) Name() string { return "gather" }

func (s *GatherStage) Run(ctx context.Context, t *Transcript) (string, error) {
	return s.router.Run(ctx, t.Last())
}

// WriterStage turns the accumulated analysis into a complete reply draft.
type WriterStage struct {
	llm ai.Completer
}

func (s *WriterStage) Name() string { return "writer" }

func (s *WriterStage) Run(ctx context.Context, t *Transcript) (string, error) {
	const system = "You are a professional email writer. You craft " +
		"clear, appropriately-toned reply drafts that address every " +
		"point raised in the original message."

	var analysis string
	for _, e := range t.Entries() {
		if e.Stage == "input" {
			continue
		}
		analysis += fmt.Sprintf("[%s]\n%s\n\n", e.Stage, e.Text)
	}

	user := fmt.Sprintf(`Based on the following email analysis, generate a professional email draft response:

%s
The draft should:
1. Be professional and appropriate in tone
2. Address all key points from the original email
3. Be clear and concise
4. Include a proper greeting and closing
5. Match the urgency level of the original email`, analysis)

	return s.llm.Complete(ctx, system, user)
}

// NewEmailChain builds the standard reader -> gather -> writer chain.
func NewEmailChain(llm ai.Completer) *Chain {
	return NewChain(
		&ReaderStage{llm: llm},
		&GatherStage{router: NewRouter(llm)},
		&WriterStage{llm: llm},
	)
}
