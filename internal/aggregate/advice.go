package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"marketadvisor/internal/market"
)

const narrativeUnconfigured = "AI is not configured. Set OPENAI_API_KEY to enable advice narratives; " +
	"the market snapshot is complete without it."

// GetAdvice asks the LLM for a narrative over the snapshot and the user's
// question. It never fails: without a configured model it returns a fixed
// explanation, and a model error degrades to an explanatory narrative, since
// the snapshot itself is still useful to the caller. The disclaimer is
// appended by policy regardless of what the model produced.
func (a *Aggregator) GetAdvice(ctx context.Context, snap market.Snapshot, query string) market.AdviceResult {
	res := market.AdviceResult{Snapshot: snap, Disclaimer: market.Disclaimer}
	if a.llm == nil {
		res.Narrative = narrativeUnconfigured
		return res
	}
	text, err := a.llm.Summarize(ctx, buildPrompt(snap, query))
	if err != nil {
		a.log.Warn("advice narrative failed", zap.Error(err))
		res.Narrative = fmt.Sprintf("Advice is temporarily unavailable (%v). The market snapshot is still current.", err)
		return res
	}
	res.Narrative = text
	return res
}

func buildPrompt(snap market.Snapshot, query string) string {
	data, err := json.Marshal(snap)
	if err != nil {
		data = []byte("{}")
	}
	var b strings.Builder
	b.WriteString("You are an investment research assistant. Be concise and neutral. ")
	b.WriteString("Answer the user's question using the market snapshot below. ")
	b.WriteString("If the snapshot lacks the data needed, say so rather than guessing.\n\n")
	b.WriteString("Market snapshot (JSON):\n")
	b.Write(data)
	b.WriteString("\n\nUser question: ")
	b.WriteString(strings.TrimSpace(query))
	return b.String()
}
