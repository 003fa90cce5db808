package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the normalized shape returned by all price providers.
// Price is nil only when the upstream explicitly reported no data for the
// symbol; every other failure surfaces as an error, never a silent nil.
type Quote struct {
	Symbol    string           `json:"symbol"`
	Price     *decimal.Decimal `json:"price"`
	Currency  string           `json:"currency"`
	Source    string           `json:"source"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Headline is one normalized news item. Ordering is provider-determined,
// usually reverse-chronological but not guaranteed.
type Headline struct {
	Title       string     `json:"title"`
	Source      string     `json:"source,omitempty"`
	URL         string     `json:"url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Snapshot is the per-request assembly of quotes and headlines. It is built
// fresh for every request, owned by that request, and never cached.
type Snapshot struct {
	Quotes      []Quote    `json:"quotes"`
	Headlines   []Headline `json:"headlines"`
	RequestedAt time.Time  `json:"requested_at"`
}

// Disclaimer is appended to every AdviceResult by policy, never by the model.
const Disclaimer = "This is educational research, not financial advice."

// AdviceResult pairs a model narrative with the snapshot it was built from.
type AdviceResult struct {
	Narrative  string   `json:"narrative"`
	Snapshot   Snapshot `json:"snapshot"`
	Disclaimer string   `json:"disclaimer"`
}

// InstrumentKind selects the quote lookup path for a symbol.
type InstrumentKind string

const (
	Equity    InstrumentKind = "equity"
	FXPair    InstrumentKind = "fx"
	Commodity InstrumentKind = "commodity"
)

// Instrument is a symbol plus the kind that decides how it is quoted.
type Instrument struct {
	Symbol string         `json:"symbol"`
	Kind   InstrumentKind `json:"kind"`
}

// CryptoProvider fetches prices for a batch of asset ids against a quote
// currency in a single upstream call. Ids the provider does not recognize are
// simply absent from the result map.
type CryptoProvider interface {
	Name() string
	Quotes(ctx context.Context, ids []string, vs string) (map[string]Quote, error)
}

// QuoteProvider fetches a single equity, FX pair or commodity quote.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, inst Instrument) (Quote, error)
}

// NewsProvider fetches headlines for one topic. Topic iteration and limit
// accounting live in the news package, not in providers.
type NewsProvider interface {
	Name() string
	TopicHeadlines(ctx context.Context, topic string, limit int, lang string) ([]Headline, error)
}

// Summarizer turns a prompt into plain text.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}
