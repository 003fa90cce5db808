package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"marketadvisor/internal/aggregate"
	"marketadvisor/internal/config"
	"marketadvisor/internal/llm"
	"marketadvisor/internal/market"
)

type server struct {
	agg  *aggregate.Aggregator
	chat *llm.Client // nil when no credential is configured
	cfg  config.Config
	log  *zap.Logger
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleSnapshot serves GET /api/v1/snapshot.
// Query params: crypto (CSV of asset ids), tickers (CSV; "AAPL",
// "fx:EURUSD", "commodity:GOLD"), topics (CSV), limit, lang.
func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	req, err := s.snapshotRequest(
		r.URL.Query().Get("crypto"),
		r.URL.Query().Get("tickers"),
		r.URL.Query().Get("topics"),
		r.URL.Query().Get("limit"),
		r.URL.Query().Get("lang"),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.agg.BuildSnapshot(r.Context(), req)
	if err != nil {
		writeSnapshotError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type adviceBody struct {
	Query   string `json:"query"`
	Crypto  string `json:"crypto"`
	Tickers string `json:"tickers"`
	Topics  string `json:"topics"`
	Limit   *int   `json:"limit"`
	Lang    string `json:"lang"`
}

// handleAdvice serves POST /api/v1/advice. The response always contains the
// snapshot; the narrative degrades to an explanation when the model is
// unavailable.
func (s *server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var b adviceBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(b.Query) == "" {
		writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	limit := ""
	if b.Limit != nil {
		limit = strconv.Itoa(*b.Limit)
	}
	req, err := s.snapshotRequest(b.Crypto, b.Tickers, b.Topics, limit, b.Lang)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := s.agg.BuildSnapshot(r.Context(), req)
	if err != nil {
		writeSnapshotError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.agg.GetAdvice(r.Context(), snap, b.Query))
}

type chatBody struct {
	Messages []llm.Message `json:"messages"`
}

type chatReply struct {
	Reply string `json:"reply"`
}

// handleChat serves POST /api/v1/chat, the multi-turn conversation endpoint.
func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Configured() {
		writeError(w, http.StatusBadRequest, "AI is not configured (set OPENAI_API_KEY)")
		return
	}
	var b chatBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msgs := b.Messages
	hasSystem := false
	for _, m := range msgs {
		if m.Role == "system" {
			hasSystem = true
			break
		}
	}
	if !hasSystem {
		msgs = append([]llm.Message{{Role: "system", Content: llm.SystemPrompt}}, msgs...)
	}
	reply, err := s.chat.Chat(r.Context(), msgs)
	if err != nil {
		s.log.Warn("chat failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "AI error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatReply{Reply: reply})
}

// snapshotRequest parses the shared request fields of the snapshot and
// advice endpoints. Instrument kinds ride on a "kind:" symbol prefix.
func (s *server) snapshotRequest(crypto, tickers, topics, limit, lang string) (aggregate.Request, error) {
	req := aggregate.Request{
		CryptoIDs:  splitCSV(strings.ToLower(crypto)),
		VSCurrency: s.cfg.Crypto.VSCurrency,
		NewsTopics: splitCSV(topics),
		NewsLimit:  s.cfg.News.DefaultLimit,
		Lang:       s.cfg.News.Language,
	}
	if lang != "" {
		req.Lang = lang
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return aggregate.Request{}, errors.New("limit must be a non-negative integer")
		}
		req.NewsLimit = n
	}
	for _, t := range splitCSV(tickers) {
		req.Tickers = append(req.Tickers, parseInstrument(t))
	}
	if len(req.CryptoIDs) > 1000 || len(req.Tickers) > 1000 {
		return aggregate.Request{}, errors.New("too many symbols (max 1000)")
	}
	return req, nil
}

func parseInstrument(s string) market.Instrument {
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "fx:"); ok {
		return market.Instrument{Symbol: strings.ToUpper(rest), Kind: market.FXPair}
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "commodity:"); ok {
		return market.Instrument{Symbol: strings.ToUpper(rest), Kind: market.Commodity}
	}
	return market.Instrument{Symbol: strings.ToUpper(s), Kind: market.Equity}
}

func writeSnapshotError(w http.ResponseWriter, err error) {
	var invalid *market.InvalidSymbolError
	if errors.As(err, &invalid) {
		writeError(w, http.StatusBadRequest, invalid.Error())
		return
	}
	if errors.Is(err, market.ErrAllProvidersUnavailable) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
