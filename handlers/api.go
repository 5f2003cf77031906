package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"wikidot-gateway/middleware/requestid"
	"wikidot-gateway/wiki"
)

// Scraper é o que os endpoints usam do wiki.Client.
type Scraper interface {
	AllPageLinks(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context) wiki.Statistics
	TagCloudCount(ctx context.Context, rawURL string) (int, error)
	PageSource(ctx context.Context, page string) (string, error)
	OwnsURL(raw string) bool
}

type API struct {
	wiki Scraper
	log  *zap.Logger
}

func NewAPI(s Scraper, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{wiki: s, log: log}
}

func (a *API) fail(r *http.Request, w http.ResponseWriter, op string, err error) {
	a.log.Error("scrape failed",
		zap.String("op", op),
		zap.String("request_id", requestid.FromContext(r.Context())),
		zap.Error(err))
	internalError(w)
}

// Pages lista os links únicos de todas as páginas do wiki.
func (a *API) Pages(w http.ResponseWriter, r *http.Request) {
	links, err := a.wiki.AllPageLinks(r.Context())
	if err != nil {
		a.fail(r, w, "pages", err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (a *API) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.wiki.Statistics(r.Context()))
}

// TagNumber conta as tags da nuvem em ?url=, que precisa ser do próprio wiki.
// Falha de busca vira -1, como nas estatísticas.
func (a *API) TagNumber(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" || !a.wiki.OwnsURL(target) {
		writeMessage(w, http.StatusBadRequest, "Invalid Request")
		return
	}

	n, err := a.wiki.TagCloudCount(r.Context(), target)
	if err != nil {
		a.log.Warn("tag count failed", zap.String("url", target), zap.Error(err))
		n = -1
	}
	writeJSON(w, http.StatusOK, map[string]int{"TagNumber": n})
}

type sourceResponse struct {
	Page   string `json:"page"`
	Source string `json:"source"`
}

func (a *API) Source(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("page"))
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid Request")
		return
	}

	src, err := a.wiki.PageSource(r.Context(), name)
	if err != nil {
		a.fail(r, w, "source", err)
		return
	}
	writeJSON(w, http.StatusOK, sourceResponse{Page: name, Source: src})
}
