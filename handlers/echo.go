package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
)

const maxEchoBody = 1 << 20

type echoResponse struct {
	Body    any               `json:"body"`
	Query   map[string]any    `json:"query"`
	Cookies map[string]string `json:"cookies"`
}

// Echo devolve corpo, query e cookies da requisição. Serve para testar o
// controle de admissão sem bater no wiki.
func (a *API) Echo(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxEchoBody))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid Request")
		return
	}

	writeJSON(w, http.StatusOK, echoResponse{
		Body:    decodeBody(r.Header.Get("Content-Type"), raw),
		Query:   flattenQuery(r),
		Cookies: cookieMap(r),
	})
}

func decodeBody(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" && json.Valid(raw) {
		return json.RawMessage(raw)
	}
	return string(raw)
}

// flattenQuery usa string para parâmetros de valor único e []string para repetidos.
func flattenQuery(r *http.Request) map[string]any {
	out := make(map[string]any)
	for k, vs := range r.URL.Query() {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		out[k] = vs
	}
	return out
}

func cookieMap(r *http.Request) map[string]string {
	out := make(map[string]string)
	for _, c := range r.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}
