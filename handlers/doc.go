// Package handlers agrupa os handlers HTTP dos endpoints de scraping, health e
// estatísticas de admissão. Nenhum deles sabe do controle de admissão: o
// roteador embrulha cada um com seu próprio ratelimit.Controller.
package handlers
