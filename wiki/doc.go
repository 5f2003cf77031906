// Package wiki raspa páginas de um site Wikidot: lista de páginas, fonte de uma
// página e contagens por tag.
//
// Cada busca espera o Pacer do host de destino antes de sair, e respeita o
// contexto da requisição que a disparou.
package wiki
