// Package ratelimit fornece adapters HTTP (net/http) para o controle de admissão
// por cliente e para o limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (admissão, acquire/timeout) sem net/http
//   - infra: registro de janelas, agendador, pacer de saída, semáforo, stats
//   - ratelimit (este pacote): middlewares HTTP + extração de chave/token +
//     tradução da decisão para status e corpo JSON
//
// Fluxo de cada endpoint protegido:
//
//  1. Extrai a identidade do cliente (primeiro IP do X-Forwarded-For, senão RemoteAddr)
//  2. Lê o token do query param e chama application.Service.Decide
//  3. Rejeições respondem 400/401/429 com {"message": ...}
//  4. Bypass ou cota ok chamam o handler protegido sem tocar na resposta
//
// Cada Controller tem seu próprio registro; endpoints diferentes não dividem contagem.
package ratelimit
