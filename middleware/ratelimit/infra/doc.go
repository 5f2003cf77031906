// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
//   - WindowStore: registro de janelas fixas por cliente com expiração agendada
//   - TimerScheduler: agendador baseado em time.AfterFunc
//   - Pacer: token bucket por host (golang.org/x/time/rate) para as buscas de saída
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões de admissão
package infra
