// Package domain define contratos e tipos do controle de admissão por cliente
// (janela fixa com bypass por token) e do limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas: o
// registro de janelas, o agendador de expiração e os stores de estatística
// vivem em infra; a decisão allow/deny vive em application.
package domain
