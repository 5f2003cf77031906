// Package application contém os casos de uso do controle de admissão e do
// limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(req) retorna uma Decision (admitido, bypass ou rejeição).
package application
