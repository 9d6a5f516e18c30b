package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ── Error taxonomy ────────────────────────────────────────────────────────────
// Handlers map these with errors.Is / errors.As; messages are user-facing.

var (
	ErrValidation         = errors.New("dados inválidos")
	ErrMissingDestination = errors.New("Número de WhatsApp não fornecido")
	ErrGroupTarget        = errors.New("Envio para grupos não é permitido. Use apenas números individuais.")
	ErrRelayUnavailable   = errors.New("WhatsApp não está conectado na Evolution API")
	ErrRelayTransport     = errors.New("falha ao enviar mensagem pelo WhatsApp")
	ErrNoActiveShift      = errors.New("É necessário iniciar um turno antes de finalizar")
	ErrClockInConflict    = errors.New("já existe um ponto de entrada em aberto para este funcionário")
	ErrShiftConflict      = errors.New("o turno já está sendo finalizado por outra requisição")
	ErrNotFound           = errors.New("registro não encontrado")
	ErrCountClosed        = errors.New("contagem fechada não pode ser alterada")
	ErrNoInventoryData    = errors.New("Não há contagens registradas para gerar o PDF")
)

// ValidationError carries per-field problems. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "dados inválidos: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func newValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// RelayError is a transport failure talking to the relay. Body holds the
// upstream response when there was one. It matches ErrRelayTransport.
type RelayError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RelayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("relay %s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("relay %s: status %d: %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("relay %s: status %d", e.Op, e.Status)
	}
}

func (e *RelayError) Unwrap() error { return e.Err }

func (e *RelayError) Is(target error) bool { return target == ErrRelayTransport }
