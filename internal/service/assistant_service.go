package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// LLM answers free-text questions.
type LLM interface {
	Ask(ctx context.Context, system, question string) (string, error)
}

// IncomingMessage is an inbound WhatsApp message, already unpacked from the
// webhook envelope.
type IncomingMessage struct {
	From   string
	Text   string
	FromMe bool
}

type AssistantService interface {
	// HandleIncoming replies to AI questions. It reports whether a reply was sent.
	HandleIncoming(ctx context.Context, msg IncomingMessage) (bool, error)
	// Answer asks the model and falls back to canned answers on failure.
	Answer(ctx context.Context, question string) string
}

type assistantService struct {
	llm      LLM
	notifier NotificationService
}

func NewAssistantService(llm LLM, notifier NotificationService) AssistantService {
	return &assistantService{llm: llm, notifier: notifier}
}

const assistantPrompt = `Você é o assistente inteligente do PDV InovaPro Smart Manager.

CONTEXTO DO SISTEMA:
- Sistema de PDV para posto de combustível e loja de conveniência
- Controla vendas, estoque, relatórios e operações
- Integrado com WhatsApp para comunicação
- Usado por funcionários do Posto Caminho Certo

SUAS RESPONSABILIDADES:
1. Responder perguntas sobre vendas, estoque e relatórios
2. Ajudar com operações do PDV
3. Fornecer informações sobre produtos
4. Auxiliar com dúvidas operacionais
5. Manter tom profissional mas amigável

DIRETRIZES:
- Sempre responda em português brasileiro
- Seja direto e objetivo
- Use emojis quando apropriado
- Se não souber algo específico, seja honesto
- Foque em informações úteis para o trabalho no posto

FORMATO DE RESPOSTA:
- Máximo 200 palavras
- Use quebras de linha para organizar
- Inclua emojis relevantes
- Termine com uma pergunta ou sugestão quando apropriado`

var aiKeywords = []string{
	"quanto vendi", "quanto vendeu", "total de vendas",
	"produto mais vendido", "produtos vendidos",
	"estoque baixo", "sem estoque", "falta produto",
	"como fazer", "como usar", "ajuda com",
	"qual o preço", "preço do", "custa quanto",
	"horário de funcionamento", "quando abre", "quando fecha",
}

var aiPrefix = regexp.MustCompile(`(?i)^(ia|inovapro)(\s+|$)`)

// IsAIQuestion reports whether text is addressed to the assistant: an "ia" or
// "inovapro" prefix, or one of the question keywords.
func IsAIQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	// A bare prefix counts too so the sender gets the usage hint.
	if t == "ia" || t == "inovapro" || strings.HasPrefix(t, "ia ") || strings.HasPrefix(t, "inovapro ") {
		return true
	}
	for _, k := range aiKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// CleanQuestion strips the assistant prefix.
func CleanQuestion(text string) string {
	return strings.TrimSpace(aiPrefix.ReplaceAllString(strings.TrimSpace(text), ""))
}

// Fallback is the canned answer used when the model is unavailable.
func Fallback(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "venda") || strings.Contains(q, "vendeu"):
		return "📊 Para consultar vendas, acesse o relatório de vendas no sistema PDV ou peça ao supervisor para gerar o relatório do período desejado."
	case strings.Contains(q, "estoque"):
		return "📦 Para verificar estoque, use o scanner de código de barras no sistema ou consulte a aba 'Produtos' no PDV."
	case strings.Contains(q, "produto"):
		return "🛍️ Para informações de produtos, use o sistema de busca no PDV ou escaneie o código de barras do item."
	case strings.Contains(q, "ponto") || strings.Contains(q, "turno"):
		return "⏰ Para questões de ponto, use o sistema de controle de ponto no PDV ou consulte seu supervisor."
	}
	return "⚠️ Não consegui processar sua pergunta no momento. Tente reformular ou consulte o manual do sistema PDV."
}

func (s *assistantService) Answer(ctx context.Context, question string) string {
	if s.llm == nil {
		return Fallback(question)
	}
	answer, err := s.llm.Ask(ctx, assistantPrompt, question)
	if err != nil {
		log.Warn().Err(err).Msg("assistant: model unavailable, using fallback")
		return Fallback(question)
	}
	return answer
}

func (s *assistantService) HandleIncoming(ctx context.Context, msg IncomingMessage) (bool, error) {
	if msg.From == "" || msg.FromMe || IsGroupTarget(msg.From) {
		return false, nil
	}
	if !IsAIQuestion(msg.Text) {
		return false, nil
	}

	question := CleanQuestion(msg.Text)
	reply := AssistantUsageMessage
	if question != "" {
		reply = AssistantMessage(s.Answer(ctx, question))
	}
	if err := s.notifier.SendText(ctx, msg.From, reply); err != nil {
		return false, err
	}
	log.Info().Str("from", msg.From).Msg("assistant: reply sent")
	return true, nil
}
