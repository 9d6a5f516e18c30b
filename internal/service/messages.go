package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"pdvinova/internal/model"

	"github.com/shopspring/decimal"
)

// StoreInfo is printed in the footer of every receipt.
type StoreInfo struct {
	Name string
	CNPJ string
	INPI string
}

const (
	separator       = "━━━━━━━━━━━━━━━━━━━"
	subtotalRule    = "  ──────────────────"
	systemSignoff   = "🤖 _Sistema PDV InovaPro - INOVAPRO TECHNOLOGY_"
	debitPrefix     = string(model.PaymentDebit) + "_"
	creditPrefix    = string(model.PaymentCredit) + "_"
	dateLayout      = "02/01/2006"
	timeLayout      = "15:04:05"
	shortTimeLayout = "15:04"
)

var paymentLabels = map[string]string{
	"dinheiro":       "Dinheiro",
	"debito":         "Cartão de Débito",
	"credito":        "Cartão de Crédito",
	"cartao_debito":  "Cartão de Débito",
	"cartao_credito": "Cartão de Crédito",
	"pix":            "PIX",
	"cheque":         "Cheque",
	"outro":          "Outro",
}

var brandLabels = map[string]string{
	"visa":                      "Visa",
	"elo":                       "Elo",
	"maestro":                   "Maestro",
	"mastercard":                "Mastercard",
	"amex_hipercard_credsystem": "Amex / Hipercard / Credsystem",
	"hipercard":                 "Hipercard",
	"amex":                      "Amex",
}

// PaymentLabel returns the display name of a payment breakdown key.
func PaymentLabel(key string) string {
	if l, ok := paymentLabels[key]; ok {
		return l
	}
	return key
}

// BrandLabel returns the display name of a brand breakdown key
// ("credito_visa" → "Visa").
func BrandLabel(key string) string {
	brand := key
	for _, p := range []string{debitPrefix, creditPrefix} {
		if strings.HasPrefix(key, p) {
			brand = strings.TrimPrefix(key, p)
			break
		}
	}
	if l, ok := brandLabels[brand]; ok {
		return l
	}
	return brand
}

// BRL formats an amount as Brazilian currency.
func BRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// sortedKeys orders payment keys by the canonical method order, unknown keys last.
func sortedKeys(m map[string]Breakdown) []string {
	rank := make(map[string]int, len(model.PaymentMethods))
	for i, pm := range model.PaymentMethods {
		rank[string(pm)] = i
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func writeLine(b *strings.Builder, s ...string) {
	for _, part := range s {
		b.WriteString(part)
	}
	b.WriteByte('\n')
}

func breakdownLine(label string, v Breakdown) string {
	return "  • " + label + ": " + strconv.Itoa(v.Count) + "x - " + BRL(v.Amount)
}

func writeFooter(b *strings.Builder, store StoreInfo, thanks string) {
	writeLine(b, "💼 *CNPJ:* ", store.CNPJ)
	writeLine(b, "📍 *Registro INPI:* ", store.INPI)
	b.WriteByte('\n')
	writeLine(b, "💬 _", thanks, "_")
	b.WriteByte('\n')
	b.WriteString(systemSignoff)
}

// ClockMessage renders the receipt of a single clock event.
func ClockMessage(n ClockNotification, store StoreInfo, loc *time.Location) string {
	at := n.At.In(loc)

	var kind, thanks string
	switch n.Event {
	case ClockEntry:
		kind, thanks = "Entrada no Turno", "Tenha um ótimo dia de trabalho!"
	case ClockExit:
		kind, thanks = "Saída do Turno", "Obrigado pelo seu trabalho hoje!"
	default:
		kind, thanks = "Saída do Turno", "Turno finalizado com sucesso!"
	}

	var b strings.Builder
	writeLine(&b, "📋 *Comprovante de Ponto - PDV InovaPro*")
	b.WriteByte('\n')
	writeLine(&b, "👤 *Funcionário:* ", n.WorkerName)
	writeLine(&b, "📅 *Data:* ", at.Format(dateLayout))
	writeLine(&b, "🕒 *Horário:* ", at.Format(timeLayout))
	writeLine(&b, "🏢 *Local:* ", store.Name)
	writeLine(&b, "📄 *Tipo:* ", kind)

	if n.Event == ClockReceipt {
		if n.ClockIn != "" || n.ClockOut != "" {
			writeLine(&b, separator)
			if n.ClockIn != "" {
				writeLine(&b, "🟢 *Entrada:* ", n.ClockIn)
			}
			if n.ClockOut != "" {
				writeLine(&b, "🔴 *Saída:* ", n.ClockOut)
			}
			writeLine(&b, separator)
		}
		if n.TotalHours != "" {
			writeLine(&b, "⏱️ *Duração:* ", n.TotalHours)
		}
	}
	b.WriteByte('\n')
	writeFooter(&b, store, thanks)
	return b.String()
}

// ShiftReportMessage renders the shift closing receipt. Payment-method lines
// come from PaymentBreakdown; card brands are listed separately, grouped as
// debit and credit, and are already part of the method totals above them.
func ShiftReportMessage(r ShiftReport, store StoreInfo, loc *time.Location) string {
	s := r.Summary

	var b strings.Builder
	writeLine(&b, "📋 *Comprovante de Fechamento de Turno*")
	b.WriteByte('\n')
	writeLine(&b, "👤 *Funcionário:* ", r.WorkerName)
	writeLine(&b, "📅 *Data:* ", s.EndTime.In(loc).Format(dateLayout))
	writeLine(&b, "🕐 *Horário do Turno:* ", s.StartTime.In(loc).Format(shortTimeLayout), " às ", s.EndTime.In(loc).Format(shortTimeLayout))
	if r.ShiftDuration != "" {
		writeLine(&b, "⏱️ *Duração:* ", r.ShiftDuration)
	}
	if r.ReceiptNumber != "" {
		writeLine(&b, "🧾 *Comprovante:* ", r.ReceiptNumber)
	}
	b.WriteByte('\n')
	writeLine(&b, separator)
	writeLine(&b, "📊 *RESUMO DE VENDAS*")
	writeLine(&b, separator)
	b.WriteByte('\n')

	if s.TotalSalesCount == 0 {
		writeLine(&b, "💵 *Total de Vendas:* ", BRL(decimal.Zero))
		writeLine(&b, "📄 *Status:* Nenhuma venda registrada neste turno.")
		b.WriteByte('\n')
	} else {
		writeLine(&b, "💵 *Total Vendido:* ", BRL(s.TotalAmount))
		writeLine(&b, "📊 *Quantidade de Vendas:* ", strconv.Itoa(s.TotalSalesCount))
		writeLine(&b, "📈 *Ticket Médio:* ", BRL(s.AverageTicket))
		b.WriteByte('\n')
		writeLine(&b, "💳 *Formas de Pagamento:*")
		for _, k := range sortedKeys(s.PaymentBreakdown) {
			writeLine(&b, breakdownLine(PaymentLabel(k), s.PaymentBreakdown[k]))
		}
		b.WriteByte('\n')
		writeBrandSection(&b, s.BrandBreakdown)
	}

	writeLine(&b, "🏢 *Local:* ", store.Name)
	writeFooter(&b, store, "Obrigado pelo seu trabalho!")
	return b.String()
}

func writeBrandSection(b *strings.Builder, brands map[string]Breakdown) {
	if len(brands) == 0 {
		return
	}
	var debit, credit, other []string
	for _, k := range sortedKeys(brands) {
		switch {
		case strings.HasPrefix(k, debitPrefix):
			debit = append(debit, k)
		case strings.HasPrefix(k, creditPrefix):
			credit = append(credit, k)
		default:
			other = append(other, k)
		}
	}

	writeLine(b, "🏷️ *Por Bandeira* _(já incluído nos totais acima)_")
	group := func(title, subtotalLabel string, keys []string) {
		if len(keys) == 0 {
			return
		}
		writeLine(b, title)
		subtotal := decimal.Zero
		for _, k := range keys {
			writeLine(b, breakdownLine(BrandLabel(k), brands[k]))
			subtotal = subtotal.Add(brands[k].Amount)
		}
		if subtotalLabel != "" {
			writeLine(b, subtotalRule)
			writeLine(b, "  *", subtotalLabel, ":* ", BRL(subtotal))
		}
		b.WriteByte('\n')
	}
	group("*🔵 DÉBITO:*", "Subtotal Débito", debit)
	group("*🟢 CRÉDITO:*", "Subtotal Crédito", credit)
	group("*🔶 OUTROS:*", "", other)
}

// AssistantMessage wraps an AI answer with the bot signature.
func AssistantMessage(answer string) string {
	return "🤖 *InovaPro Smart Manager*\n\n" + answer + "\n\n_Sistema PDV InovaPro - INOVAPRO TECHNOLOGY_"
}

// AssistantUsageMessage answers a bare "ia" / "inovapro".
const AssistantUsageMessage = "🤖 *InovaPro Smart Manager*\n\nDigite algo após 'ia' ou 'inovapro', exemplo:\n• 'ia quanto vendi ontem?'\n• 'inovapro qual o produto mais vendido?'"
