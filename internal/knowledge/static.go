package knowledge

import "github.com/xaenox/attendant-bot/internal/models"

// StaticText is always part of the system prompt.
const StaticText = `Somos uma agência especializada em automação de atendimento pelo WhatsApp.
Criamos assistentes virtuais que respondem clientes 24 horas por dia, qualificam leads
e encaminham conversas para atendentes humanos quando necessário.
Serviços: chatbot com inteligência artificial, integração com CRM, disparo de mensagens
e relatórios de atendimento.
Horário de atendimento humano: segunda a sexta, das 9h às 18h.`

// DefaultEntries seed the in-memory knowledge store.
var DefaultEntries = []models.KnowledgeEntry{
	{
		Topic:    "planos",
		Content:  "Plano Essencial: um número de WhatsApp e assistente com IA. Plano Profissional: até três números, integração com CRM e relatórios semanais. Valores sob consulta, com demonstração gratuita.",
		Keywords: []string{"plano", "planos", "preco", "valor", "custa", "mensalidade"},
	},
	{
		Topic:    "implantacao",
		Content:  "A implantação leva de 3 a 7 dias úteis: reunião de briefing, configuração do assistente, testes e ativação.",
		Keywords: []string{"implantacao", "prazo", "configurar", "ativacao"},
	},
	{
		Topic:    "conexao",
		Content:  "Se o WhatsApp desconectar, abra o painel, gere um novo QR code e leia pelo aparelho em Aparelhos conectados.",
		Keywords: []string{"conectar", "desconectou", "qr", "erro", "conexao"},
	},
	{
		Topic:    "atendimento humano",
		Content:  "Um especialista humano pode assumir a conversa a qualquer momento; basta pedir para falar com um atendente.",
		Keywords: []string{"atendente", "humano", "pessoa"},
	},
}
