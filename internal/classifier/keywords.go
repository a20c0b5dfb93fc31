package classifier

// Keyword tables are matched as substrings of the folded (lowercase, no
// diacritics) message text.

var prospectKeywords = []string{
	"preco", "plano", "quero", "contratar", "valor", "custa", "orcamento",
	"assinatura", "comprar", "demonstracao", "proposta", "pacote",
	"automacao", "chatbot", "interesse", "mensalidade", "desconto",
}

var supportKeywords = []string{
	"erro", "problema", "configurar", "conectar", "nao funciona", "ajuda",
	"suporte", "bug", "travou", "desconect", "qr code", "integracao",
	"acesso", "senha", "falha", "parou",
}

var generalKeywords = []string{
	"oi", "ola", "bom dia", "boa tarde", "boa noite", "obrigad", "tudo bem",
	"quem e voce", "como vai", "e ai", "valeu",
}

// Tie breakers used when both prospect and support keywords match.
var (
	prospectTieBreakers = []string{"quero", "preciso", "gostaria"}
	supportTieBreakers  = []string{"erro", "configurar", "conectar"}
)

var leadTriggers = []string{
	"quero saber mais", "tenho interesse", "quanto custa", "qual o valor",
	"qual o preco", "preco", "orcamento", "contratar", "demonstracao",
	"vi o anuncio", "vi seu anuncio", "vi o seu anuncio",
}

var moreInfoKeywords = []string{
	"saber mais", "mais informacoes", "mais detalhes", "me mostra", "me mostre",
	"como funciona", "tem site", "link", "portfolio", "exemplos",
}
