package bot

import (
	"fmt"
	"strings"

	"github.com/xaenox/attendant-bot/internal/command"
	"github.com/xaenox/attendant-bot/internal/models"
)

func greetingMessage(name, assistant, company string) string {
	return fmt.Sprintf("Olá%s! 👋 Eu sou %s, assistente virtual da %s. Como posso te ajudar hoje?",
		salutation(name), assistant, company)
}

func welcomeBackMessage(name string) string {
	return fmt.Sprintf("Que bom te ver de novo%s! 😊 Em que posso ajudar agora?", salutation(name))
}

func leadWelcomeMessage(name, assistant, company string) string {
	return fmt.Sprintf("Olá%s! 👋 Que ótimo saber do seu interesse! Eu sou %s, da %s.\n\n"+
		"Ajudamos empresas a automatizar o atendimento no WhatsApp com inteligência artificial. "+
		"Me conta um pouco sobre o seu negócio para eu te indicar a melhor solução?",
		salutation(name), assistant, company)
}

func moreInfoMessage(link string) string {
	return "📎 Mais detalhes sobre nossas soluções: " + link
}

func usageMessage(cmd command.Command) string {
	verb := "/assumir"
	if cmd == command.Release {
		verb = "/liberar"
	}
	return fmt.Sprintf("ℹ️ Informe o número da conversa. Exemplo: %s 5511999998888", verb)
}

// salutation is ", Name" using the first name only, or nothing when the
// name is unknown.
func salutation(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == models.DefaultUserName {
		return ""
	}
	if first, _, ok := strings.Cut(name, " "); ok {
		name = first
	}
	return ", " + name
}
