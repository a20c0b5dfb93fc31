package prompt

import (
	"fmt"

	"github.com/xaenox/attendant-bot/internal/models"
)

// Flow is a conversation flow variant selected by intent.
type Flow interface {
	Intent() models.Intent
	Instructions(user models.UserRecord) string
}

type prospectFlow struct{}

func (prospectFlow) Intent() models.Intent { return models.IntentProspect }

func (prospectFlow) Instructions(user models.UserRecord) string {
	return fmt.Sprintf(`MODO: PROSPECÇÃO
- %s demonstrou interesse comercial. Entenda o negócio e o volume de atendimentos antes de falar de valores.
- Destaque benefícios concretos: respostas 24h, qualificação de leads e menos tempo da equipe no WhatsApp.
- Ofereça uma demonstração gratuita e pergunte o melhor horário para um especialista entrar em contato.
- Nunca invente preços; valores são passados pelo especialista.`, user.Name)
}

type supportFlow struct{}

func (supportFlow) Intent() models.Intent { return models.IntentSupport }

func (supportFlow) Instructions(user models.UserRecord) string {
	return `MODO: SUPORTE
- Identifique o problema com no máximo uma pergunta por vez.
- Dê instruções passo a passo, curtas e numeradas.
- Se o problema persistir ou envolver cobrança, diga que um atendente humano vai assumir a conversa.`
}

type generalFlow struct{}

func (generalFlow) Intent() models.Intent { return models.IntentGeneral }

func (generalFlow) Instructions(user models.UserRecord) string {
	return `MODO: CONVERSA GERAL
- Responda de forma cordial e objetiva.
- Quando fizer sentido, apresente brevemente o que a empresa faz e pergunte como pode ajudar.`
}

// FlowFor returns the flow for intent, GENERAL for unknown values.
func FlowFor(intent models.Intent) Flow {
	switch intent {
	case models.IntentProspect:
		return prospectFlow{}
	case models.IntentSupport:
		return supportFlow{}
	default:
		return generalFlow{}
	}
}
