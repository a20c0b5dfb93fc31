package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/attendant-bot/internal/models"
)

func TestClassify(t *testing.T) {
	c := NewKeywordClassifier()
	cases := []struct {
		text string
		want models.Intent
	}{
		{"Quero saber o preço do plano", models.IntentProspect},
		{"erro ao conectar o whatsapp", models.IntentSupport},
		{"bom dia", models.IntentGeneral},
		{"", models.IntentGeneral},
		{"   ", models.IntentGeneral},
		{"Olá!", models.IntentGeneral},
		{"obrigado pela atenção", models.IntentGeneral},
		{"qual a previsão do tempo amanhã", models.IntentGeneral},
		// equal prospect and support scores fall back to tie breakers
		{"quero ajuda com o plano que travou", models.IntentProspect},
		{"erro no plano", models.IntentSupport},
		{"preciso de suporte no plano", models.IntentProspect},
		{"valor do suporte", models.IntentGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.text), tc.text)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewKeywordClassifier()
	for i := 0; i < 20; i++ {
		assert.Equal(t, models.IntentProspect, c.Classify("Quero saber o preço do plano"))
	}
}

func TestIsLeadTrigger(t *testing.T) {
	assert.True(t, IsLeadTrigger("Oi, quanto custa?"))
	assert.True(t, IsLeadTrigger("Tenho interesse no orçamento"))
	assert.False(t, IsLeadTrigger("oi"))
	assert.False(t, IsLeadTrigger("meu whatsapp desconectou"))
}

func TestWantsMoreInfo(t *testing.T) {
	assert.True(t, WantsMoreInfo("me mostra como funciona"))
	assert.True(t, WantsMoreInfo("Quero mais informações"))
	assert.False(t, WantsMoreInfo("quanto custa?"))
}
