package llm

import "errors"

var (
	ErrRateLimited   = errors.New("llm rate limited")
	ErrUnauthorized  = errors.New("llm unauthorized")
	ErrServer        = errors.New("llm server error")
	ErrTimeout       = errors.New("llm timeout")
	ErrEmptyResponse = errors.New("llm returned an empty response")
)

type ErrorKind string

const (
	KindRateLimit ErrorKind = "rate_limit"
	KindAuth      ErrorKind = "auth"
	KindServer    ErrorKind = "server"
	KindTimeout   ErrorKind = "timeout"
	KindUnknown   ErrorKind = "unknown"
)

// Kind reports the bucket of an error returned by Complete.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrServer):
		return KindServer
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	default:
		return KindUnknown
	}
}

var fallbacks = map[ErrorKind]string{
	KindRateLimit: "Estamos com muitas conversas agora 😅 Em instantes um atendente humano continua com você.",
	KindAuth:      "Tive um problema técnico para responder. Já avisei um atendente humano, que vai falar com você em breve.",
	KindServer:    "Nosso assistente está instável no momento. Um atendente humano vai te responder em breve.",
	KindTimeout:   "Desculpe a demora! Não consegui responder a tempo, mas um atendente humano vai continuar o atendimento.",
	KindUnknown:   "Desculpe, não consegui processar sua mensagem agora. Um atendente humano vai te responder em breve.",
}

// FallbackMessage is the apology sent to the user instead of the raw error.
func FallbackMessage(err error) string {
	return fallbacks[Kind(err)]
}
