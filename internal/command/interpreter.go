// Package command recognises the operator directives that take over or
// hand back a conversation.
package command

import (
	"fmt"
	"strings"

	"github.com/xaenox/attendant-bot/internal/normalize"
)

type Command string

const (
	Assume  Command = "ASSUME"
	Release Command = "RELEASE"
)

// minPhoneMatch is the shortest digit string accepted for suffix matching of
// operator phones.
const minPhoneMatch = 8

var phrases = []struct {
	text    string
	command Command
}{
	{"/assumir atendimento", Assume},
	{"assumir atendimento", Assume},
	{"./assumir", Assume},
	{"/assumir", Assume},
	{"/assumi", Assume},
	{"/assume", Assume},
	{"/asumir", Assume},
	{"assumir", Assume},
	{"/liberar atendimento", Release},
	{"liberar atendimento", Release},
	{"/liberar bot", Release},
	{"./liberar", Release},
	{"/liberar", Release},
	{"/libera", Release},
	{"/liberarr", Release},
	{"/devolver", Release},
	{"liberar", Release},
}

type Parsed struct {
	IsCommand bool
	Command   Command
	// Target is the phone given as argument, empty when the command applies
	// to the current conversation.
	Target string
}

// Blocker is the part of the attendance store commands act on.
type Blocker interface {
	IsBlocked(phone string) bool
	Block(phone, blockedBy string, force bool) bool
	Unblock(phone string)
}

type Interpreter struct {
	store         Blocker
	operatorPhone string
	operatorName  string
}

func NewInterpreter(store Blocker, operatorPhone, operatorName string) *Interpreter {
	return &Interpreter{
		store:         store,
		operatorPhone: normalize.Phone(operatorPhone),
		operatorName:  operatorName,
	}
}

// Parse matches text against the known phrases. Plain words must match
// exactly; slash forms also match as a prefix followed by an argument.
func (i *Interpreter) Parse(text string) Parsed {
	folded := normalize.Fold(text)
	if folded == "" {
		return Parsed{}
	}
	for _, p := range phrases {
		if folded == p.text {
			return Parsed{IsCommand: true, Command: p.command}
		}
	}
	if !normalize.LooksLikeCommand(folded) {
		return Parsed{}
	}
	for _, p := range phrases {
		if !normalize.LooksLikeCommand(p.text) {
			continue
		}
		if rest, ok := strings.CutPrefix(folded, p.text+" "); ok {
			return Parsed{IsCommand: true, Command: p.command, Target: phoneArgument(rest)}
		}
	}
	return Parsed{}
}

func phoneArgument(rest string) string {
	digits := normalize.Phone(rest)
	if len(digits) < 10 {
		return ""
	}
	return digits
}

// Authorized reports whether sender is the configured operator. Country code
// differences are tolerated by suffix containment in either direction.
func (i *Interpreter) Authorized(sender string) bool {
	sender = normalize.Phone(sender)
	if sender == "" || i.operatorPhone == "" {
		return false
	}
	if sender == i.operatorPhone {
		return true
	}
	shorter, longer := sender, i.operatorPhone
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) >= minPhoneMatch && strings.HasSuffix(longer, shorter)
}

// Execute applies cmd to the conversation with phone and returns the reply
// for the operator. Authorization is the caller's job.
func (i *Interpreter) Execute(cmd Command, phone string) string {
	switch cmd {
	case Assume:
		i.store.Block(phone, i.operatorName, true)
		return fmt.Sprintf("✅ Atendimento de %s assumido. O bot não vai responder esta conversa por enquanto.", phone)
	case Release:
		if !i.store.IsBlocked(phone) {
			return fmt.Sprintf("ℹ️ O bot já está ativo para %s.", phone)
		}
		i.store.Unblock(phone)
		return fmt.Sprintf("🤖 Atendimento de %s liberado. O bot voltou a responder.", phone)
	default:
		return ""
	}
}

// RejectionMessage is sent to non operators using a command.
const RejectionMessage = "⚠️ Este comando é exclusivo do atendente responsável."
