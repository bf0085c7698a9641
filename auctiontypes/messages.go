package auctiontypes

import (
	"fmt"
	"strconv"
	"strings"
)

type Performative int

const (
	CFP Performative = iota
	Propose
	Refuse
	Cancel
	Inform
	AcceptProposal
	Failure
)

func (p Performative) String() string {
	switch p {
	case CFP:
		return "CFP"
	case Propose:
		return "PROPOSE"
	case Refuse:
		return "REFUSE"
	case Cancel:
		return "CANCEL"
	case Inform:
		return "INFORM"
	case AcceptProposal:
		return "ACCEPT_PROPOSAL"
	case Failure:
		return "FAILURE"
	}
	return fmt.Sprintf("PERFORMATIVE(%d)", int(p))
}

const NotAvailable = "not-available"

type Message struct {
	Performative   Performative `json:"performative"`
	Sender         string       `json:"sender"`
	Receivers      []string     `json:"receivers"`
	ConversationID string       `json:"conversation_id,omitempty"`
	ReplyWith      string       `json:"reply_with,omitempty"`
	InReplyTo      string       `json:"in_reply_to,omitempty"`
	Content        string       `json:"content"`
}

// Reply addresses a new message back to the sender of m, carrying the
// conversation and correlation ids across.
func (m Message) Reply(from string, performative Performative, content string) Message {
	return Message{
		Performative:   performative,
		Sender:         from,
		Receivers:      []string{m.Sender},
		ConversationID: m.ConversationID,
		InReplyTo:      m.ReplyWith,
		Content:        content,
	}
}

type Matcher func(Message) bool

func MatchAll() Matcher {
	return func(Message) bool { return true }
}

func MatchPerformative(p Performative) Matcher {
	return func(m Message) bool { return m.Performative == p }
}

func MatchConversation(id string) Matcher {
	return func(m Message) bool { return m.ConversationID == id }
}

func MatchInReplyTo(id string) Matcher {
	return func(m Message) bool { return m.InReplyTo == id }
}

func MatchAnd(matchers ...Matcher) Matcher {
	return func(m Message) bool {
		for _, match := range matchers {
			if !match(m) {
				return false
			}
		}
		return true
	}
}

type Solicitation struct {
	ItemName      string
	FloorPrice    int
	PreviousPrice int
}

func (s Solicitation) Encode() string {
	return joinFields(s.ItemName, strconv.Itoa(s.FloorPrice), strconv.Itoa(s.PreviousPrice))
}

func ParseSolicitation(content string) (Solicitation, error) {
	fields := strings.Split(content, ",")
	if len(fields) != 3 || fields[0] == "" {
		return Solicitation{}, fmt.Errorf("%w: solicitation %q", ErrMalformedContent, content)
	}

	floor, err := parseAmount(fields[1])
	if err != nil {
		return Solicitation{}, err
	}
	previous, err := parseAmount(fields[2])
	if err != nil {
		return Solicitation{}, err
	}

	return Solicitation{ItemName: fields[0], FloorPrice: floor, PreviousPrice: previous}, nil
}

type Settlement struct {
	ItemName string
	Price    int
}

func (s Settlement) Encode() string {
	return joinFields(s.ItemName, strconv.Itoa(s.Price))
}

func ParseSettlement(content string) (Settlement, error) {
	fields := strings.Split(content, ",")
	if len(fields) != 2 || fields[0] == "" {
		return Settlement{}, fmt.Errorf("%w: settlement %q", ErrMalformedContent, content)
	}

	price, err := parseAmount(fields[1])
	if err != nil {
		return Settlement{}, err
	}

	return Settlement{ItemName: fields[0], Price: price}, nil
}

func EncodeOffer(amount int) string {
	return strconv.Itoa(amount)
}

func ParseOffer(content string) (int, error) {
	return parseAmount(content)
}

func parseAmount(field string) (int, error) {
	amount, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrMalformedContent, field)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative amount %d", ErrMalformedContent, amount)
	}
	return amount, nil
}

func joinFields(fields ...string) string {
	return strings.Join(fields, ",")
}
