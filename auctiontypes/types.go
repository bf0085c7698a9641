package auctiontypes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMalformedContent = errors.New("malformed message content")
var ErrStaleReply = errors.New("reply does not belong to the current round")
var ErrInvalidItem = errors.New("invalid catalog item")
var ErrUnknownParty = errors.New("unknown party")

// DiscoveryError wraps a transport fault raised while searching the
// directory. It is never fatal to the coordinator.
type DiscoveryError struct {
	ServiceKind string
	Err         error
}

func (e DiscoveryError) Error() string {
	return fmt.Sprintf("discovering %s bidders: %s", e.ServiceKind, e.Err)
}

func (e DiscoveryError) Unwrap() error {
	return e.Err
}

// UndeliverableError names the receivers a transport has no route to. The
// message still reached every other receiver.
type UndeliverableError struct {
	Receivers []string
}

func (e UndeliverableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUnknownParty, e.Receivers)
}

func (e UndeliverableError) Unwrap() error {
	return ErrUnknownParty
}

type Mechanism string

const (
	English     Mechanism = "english"
	SecondPrice Mechanism = "second-price"
)

func (m Mechanism) Valid() bool {
	switch m {
	case English, SecondPrice:
		return true
	}
	return false
}

// ServiceKind is the directory service type bidders register under.
func (m Mechanism) ServiceKind() string {
	if m == SecondPrice {
		return "blind-auction"
	}
	return "english-auction"
}

// ConversationID tags every message exchanged for the mechanism.
func (m Mechanism) ConversationID() string {
	if m == SecondPrice {
		return "blind-bid"
	}
	return "english-bid"
}

type Item struct {
	Name         string `json:"name"`
	InitialPrice int    `json:"initial_price"`
}

func (i Item) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if strings.ContainsRune(i.Name, ',') {
		return fmt.Errorf("%w: name %q may not contain a comma", ErrInvalidItem, i.Name)
	}
	if i.InitialPrice < 0 {
		return fmt.Errorf("%w: initial price %d is negative", ErrInvalidItem, i.InitialPrice)
	}
	return nil
}

type BidRecord struct {
	BidderID string `json:"bidder_id"`
	Amount   int    `json:"amount"`
	Round    int    `json:"round"`
}

type OutcomeKind int

const (
	Sell OutcomeKind = iota
	NoSale
	ContinueRound
)

func (k OutcomeKind) String() string {
	switch k {
	case Sell:
		return "sell"
	case NoSale:
		return "no-sale"
	case ContinueRound:
		return "continue-round"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is the decision a WinnerResolver reaches at the end of a round.
type Outcome struct {
	Kind          OutcomeKind
	Price         int
	Bidder        string
	NewFloor      int
	NewBestBidder string
}

func SellTo(bidder string, price int) Outcome {
	return Outcome{Kind: Sell, Price: price, Bidder: bidder}
}

func NoSaleOutcome() Outcome {
	return Outcome{Kind: NoSale}
}

func Continue(newFloor int, newBestBidder string) Outcome {
	return Outcome{Kind: ContinueRound, NewFloor: newFloor, NewBestBidder: newBestBidder}
}

type ResultStatus string

const (
	ResultSold         ResultStatus = "sold"
	ResultUnsold       ResultStatus = "unsold"
	ResultNotAvailable ResultStatus = "not-available"
)

type AuctionResult struct {
	Item      Item          `json:"item"`
	Mechanism Mechanism     `json:"mechanism"`
	Status    ResultStatus  `json:"status"`
	Winner    string        `json:"winner,omitempty"`
	Price     int           `json:"price"`
	NumRounds int           `json:"num_rounds"`
	Bids      BidRecords    `json:"bids"`
	Duration  time.Duration `json:"duration"`
}

// Directory is the yellow-pages service bidders register with.
type Directory interface {
	Register(serviceKind, partyID string) error
	Deregister(partyID string) error
	Search(serviceKind string) ([]string, error)
}

// MessageChannel is one party's endpoint on the message transport.
// Receive never blocks: it returns false when no queued message matches.
type MessageChannel interface {
	Send(msg Message) error
	Receive(match Matcher) (Message, bool)
	HasMail() <-chan struct{}
}

type Catalog interface {
	Put(name string, price int) error
	Remove(name string) (int, bool)
	IsEmpty() bool
	FirstItem() string
	InitialPrice(name string) int
}

type AuctionRunnerDelegate interface {
	AuctionCompleted(result AuctionResult)
}
