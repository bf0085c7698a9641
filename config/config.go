package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"code.cloudfoundry.org/lager/v3/lagerflags"
	"github.com/marketsim/auction/auctionrep"
	"github.com/marketsim/auction/auctiontypes"
)

// Duration reads "10s"-style strings from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	err := json.Unmarshal(b, &s)
	if err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}

type BudgetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (b BudgetRange) Validate() error {
	if b.Min < 0 || b.Max < b.Min {
		return fmt.Errorf("invalid budget range [%d, %d]", b.Min, b.Max)
	}
	return nil
}

var DefaultBudget = BudgetRange{Min: 1000, Max: 1999}

type AuctioneerConfig struct {
	PartyID       string                 `json:"party_id"`
	Mechanism     auctiontypes.Mechanism `json:"mechanism"`
	DirectoryURL  string                 `json:"directory_url"`
	NATSAddress   string                 `json:"nats_address"`
	ListenAddress string                 `json:"listen_address"`
	RoundTimeout  Duration               `json:"round_timeout,omitempty"`
	PollInterval  Duration               `json:"poll_interval,omitempty"`
	Items         []auctiontypes.Item    `json:"items,omitempty"`

	lagerflags.LagerConfig
}

func DefaultAuctioneerConfig() AuctioneerConfig {
	return AuctioneerConfig{
		PartyID:       "auctioneer",
		Mechanism:     auctiontypes.English,
		ListenAddress: "127.0.0.1:8090",
		PollInterval:  Duration(10 * time.Second),
		LagerConfig:   lagerflags.DefaultLagerConfig(),
	}
}

func (c AuctioneerConfig) Validate() error {
	var errs []error
	if c.PartyID == "" {
		errs = append(errs, errors.New("party_id is required"))
	}
	if !c.Mechanism.Valid() {
		errs = append(errs, fmt.Errorf("unknown mechanism %q", c.Mechanism))
	}
	if c.DirectoryURL == "" {
		errs = append(errs, errors.New("directory_url is required"))
	}
	if c.NATSAddress == "" {
		errs = append(errs, errors.New("nats_address is required"))
	}
	for _, item := range c.Items {
		if err := item.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type BidderConfig struct {
	PartyID           string                 `json:"party_id"`
	Mechanism         auctiontypes.Mechanism `json:"mechanism"`
	Strategy          auctionrep.Strategy    `json:"strategy,omitempty"`
	ParticipationOdds int                    `json:"participation_odds,omitempty"`
	Budget            BudgetRange            `json:"budget"`
	Seed              int64                  `json:"seed,omitempty"`
	DirectoryURL      string                 `json:"directory_url"`
	NATSAddress       string                 `json:"nats_address"`

	lagerflags.LagerConfig
}

func DefaultBidderConfig() BidderConfig {
	return BidderConfig{
		Mechanism:   auctiontypes.English,
		Budget:      DefaultBudget,
		LagerConfig: lagerflags.DefaultLagerConfig(),
	}
}

// ApplyMechanismDefaults fills the strategy and odds left unset.
func (c *BidderConfig) ApplyMechanismDefaults() {
	if c.Strategy == "" {
		c.Strategy = auctionrep.DefaultStrategy(c.Mechanism)
	}
	if c.ParticipationOdds == 0 {
		c.ParticipationOdds = auctionrep.DefaultParticipationOdds(c.Mechanism)
	}
}

func (c BidderConfig) Validate() error {
	var errs []error
	if c.PartyID == "" {
		errs = append(errs, errors.New("party_id is required"))
	}
	if !c.Mechanism.Valid() {
		errs = append(errs, fmt.Errorf("unknown mechanism %q", c.Mechanism))
	}
	if err := c.Strategy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ParticipationOdds < 1 {
		errs = append(errs, fmt.Errorf("participation_odds must be at least 1, got %d", c.ParticipationOdds))
	}
	if err := c.Budget.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.DirectoryURL == "" {
		errs = append(errs, errors.New("directory_url is required"))
	}
	if c.NATSAddress == "" {
		errs = append(errs, errors.New("nats_address is required"))
	}
	return errors.Join(errs...)
}

type DirectoryConfig struct {
	ListenAddress string `json:"listen_address"`

	lagerflags.LagerConfig
}

func DefaultDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		ListenAddress: "127.0.0.1:8091",
		LagerConfig:   lagerflags.DefaultLagerConfig(),
	}
}

func (c DirectoryConfig) Validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen_address is required")
	}
	return nil
}

type SimulationConfig struct {
	Mechanism         auctiontypes.Mechanism `json:"mechanism"`
	NumBidders        int                    `json:"num_bidders"`
	Strategy          auctionrep.Strategy    `json:"strategy,omitempty"`
	ParticipationOdds int                    `json:"participation_odds,omitempty"`
	Budget            BudgetRange            `json:"budget"`
	Items             []auctiontypes.Item    `json:"items"`
	Seed              int64                  `json:"seed,omitempty"`
	RoundTimeout      Duration               `json:"round_timeout,omitempty"`
	PollInterval      Duration               `json:"poll_interval,omitempty"`
	LatencyMin        Duration               `json:"latency_min,omitempty"`
	LatencyMax        Duration               `json:"latency_max,omitempty"`
	Deadline          Duration               `json:"deadline,omitempty"`
	SVGReportPath     string                 `json:"svg_report_path,omitempty"`

	lagerflags.LagerConfig
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Mechanism:    auctiontypes.English,
		NumBidders:   5,
		Budget:       DefaultBudget,
		RoundTimeout: Duration(time.Second),
		PollInterval: Duration(100 * time.Millisecond),
		Deadline:     Duration(time.Minute),
		LagerConfig:  lagerflags.DefaultLagerConfig(),
	}
}

func (c *SimulationConfig) ApplyMechanismDefaults() {
	if c.Strategy == "" {
		c.Strategy = auctionrep.DefaultStrategy(c.Mechanism)
	}
	if c.ParticipationOdds == 0 {
		c.ParticipationOdds = auctionrep.DefaultParticipationOdds(c.Mechanism)
	}
}

func (c SimulationConfig) Validate() error {
	var errs []error
	if !c.Mechanism.Valid() {
		errs = append(errs, fmt.Errorf("unknown mechanism %q", c.Mechanism))
	}
	if c.NumBidders < 1 {
		errs = append(errs, fmt.Errorf("num_bidders must be at least 1, got %d", c.NumBidders))
	}
	if err := c.Strategy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ParticipationOdds < 1 {
		errs = append(errs, fmt.Errorf("participation_odds must be at least 1, got %d", c.ParticipationOdds))
	}
	if err := c.Budget.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Items) == 0 {
		errs = append(errs, errors.New("at least one item is required"))
	}
	for _, item := range c.Items {
		if err := item.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.LatencyMax < c.LatencyMin {
		errs = append(errs, errors.New("latency_max must not be below latency_min"))
	}
	return errors.Join(errs...)
}

type validator interface {
	Validate() error
}

// Load decodes the JSON file at path over the defaults already in cfg and
// validates the result.
func Load(path string, cfg validator) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	err = json.NewDecoder(file).Decode(cfg)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	if defaulter, ok := cfg.(interface{ ApplyMechanismDefaults() }); ok {
		defaulter.ApplyMechanismDefaults()
	}

	return cfg.Validate()
}
