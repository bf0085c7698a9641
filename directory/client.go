package directory

import (
	"encoding/json"
	"fmt"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/tedsuo/rata"
)

// Client reaches a directory served by NewHandler.
type Client struct {
	client           *http.Client
	requestGenerator *rata.RequestGenerator
	logger           lager.Logger
}

func NewClient(client *http.Client, address string, logger lager.Logger) *Client {
	return &Client{
		client:           client,
		requestGenerator: rata.NewRequestGenerator(address, Routes),
		logger:           logger.Session("directory-client"),
	}
}

func (c *Client) Register(serviceKind, partyID string) error {
	logger := c.logger.Session("register", lager.Data{"service-kind": serviceKind, "party-id": partyID})
	return c.do(logger, Register, rata.Params{"service_kind": serviceKind, "party_id": partyID}, http.StatusNoContent, nil)
}

func (c *Client) Deregister(partyID string) error {
	logger := c.logger.Session("deregister", lager.Data{"party-id": partyID})
	err := c.do(logger, Deregister, rata.Params{"party_id": partyID}, http.StatusNoContent, nil)
	if statusErr, ok := err.(statusError); ok && statusErr.code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", auctiontypes.ErrUnknownParty, partyID)
	}
	return err
}

func (c *Client) Search(serviceKind string) ([]string, error) {
	logger := c.logger.Session("search", lager.Data{"service-kind": serviceKind})

	parties := []string{}
	err := c.do(logger, Search, rata.Params{"service_kind": serviceKind}, http.StatusOK, &parties)
	if err != nil {
		return nil, err
	}
	return parties, nil
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func (c *Client) do(logger lager.Logger, route string, params rata.Params, expected int, out interface{}) error {
	req, err := c.requestGenerator.CreateRequest(route, params, nil)
	if err != nil {
		logger.Error("failed-to-create-request", err)
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("failed-to-perform-request", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		err := statusError{code: resp.StatusCode}
		logger.Error("invalid-status-code", err)
		return err
	}

	if out == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		logger.Error("failed-to-decode-response", err)
		return err
	}
	return nil
}

var _ auctiontypes.Directory = (*Client)(nil)
