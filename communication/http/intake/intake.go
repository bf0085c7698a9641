package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/tedsuo/rata"
)

const AddItems = "ADD_ITEMS"

var Routes = rata.Routes{
	{Path: "/v1/items", Method: "POST", Name: AddItems},
}

// ItemSink accepts items for sale; the coordinator's Batch satisfies it.
type ItemSink interface {
	AddItems(items []auctiontypes.Item)
}

func NewHandler(sink ItemSink, logger lager.Logger) (http.Handler, error) {
	return rata.NewRouter(Routes, rata.Handlers{
		AddItems: &addItems{sink: sink, logger: logger.Session("intake")},
	})
}

type addItems struct {
	sink   ItemSink
	logger lager.Logger
}

func (h *addItems) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.Session("add-items")

	var items []auctiontypes.Item
	err := json.NewDecoder(r.Body).Decode(&items)
	if err != nil {
		logger.Error("failed-to-unmarshal", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	for _, item := range items {
		err := item.Validate()
		if err != nil {
			logger.Error("invalid-item", err, lager.Data{"item": item.Name})
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
	}

	h.sink.AddItems(items)
	logger.Info("submitted", lager.Data{"items": len(items)})
	w.WriteHeader(http.StatusAccepted)
}

type Client struct {
	client           *http.Client
	requestGenerator *rata.RequestGenerator
	logger           lager.Logger
}

func NewClient(client *http.Client, address string, logger lager.Logger) *Client {
	return &Client{
		client:           client,
		requestGenerator: rata.NewRequestGenerator(address, Routes),
		logger:           logger.Session("intake-client"),
	}
}

func (c *Client) AddItems(items []auctiontypes.Item) error {
	logger := c.logger.Session("add-items", lager.Data{"items": len(items)})

	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}

	req, err := c.requestGenerator.CreateRequest(AddItems, nil, bytes.NewReader(payload))
	if err != nil {
		logger.Error("failed-to-create-request", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("failed-to-perform-request", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		logger.Error("invalid-status-code", err)
		return err
	}

	return nil
}
