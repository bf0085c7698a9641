package intake_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/marketsim/auction/auctionrunner"
	"github.com/marketsim/auction/auctiontypes"
	. "github.com/marketsim/auction/communication/http/intake"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Intake", func() {
	var batch *auctionrunner.Batch
	var server *httptest.Server
	var client *Client

	BeforeEach(func() {
		batch = auctionrunner.NewBatch()
		handler, err := NewHandler(batch, logger)
		Ω(err).ShouldNot(HaveOccurred())
		server = httptest.NewServer(handler)
		client = NewClient(&http.Client{}, server.URL, logger)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should queue submitted items for the coordinator", func() {
		Ω(client.AddItems([]auctiontypes.Item{
			{Name: "vase", InitialPrice: 100},
			{Name: "lamp", InitialPrice: 40},
		})).Should(Succeed())

		Ω(batch.HasWork).Should(Receive())
		Ω(batch.DedupeAndDrain()).Should(Equal([]auctiontypes.Item{
			{Name: "vase", InitialPrice: 100},
			{Name: "lamp", InitialPrice: 40},
		}))
	})

	It("should reject the whole submission when an item is invalid", func() {
		err := client.AddItems([]auctiontypes.Item{
			{Name: "vase", InitialPrice: 100},
			{Name: "a,b", InitialPrice: 40},
		})
		Ω(err).Should(MatchError(ContainSubstring("422")))
		Ω(batch.DedupeAndDrain()).Should(BeEmpty())
	})

	It("should reject a body that is not a list of items", func() {
		resp, err := http.Post(server.URL+"/v1/items", "application/json", strings.NewReader("{"))
		Ω(err).ShouldNot(HaveOccurred())
		resp.Body.Close()
		Ω(resp.StatusCode).Should(Equal(http.StatusBadRequest))
	})
})
