package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/tedsuo/rata"
)

func NewHandler(directory auctiontypes.Directory, logger lager.Logger) (http.Handler, error) {
	logger = logger.Session("directory-handlers")
	return rata.NewRouter(Routes, rata.Handlers{
		Register:   &register{directory: directory, logger: logger},
		Deregister: &deregister{directory: directory, logger: logger},
		Search:     &search{directory: directory, logger: logger},
	})
}

type register struct {
	directory auctiontypes.Directory
	logger    lager.Logger
}

func (h *register) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := rata.Param(r, "service_kind")
	partyID := rata.Param(r, "party_id")
	logger := h.logger.Session("register", lager.Data{"service-kind": kind, "party-id": partyID})

	err := h.directory.Register(kind, partyID)
	if err != nil {
		logger.Error("failed-to-register", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	logger.Info("registered")
	w.WriteHeader(http.StatusNoContent)
}

type deregister struct {
	directory auctiontypes.Directory
	logger    lager.Logger
}

func (h *deregister) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	partyID := rata.Param(r, "party_id")
	logger := h.logger.Session("deregister", lager.Data{"party-id": partyID})

	err := h.directory.Deregister(partyID)
	if errors.Is(err, auctiontypes.ErrUnknownParty) {
		logger.Info("unknown-party")
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("failed-to-deregister", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.Info("deregistered")
	w.WriteHeader(http.StatusNoContent)
}

type search struct {
	directory auctiontypes.Directory
	logger    lager.Logger
}

func (h *search) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := rata.Param(r, "service_kind")
	logger := h.logger.Session("search", lager.Data{"service-kind": kind})

	parties, err := h.directory.Search(kind)
	if err != nil {
		logger.Error("failed-to-search", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(parties)
	logger.Debug("success", lager.Data{"found": len(parties)})
}
