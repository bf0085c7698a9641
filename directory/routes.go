package directory

import "github.com/tedsuo/rata"

const (
	Register   = "REGISTER"
	Deregister = "DEREGISTER"
	Search     = "SEARCH"
)

var Routes = rata.Routes{
	{Path: "/v1/services/:service_kind/parties/:party_id", Method: "PUT", Name: Register},
	{Path: "/v1/parties/:party_id", Method: "DELETE", Name: Deregister},
	{Path: "/v1/services/:service_kind/parties", Method: "GET", Name: Search},
}
