package api

// SetNetworkRequest is the body of PUT /v1/network.
type SetNetworkRequest struct {
	Online *bool `json:"online"`
}

// NetworkResponse reports connectivity.
type NetworkResponse struct {
	Online  bool `json:"online"`
	Changed bool `json:"changed,omitempty"`
}
