// internal/tools/resource-lookup/models.go
package resourcelookup

// Input is the search request the orchestrator forwards on the client's
// behalf. Only the keyword is required; location filters narrow the search.
type Input struct {
	Keyword string `json:"keyword"`
	ZipCode string `json:"zip_code,omitempty"`
	County  string `json:"county,omitempty"`
	City    string `json:"city,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// directoryResponse mirrors the 211 directory API's search payload.
type directoryResponse struct {
	Count   int                 `json:"count"`
	Results []directoryResource `json:"results"`
}

type directoryResource struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Eligibility string `json:"eligibility"`
	Hours       string `json:"hours"`
}
