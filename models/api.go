package models

// ExtractRequest asks the service to run the extraction pipeline on a page
// the caller already fetched. The service never fetches pages itself.
type ExtractRequest struct {
	URL   string `json:"url"`
	HTML  string `json:"html"`
	Store *bool  `json:"store,omitempty"` // persist the result, default true
}

// ExtractResponse carries the extraction result and its score report.
type ExtractResponse struct {
	Platform  string         `json:"platform"`
	ProductID string         `json:"product_id,omitempty"`
	Record    *ProductRecord `json:"record"`
	Report    *ScoreReport   `json:"report"`
}

// ScoreRequest asks for a score report over an already-extracted record.
type ScoreRequest struct {
	Record   *ProductRecord `json:"record"`
	Platform string         `json:"platform"`
}

// CompareRequest asks which of two records is the better import candidate.
type CompareRequest struct {
	RecordA  *ProductRecord `json:"record_a"`
	RecordB  *ProductRecord `json:"record_b"`
	Platform string         `json:"platform"`
}

// DetectRequest asks whether a URL is a recognized product page.
type DetectRequest struct {
	URL string `json:"url"`
}

// DetectResponse names the detected platform and, when resolvable, the
// platform-native product id.
type DetectResponse struct {
	Platform     string   `json:"platform"`
	ProductID    string   `json:"product_id,omitempty"`
	Supported    bool     `json:"supported"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// ProductListResponse is a paginated product listing.
type ProductListResponse struct {
	Products []*ProductRecord `json:"products"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}
