package model

// ListedIssue is one entry of the exchange's listed-issue catalog.
type ListedIssue struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
