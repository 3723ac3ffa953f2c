package domain

// Source is one external quote provider (an exchange).
type Source struct {
	SourceID   string `json:"sourceID"` // Primary Key (UUID)
	Code       string `json:"code"`     // stable short code, e.g. "grinex"
	Name       string `json:"name"`
	Enabled    bool   `json:"enabled"`
	APIBaseURL string `json:"apiBaseURL"`
	AuditFields
}

// SourcePair maps a source's native symbol spelling to the system's
// canonical pair identifier (e.g. "usdtrub" -> "USDT/RUB").
type SourcePair struct {
	SourcePairID   string `json:"sourcePairID"` // Primary Key (UUID)
	SourceID       string `json:"sourceID"`     // FK -> Source
	SourceSymbol   string `json:"sourceSymbol"`
	InternalSymbol string `json:"internalSymbol"`
	BaseCurrency   string `json:"baseCurrency"`
	QuoteCurrency  string `json:"quoteCurrency"`
	Enabled        bool   `json:"enabled"`
	AuditFields
}
