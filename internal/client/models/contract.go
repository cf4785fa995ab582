package models

// ContractStatus is owned by the server; the client only displays it.
type ContractStatus string

const (
	ContractPendingActivation ContractStatus = "PENDING_ACTIVATION"
	ContractActive            ContractStatus = "ACTIVE"
	ContractCompleted         ContractStatus = "COMPLETED"
	ContractDefaulted         ContractStatus = "DEFAULTED"
	ContractVoid              ContractStatus = "VOID"
)

// ContractStatuses lists every status in display order.
var ContractStatuses = []ContractStatus{
	ContractPendingActivation,
	ContractActive,
	ContractCompleted,
	ContractDefaulted,
	ContractVoid,
}

func (s ContractStatus) Label() string {
	switch s {
	case ContractPendingActivation:
		return "Pending activation"
	case ContractActive:
		return "Active"
	case ContractCompleted:
		return "Completed"
	case ContractDefaulted:
		return "Defaulted"
	case ContractVoid:
		return "Void"
	}
	return string(s)
}

// ClientRef is the client summary embedded in a contract.
type ClientRef struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	CustomID string `json:"custom_id,omitempty"`
}

type Contract struct {
	ID                 string         `json:"_id"`
	ContractNo         *string        `json:"contract_no"`
	Client             ClientRef      `json:"client"`
	OTRPrice           float64        `json:"otr_price"`
	DPAmount           float64        `json:"dp_amount"`
	PrincipalAmount    float64        `json:"principal_amount"`
	InterestRate       float64        `json:"interest_rate"`
	DurationMonth      int            `json:"duration_month"`
	MonthlyInstallment float64        `json:"monthly_installment"`
	TotalLoan          float64        `json:"total_loan"`
	RemainingLoan      float64        `json:"remaining_loan"`
	Status             ContractStatus `json:"status"`
	CreatedAt          string         `json:"created_at"`
}

// Number returns the contract number or "-" while the server has not
// assigned one yet.
func (c Contract) Number() string {
	if c.ContractNo == nil || *c.ContractNo == "" {
		return "-"
	}
	return *c.ContractNo
}

// Pagination mirrors the API's page metadata.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
	Total       int64 `json:"total,omitempty"`
	Limit       int   `json:"limit,omitempty"`
}

type ContractsPage struct {
	Contracts  []Contract `json:"contracts"`
	Pagination Pagination `json:"pagination"`
}

// DefaultContractsPage is what a contracts list resolves to when the API
// envelope carries no data.
func DefaultContractsPage() ContractsPage {
	return ContractsPage{
		Contracts: []Contract{},
		Pagination: Pagination{
			CurrentPage: 1,
			TotalPages:  1,
			HasNext:     false,
			HasPrev:     false,
		},
	}
}
