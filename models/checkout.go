package models

import "time"

// CheckoutInfo holds the bank transfer target and the community invite link.
type CheckoutInfo struct {
	BankName    string `json:"bank_name"`
	BankAccount string `json:"bank_account"`
	BankHolder  string `json:"bank_holder"`
	GroupLink   string `json:"group_link"`
}

// ProofFile is the transfer receipt picked by the visitor.
type ProofFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProofMeta describes a selected proof without its bytes.
type ProofMeta struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Uploaded    bool   `json:"uploaded"`
}

// UploadResult is the response of the file upload endpoint.
type UploadResult struct {
	URL string `json:"url"`
}

// Receipt is handed back once an order is accepted.
type Receipt struct {
	Order       Order     `json:"order"`
	GroupLink   string    `json:"group_link"`
	TotalAmount int64     `json:"total_amount"`
	CompletedAt time.Time `json:"completed_at"`
}

type CheckoutState string

const (
	CheckoutIdle          CheckoutState = "IDLE"
	CheckoutAwaitingInfo  CheckoutState = "AWAITING_INFO"
	CheckoutReadyToSubmit CheckoutState = "READY_TO_SUBMIT"
	CheckoutSubmitting    CheckoutState = "SUBMITTING"
	CheckoutCompleted     CheckoutState = "COMPLETED"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutCompleted
}

func (s CheckoutState) String() string {
	return string(s)
}

// CheckoutView is the read model of a checkout session.
type CheckoutView struct {
	State      CheckoutState `json:"state"`
	Info       *CheckoutInfo `json:"info,omitempty"`
	SenderName string        `json:"sender_name,omitempty"`
	Note       string        `json:"note,omitempty"`
	Proof      *ProofMeta    `json:"proof,omitempty"`
	Submitting bool          `json:"submitting"`
	LastError  string        `json:"last_error,omitempty"`
	Receipt    *Receipt      `json:"receipt,omitempty"`
}
