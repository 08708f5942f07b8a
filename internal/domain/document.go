package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType discriminates the three approvable warehouse documents.
type DocumentType string

const (
	DocumentImport  DocumentType = "import"  // goods receipt from a supplier
	DocumentInvoice DocumentType = "invoice" // outbound slip to a customer
	DocumentReturn  DocumentType = "return"  // goods coming back
)

// DocumentTypes lists every type in queue merge order.
var DocumentTypes = []DocumentType{DocumentImport, DocumentInvoice, DocumentReturn}

// ParseDocumentType accepts the canonical names plus their plural path forms
// ("imports", "invoices", "returns").
func ParseDocumentType(s string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "import", "imports":
		return DocumentImport, nil
	case "invoice", "invoices":
		return DocumentInvoice, nil
	case "return", "returns":
		return DocumentReturn, nil
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentImport, DocumentInvoice, DocumentReturn:
		return true
	}
	return false
}

// Label is the operator-facing name of the document type.
func (t DocumentType) Label() string {
	switch t {
	case DocumentImport:
		return "Goods receipt"
	case DocumentInvoice:
		return "Outbound slip"
	case DocumentReturn:
		return "Return slip"
	}
	return "Other document"
}

// DocumentStatus is the approval lifecycle state reported by the backend.
// Anything other than pending/approved collapses to StatusOther.
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusApproved DocumentStatus = "approved"
	StatusOther    DocumentStatus = "other"
)

// ParseDocumentStatus maps a raw status string. Matching is exact, as the
// backend emits lowercase values.
func ParseDocumentStatus(raw string) DocumentStatus {
	switch DocumentStatus(raw) {
	case StatusPending:
		return StatusPending
	case StatusApproved:
		return StatusApproved
	}
	return StatusOther
}

// InvoiceKind is the subtype of an outbound slip.
type InvoiceKind string

const (
	InvoiceSale        InvoiceKind = "sale"
	InvoiceProject     InvoiceKind = "project_export"
	InvoiceWarranty    InvoiceKind = "warranty_export"
	InvoiceLiquidation InvoiceKind = "liquidation_export"
)

// ParseInvoiceKind defaults unknown or missing values to a sale.
func ParseInvoiceKind(raw string) InvoiceKind {
	switch k := InvoiceKind(raw); k {
	case InvoiceSale, InvoiceProject, InvoiceWarranty, InvoiceLiquidation:
		return k
	}
	return InvoiceSale
}

func (k InvoiceKind) Label() string {
	switch k {
	case InvoiceProject:
		return "Project export"
	case InvoiceWarranty:
		return "Warranty export"
	case InvoiceLiquidation:
		return "Liquidation export"
	}
	return "Sale"
}

// ReturnKind is the subtype of a return slip.
type ReturnKind string

const (
	ReturnSale     ReturnKind = "sale"
	ReturnProject  ReturnKind = "project_return"
	ReturnWarranty ReturnKind = "warranty_return"
	ReturnSupplier ReturnKind = "supplier_return"
	ReturnOther    ReturnKind = "other"
)

// ParseReturnKind maps unknown or missing values to ReturnOther.
func ParseReturnKind(raw string) ReturnKind {
	switch k := ReturnKind(raw); k {
	case ReturnSale, ReturnProject, ReturnWarranty, ReturnSupplier:
		return k
	}
	return ReturnOther
}

func (k ReturnKind) Label() string {
	switch k {
	case ReturnSale:
		return "Retail return"
	case ReturnProject:
		return "Project return"
	case ReturnWarranty:
		return "Warranty return"
	case ReturnSupplier:
		return "Return to supplier"
	}
	return "Other return"
}

// PartnerRole tells whether the counterparty is a supplier or a customer.
type PartnerRole string

const (
	PartnerSupplier PartnerRole = "supplier"
	PartnerCustomer PartnerRole = "customer"
)

// Partner is the counterparty of a document.
type Partner struct {
	Role    PartnerRole `json:"role,omitempty"`
	Name    string      `json:"name,omitempty"`
	Code    string      `json:"code,omitempty"`
	Phone   string      `json:"phone,omitempty"`
	Address string      `json:"address,omitempty"`
}

// LineItem is one product row of a document.
type LineItem struct {
	ProductName string          `json:"product_name"`
	ProductCode string          `json:"product_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// DocumentKey is the identity of a document across all sources. IDs are only
// unique within one document type.
type DocumentKey struct {
	Type DocumentType `json:"type"`
	ID   int64        `json:"id"`
}

func (k DocumentKey) String() string { return fmt.Sprintf("%s/%d", k.Type, k.ID) }

// Document is a normalized import, invoice or return. Type selects which of
// InvoiceKind / ReturnKind is meaningful.
type Document struct {
	Type         DocumentType    `json:"type"`
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Status       DocumentStatus  `json:"status"`
	RawStatus    string          `json:"raw_status,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	DocumentDate time.Time       `json:"document_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Partner      Partner         `json:"partner"`
	Items        []LineItem      `json:"items"`
	Note         string          `json:"note,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	InvoiceKind  InvoiceKind     `json:"invoice_kind,omitempty"`
	ReturnKind   ReturnKind      `json:"return_kind,omitempty"`
}

// Key returns the (type, id) identity of d.
func (d Document) Key() DocumentKey { return DocumentKey{Type: d.Type, ID: d.ID} }

// IsPending reports whether d is awaiting approval.
func (d Document) IsPending() bool { return d.Status == StatusPending }

// KindLabel is the type label refined with the invoice or return subtype.
func (d Document) KindLabel() string {
	switch d.Type {
	case DocumentInvoice:
		return d.Type.Label() + " - " + d.InvoiceKind.Label()
	case DocumentReturn:
		return d.Type.Label() + " - " + d.ReturnKind.Label()
	}
	return d.Type.Label()
}
