package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/sysutil"
)

// flexDecimal decodes monetary and quantity fields the backend sends either
// as JSON numbers or as numeric strings. Null, empty and non-numeric values
// decode to zero.
type flexDecimal struct{ decimal.Decimal }

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		f.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	if s == "" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	f.Decimal = d
	return nil
}

type rawPartner struct {
	Name         string `json:"name"`
	SupplierCode string `json:"supplierCode"`
	CustomerCode string `json:"customerCode"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

type rawItem struct {
	Product *struct {
		Name        string `json:"name"`
		ProductCode string `json:"productCode"`
	} `json:"Product"`
	Quantity flexDecimal  `json:"quantity"`
	Price    flexDecimal  `json:"price"`
	Amount   *flexDecimal `json:"amount"`
}

// rawDocument is the union of the import, invoice and return record shapes.
type rawDocument struct {
	ID          json.Number `json:"id"`
	ImportCode  string      `json:"importCode"`
	InvoiceCode string      `json:"invoiceCode"`
	ReturnCode  string      `json:"returnCode"`
	Status      string      `json:"status"`
	CreatedAt   string      `json:"createdAt"`
	ImportDate  string      `json:"importDate"`
	InvoiceDate string      `json:"invoiceDate"`
	ReturnDate  string      `json:"returnDate"`
	TotalAmount flexDecimal `json:"totalAmount"`
	Note        string      `json:"note"`
	InvoiceType string      `json:"invoiceType"`
	ReturnType  string      `json:"returnType"`

	Supplier *rawPartner `json:"Supplier"`
	Customer *rawPartner `json:"Customer"`
	User     *struct {
		FullName string `json:"fullName"`
		Username string `json:"username"`
	} `json:"User"`

	ImportItems  []rawItem `json:"ImportItems"`
	InvoiceItems []rawItem `json:"InvoiceItems"`
	ReturnItems  []rawItem `json:"ReturnItems"`
}

// decodeList accepts a bare JSON array or an object wrapping the array under
// "data". An object without "data", or an empty body, is an empty list.
func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var out []json.RawMessage
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return nil, nil
		}
		if data[0] != '[' {
			return nil, fmt.Errorf("data is not a list")
		}
		var out []json.RawMessage
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected list payload")
}

// normalizeDocument maps one backend record to a domain.Document tagged with t.
func normalizeDocument(t domain.DocumentType, raw json.RawMessage) (domain.Document, error) {
	var r rawDocument
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return domain.Document{}, err
	}
	id, err := strconv.ParseInt(r.ID.String(), 10, 64)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%s record without a numeric id", t)
	}

	d := domain.Document{
		Type:        t,
		ID:          id,
		Status:      domain.ParseDocumentStatus(r.Status),
		RawStatus:   r.Status,
		CreatedAt:   parseTimestamp(r.CreatedAt),
		TotalAmount: r.TotalAmount.Decimal,
		Note:        strings.TrimSpace(r.Note),
	}
	if r.User != nil {
		d.CreatedBy = sysutil.FirstNonEmpty(r.User.FullName, r.User.Username)
	}

	var items []rawItem
	var date string
	switch t {
	case domain.DocumentImport:
		d.Code = r.ImportCode
		date = r.ImportDate
		items = r.ImportItems
		d.Partner = supplier(r.Supplier)
	case domain.DocumentInvoice:
		d.Code = r.InvoiceCode
		date = r.InvoiceDate
		items = r.InvoiceItems
		d.Partner = customer(r.Customer)
		d.InvoiceKind = domain.ParseInvoiceKind(r.InvoiceType)
	case domain.DocumentReturn:
		d.Code = r.ReturnCode
		date = r.ReturnDate
		items = r.ReturnItems
		if r.Supplier != nil {
			d.Partner = supplier(r.Supplier)
		} else {
			d.Partner = customer(r.Customer)
		}
		d.ReturnKind = domain.ParseReturnKind(r.ReturnType)
	default:
		return domain.Document{}, ErrUnknownDocumentType
	}

	d.DocumentDate = parseTimestamp(date)
	if d.DocumentDate.IsZero() {
		d.DocumentDate = d.CreatedAt
	}
	d.Items = make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		d.Items = append(d.Items, normalizeItem(it))
	}
	return d, nil
}

func supplier(p *rawPartner) domain.Partner {
	if p == nil {
		return domain.Partner{Role: domain.PartnerSupplier}
	}
	return domain.Partner{Role: domain.PartnerSupplier, Name: p.Name, Code: p.SupplierCode, Phone: p.Phone, Address: p.Address}
}

func customer(p *rawPartner) domain.Partner {
	if p == nil {
		return domain.Partner{Role: domain.PartnerCustomer}
	}
	return domain.Partner{Role: domain.PartnerCustomer, Name: p.Name, Code: p.CustomerCode, Phone: p.Phone, Address: p.Address}
}

// normalizeItem falls back to quantity x price when the line amount is
// missing or zero.
func normalizeItem(it rawItem) domain.LineItem {
	li := domain.LineItem{
		Quantity:  it.Quantity.Decimal,
		UnitPrice: it.Price.Decimal,
	}
	if it.Product != nil {
		li.ProductName = it.Product.Name
		li.ProductCode = it.Product.ProductCode
	}
	if it.Amount != nil && !it.Amount.IsZero() {
		li.Amount = it.Amount.Decimal
	} else {
		li.Amount = li.Quantity.Mul(li.UnitPrice)
	}
	return li
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the ISO-8601 variants the backend emits. Values
// without a zone are read as UTC. Unparseable input yields the zero time,
// which sorts after every real timestamp in a newest-first queue.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
