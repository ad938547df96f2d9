package internal

import (
	"bytes"
	"encoding/json"
	"glodipay/entity"
	"net/url"
	"sort"
	"strings"
)

// Fixed protocol constants required by the GloDiPay checkout contract.
const (
	paramPaymentMethod  = "ALL"
	paramFeeBySeller    = "0"
	paramConnectionMode = "API"
	paramColorMode      = "default-mode"
	paramMetadata       = "{}"
	paramDocuments      = "[]"
)

// Billing address defaults. The gateway contract has no address collection
// on our side, so every request carries the same country and, when a
// customer name is present, the same placeholder city and street.
// Open question pending product/compliance confirmation; do not change
// without also changing the gateway counterparty expectations.
const (
	defaultBillingCountry = "AE"
	defaultBillingCity    = "Dubai"
	defaultBillingStreet  = "Main Street"
)

// Parameters is the canonical flat parameter set sent to the gateway.
// Every value is a trimmed string; serialization order is the byte-wise
// ascending sort of the keys, which is part of the signed contract.
type Parameters struct {
	values map[string]string
}

func newParameters() *Parameters {
	return &Parameters{values: make(map[string]string)}
}

func (p *Parameters) set(key, value string) {
	p.values[key] = strings.TrimSpace(value)
}

// Get returns the value for a key, empty when absent.
func (p *Parameters) Get(key string) string {
	return p.values[key]
}

// Has reports whether a key is present in the set.
func (p *Parameters) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns all keys in byte-wise ascending order.
func (p *Parameters) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for key := range p.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Serialize renders the canonical JSON the signature is computed over:
// keys in byte-wise ascending order, no extra whitespace, no HTML escaping,
// and every forward slash escaped as \/ to match the gateway's reference
// serializer byte for byte.
func (p *Parameters) Serialize() (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	// encoding/json writes map keys in byte-wise sorted order
	if err := encoder.Encode(p.values); err != nil {
		return "", err
	}
	serialized := strings.TrimSuffix(buf.String(), "\n")
	return strings.ReplaceAll(serialized, "/", "\\/"), nil
}

// Values returns the parameter set as form values for the checkout POST.
func (p *Parameters) Values() url.Values {
	form := url.Values{}
	for key, value := range p.values {
		form.Set(key, value)
	}
	return form
}

// CanonicalParameters builds the canonical parameter set for a payment
// request. The callback and notification URLs both point at the caller's
// return URL; the error URL mirrors the cancel URL.
func CanonicalParameters(request *entity.PaymentRequest, merchantId string) *Parameters {
	p := newParameters()

	p.set("merchantId", merchantId)
	p.set("orderRef", request.OrderRef)
	p.set("amount", request.Amount.StringFixed(2))
	p.set("currency", request.Currency)
	p.set("cancelUrl", request.CancelUrl)
	p.set("callbackUrl", request.ReturnUrl)
	p.set("notificationUrl", request.ReturnUrl)
	p.set("errorUrl", request.CancelUrl)
	p.set("orderDescription", request.Description)
	p.set("paymentMethod", paramPaymentMethod)
	p.set("feeBySeller", paramFeeBySeller)
	p.set("billingStreet2", "")
	p.set("metadata", paramMetadata)
	p.set("transactionDocuments", paramDocuments)
	p.set("brandName", "")
	p.set("colorMode", paramColorMode)
	p.set("logoSource", "")
	p.set("connectionMode", paramConnectionMode)
	p.set("billingCountry", defaultBillingCountry)

	if name := strings.TrimSpace(request.CustomerName); name != "" {
		first, last := splitName(name)
		p.set("billingFirstName", first)
		p.set("billingLastName", last)
		p.set("billingCity", defaultBillingCity)
		p.set("billingStreet1", defaultBillingStreet)
	}
	if request.CustomerEmail != "" {
		p.set("billingEmail", request.CustomerEmail)
	}

	return p
}

// splitName splits a display name on the first whitespace run. A single-token
// name yields an empty last name, which the gateway accepts.
func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
