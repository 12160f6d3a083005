package checkout

import (
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type Step int

const (
	StepShipping Step = 1
	StepPayment  Step = 2
)

// Field names match the JSON keys the checkout form posts.
const (
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldState      = "state"
	FieldZipCode    = "zipCode"
	FieldCountry    = "country"
	FieldCardNumber = "cardNumber"
	FieldExpiryDate = "expiryDate"
	FieldCVV        = "cvv"
	FieldNameOnCard = "nameOnCard"
)

const cardNumberMaxLen = 19

var (
	emailPattern  = regexp.MustCompile(`\S+@\S+\.\S+`)
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
)

type ShippingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

type PaymentInfo struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	NameOnCard string `json:"nameOnCard"`
}

// FieldErrors maps a form field to the message shown under it.
type FieldErrors map[string]string

// ValidateStep checks the fields owned by step. Steps outside the form have nothing to check.
func ValidateStep(step Step, shipping ShippingInfo, payment PaymentInfo) FieldErrors {
	errs := FieldErrors{}
	switch step {
	case StepShipping:
		required(errs, FieldFirstName, shipping.FirstName, "First name is required")
		required(errs, FieldLastName, shipping.LastName, "Last name is required")
		if strings.TrimSpace(shipping.Email) == "" {
			errs[FieldEmail] = "Email is required"
		} else if !emailPattern.MatchString(shipping.Email) {
			errs[FieldEmail] = "Please enter a valid email address"
		}
		required(errs, FieldPhone, shipping.Phone, "Phone number is required")
		required(errs, FieldAddress, shipping.Address, "Address is required")
		required(errs, FieldCity, shipping.City, "City is required")
		required(errs, FieldState, shipping.State, "State is required")
		required(errs, FieldZipCode, shipping.ZipCode, "ZIP code is required")
		required(errs, FieldCountry, shipping.Country, "Country is required")
	case StepPayment:
		card := strings.Join(strings.Fields(payment.CardNumber), "")
		if card == "" {
			errs[FieldCardNumber] = "Card number is required"
		} else if len(card) < 13 {
			errs[FieldCardNumber] = "Please enter a valid card number"
		}
		if payment.ExpiryDate == "" {
			errs[FieldExpiryDate] = "Expiry date is required"
		} else if !expiryPattern.MatchString(payment.ExpiryDate) {
			errs[FieldExpiryDate] = "Please enter a valid expiry date (MM/YY)"
		}
		if payment.CVV == "" {
			errs[FieldCVV] = "CVV is required"
		} else if len(payment.CVV) < 3 {
			errs[FieldCVV] = "Please enter a valid CVV"
		}
		required(errs, FieldNameOnCard, payment.NameOnCard, "Name on card is required")
	}
	return errs
}

func required(errs FieldErrors, field, value, message string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = message
	}
}

// AsError converts non-empty field errors into a validation error carrying them.
func (f FieldErrors) AsError() error {
	if len(f) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "checkout form has invalid fields").WithDetails(map[string]any{
		"fields": f,
	})
}

// IsPaymentField reports whether field belongs to PaymentInfo.
func IsPaymentField(field string) bool {
	switch field {
	case FieldCardNumber, FieldExpiryDate, FieldCVV, FieldNameOnCard:
		return true
	}
	return false
}

// IsShippingField reports whether field belongs to ShippingInfo.
func IsShippingField(field string) bool {
	switch field {
	case FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldAddress,
		FieldCity, FieldState, FieldZipCode, FieldCountry:
		return true
	}
	return false
}

// ApplyMask formats raw keyboard input for fields that have an input mask.
// Other fields pass through untouched.
func ApplyMask(field, value string) string {
	switch field {
	case FieldCardNumber:
		return MaskCardNumber(value)
	case FieldExpiryDate:
		return MaskExpiryDate(value)
	case FieldCVV:
		return MaskCVV(value)
	}
	return value
}

// MaskCardNumber groups the digits by four, e.g. "4242 4242 4242 4242".
func MaskCardNumber(value string) string {
	digits := onlyDigits(value)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > cardNumberMaxLen {
		out = strings.TrimSpace(out[:cardNumberMaxLen])
	}
	return out
}

// MaskExpiryDate produces MM/YY once a third digit is typed.
func MaskExpiryDate(value string) string {
	digits := onlyDigits(value)
	if len(digits) > 2 {
		digits = digits[:2] + "/" + digits[2:]
	}
	if len(digits) > 5 {
		digits = digits[:5]
	}
	return digits
}

func MaskCVV(value string) string {
	digits := onlyDigits(value)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	return digits
}

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
