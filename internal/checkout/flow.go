package checkout

import (
	"strings"

	pkgcheckout "github.com/angelmondragon/storefront/pkg/checkout"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const SubmissionDisabled = "submission_disabled"

// Flow is the two-step checkout form. It is never persisted; the client posts
// the whole flow back on every transition.
type Flow struct {
	Step     pkgcheckout.Step         `json:"step"`
	Shipping pkgcheckout.ShippingInfo `json:"shipping"`
	Payment  pkgcheckout.PaymentInfo  `json:"payment"`
	Errors   pkgcheckout.FieldErrors  `json:"errors"`
}

type SubmitResult struct {
	Status    string `json:"status"`
	Submitted bool   `json:"submitted"`
}

func NewFlow() *Flow {
	return &Flow{Step: pkgcheckout.StepShipping, Errors: pkgcheckout.FieldErrors{}}
}

// Normalize clamps the step into the form and makes Errors non-nil.
func (f *Flow) Normalize() {
	if f.Step < pkgcheckout.StepShipping {
		f.Step = pkgcheckout.StepShipping
	}
	if f.Step > pkgcheckout.StepPayment {
		f.Step = pkgcheckout.StepPayment
	}
	if f.Errors == nil {
		f.Errors = pkgcheckout.FieldErrors{}
	}
}

// SetField stores a masked value and clears that field's error.
func (f *Flow) SetField(field, value string) error {
	field = strings.TrimSpace(field)
	value = pkgcheckout.ApplyMask(field, value)
	switch field {
	case pkgcheckout.FieldFirstName:
		f.Shipping.FirstName = value
	case pkgcheckout.FieldLastName:
		f.Shipping.LastName = value
	case pkgcheckout.FieldEmail:
		f.Shipping.Email = value
	case pkgcheckout.FieldPhone:
		f.Shipping.Phone = value
	case pkgcheckout.FieldAddress:
		f.Shipping.Address = value
	case pkgcheckout.FieldCity:
		f.Shipping.City = value
	case pkgcheckout.FieldState:
		f.Shipping.State = value
	case pkgcheckout.FieldZipCode:
		f.Shipping.ZipCode = value
	case pkgcheckout.FieldCountry:
		f.Shipping.Country = value
	case pkgcheckout.FieldCardNumber:
		f.Payment.CardNumber = value
	case pkgcheckout.FieldExpiryDate:
		f.Payment.ExpiryDate = value
	case pkgcheckout.FieldCVV:
		f.Payment.CVV = value
	case pkgcheckout.FieldNameOnCard:
		f.Payment.NameOnCard = value
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout field").WithDetails(map[string]any{"field": field})
	}
	if f.Errors != nil {
		delete(f.Errors, field)
	}
	return nil
}

// Next validates the current step and advances when it is clean.
// The payment step is the last one; a valid Next there stays put.
// A flow posted at the payment step with invalid shipping is sent back to shipping.
func (f *Flow) Next() bool {
	f.Normalize()
	if f.Step == pkgcheckout.StepPayment {
		if errs := pkgcheckout.ValidateStep(pkgcheckout.StepShipping, f.Shipping, f.Payment); len(errs) > 0 {
			f.Step = pkgcheckout.StepShipping
			f.Errors = errs
			return false
		}
	}
	f.Errors = pkgcheckout.ValidateStep(f.Step, f.Shipping, f.Payment)
	if len(f.Errors) > 0 {
		return false
	}
	if f.Step < pkgcheckout.StepPayment {
		f.Step++
	}
	return true
}

// Previous steps back without validating.
func (f *Flow) Previous() {
	f.Normalize()
	if f.Step > pkgcheckout.StepShipping {
		f.Step--
	}
}

// Submit leaves the flow untouched. Orders are not placed from the storefront.
func (f *Flow) Submit() SubmitResult {
	return SubmitResult{Status: SubmissionDisabled, Submitted: false}
}
