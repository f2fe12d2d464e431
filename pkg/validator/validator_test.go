package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movementRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Kind      string `json:"kind" validate:"required,oneof=inbound outbound adjustment return"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Note      string `json:"note" validate:"notblank,max=500"`
}

func validMovement() movementRequest {
	return movementRequest{ProductID: 1, Kind: "inbound", Quantity: 10, Note: "supplier delivery"}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validMovement()))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	m := validMovement()
	m.ProductID = 0

	fields := fieldsOf(t, Validate(m))
	assert.Equal(t, "is required", fields["product_id"])
}

func TestValidate_BlankNoteRejected(t *testing.T) {
	for _, note := range []string{"", "   ", "\t\n"} {
		m := validMovement()
		m.Note = note
		fields := fieldsOf(t, Validate(m))
		assert.Equal(t, "is required", fields["note"], "note %q", note)
	}
}

func TestValidate_Messages(t *testing.T) {
	m := validMovement()
	m.Quantity = 0
	m.Kind = "teleport"

	fields := fieldsOf(t, Validate(m))
	assert.Equal(t, "must be greater than 0", fields["quantity"])
	assert.Equal(t, "must be one of: inbound outbound adjustment return", fields["kind"])
}

func TestValidationError_ErrorString(t *testing.T) {
	m := validMovement()
	m.Quantity = -1
	err := Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'quantity'")
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/",
			strings.NewReader(`{"product_id":3,"kind":"return","quantity":2,"note":"customer return"}`))
		var dst movementRequest
		require.NoError(t, DecodeAndValidate(req, &dst))
		assert.Equal(t, int64(3), dst.ProductID)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
		var dst movementRequest
		err := DecodeAndValidate(req, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode request body")
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/",
			strings.NewReader(`{"product_id":3,"kind":"return","quantity":2,"note":"x","extra":true}`))
		var dst movementRequest
		assert.Error(t, DecodeAndValidate(req, &dst))
	})

	t.Run("fails validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/",
			strings.NewReader(`{"product_id":3,"kind":"return","quantity":0,"note":"x"}`))
		var dst movementRequest
		var valErr *ValidationError
		assert.ErrorAs(t, DecodeAndValidate(req, &dst), &valErr)
	})
}
