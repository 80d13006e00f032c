package models

// OrderHandle is the gateway's order object, passed through to the client
// verbatim so the checkout widget can consume it.
type OrderHandle map[string]interface{}

// Keys of the server-issued order metadata. Verification trusts only these
// notes, never a client-supplied identity.
const (
	OrderNoteUserID = "user_id"
)
