package utils

import (
	"encoding/json"
	"errors"
	"net/http"
)

// SuccessMessage is the message carried by every successful envelope
const SuccessMessage = "request succeeded"

// Envelope is the single response shape used for success and failure alike
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteEnvelope writes an envelope whose status field mirrors the HTTP status
func WriteEnvelope(w http.ResponseWriter, status int, message string, data interface{}) error {
	return WriteJSON(w, status, Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// WriteOK writes a 200 OK success envelope
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteEnvelope(w, http.StatusOK, SuccessMessage, data)
}

// WriteCreated writes a 201 Created success envelope
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteEnvelope(w, http.StatusCreated, SuccessMessage, data)
}

// WriteFailure writes a failure envelope with null data
func WriteFailure(w http.ResponseWriter, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return WriteEnvelope(w, status, message, nil)
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields and trailing data
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
