package controllers

import (
	"net/http"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	addresssvc "github.com/craftkart/craftkart-backend/internal/address"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

// ListAddresses serves the caller's saved addresses, default first.
func ListAddresses(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addresses, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"addresses": addresses})
	}
}

// CreateAddress saves a new address for the caller.
func CreateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), addresssvc.CreateAddressInput{
			UserID:     userID,
			Address:    payload.Address.toAddress(),
			SetDefault: payload.SetDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateAddress replaces the payload of a saved address.
func UpdateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := addresssvc.UpdateAddressInput{
			UserID:     userID,
			AddressID:  addressID,
			SetDefault: payload.SetDefault,
		}
		if payload.Address != nil {
			address := payload.Address.toAddress()
			input.Address = &address
		}

		updated, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// SetDefaultAddress moves the default marker to the given address.
func SetDefaultAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.SetDefault(r.Context(), userID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// DeleteAddress removes a saved address owned by the caller.
func DeleteAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createAddressRequest struct {
	Address    addressRequest `json:"address" validate:"required"`
	SetDefault bool           `json:"set_default,omitempty"`
}

type updateAddressRequest struct {
	Address    *addressRequest `json:"address,omitempty"`
	SetDefault bool            `json:"set_default,omitempty"`
}
