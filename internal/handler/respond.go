package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/altaj-restaurant/api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

var validationErrors = []error{
	service.ErrEmptyItems,
	service.ErrInvalidOrderType,
	service.ErrInvalidQuantity,
	service.ErrInvalidUnitPrice,
	service.ErrInvalidPaymentMethod,
	service.ErrInvalidCustomerID,
	service.ErrInvalidTableID,
	service.ErrCustomerNameRequired,
	service.ErrCustomerPhoneRequired,
	service.ErrTableRequiresDineIn,
	service.ErrInvalidOrderStatus,
	service.ErrInvalidTableStatus,
	service.ErrInvalidPartnerStatus,
	service.ErrOrderIDRequired,
}

var notFoundErrors = []error{
	service.ErrBranchNotFound,
	service.ErrOrderNotFound,
	service.ErrTableNotFound,
	service.ErrPartnerNotFound,
	service.ErrCouponNotFound,
}

// conflictErrors fail because of the current state of the world; the caller
// may retry once it changes.
var conflictErrors = []error{
	service.ErrTableUnavailable,
	service.ErrNoPartnersAvailable,
	service.ErrInvalidTransition,
	service.ErrStatusConflict,
	service.ErrOrderNotReady,
	service.ErrNotDeliveryOrder,
	service.ErrPartnerNotAvailable,
	service.ErrPartnerHasActiveOrder,
	service.ErrCouponNotYetActive,
	service.ErrCouponExpired,
	service.ErrCouponBelowMinimum,
	service.ErrCouponBranchIneligible,
	service.ErrCouponLimitReached,
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondServiceError maps a service error onto the HTTP response. Unknown
// errors are logged and hidden behind a 500.
func respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case matchesAny(err, validationErrors):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case matchesAny(err, notFoundErrors):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case matchesAny(err, conflictErrors):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
