package httperr

import (
	"errors"
	"net/http"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/dal/orderstore"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/services/boardsvc"
)

// Write maps service errors to HTTP status codes. Anything unrecognized is
// treated as a remote-store failure.
func Write(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, boardsvc.ErrUnknownOrder), errors.Is(err, orderstore.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, boardsvc.ErrTerminalStatus):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrInvalidStatus), errors.Is(err, order.ErrInvalidOrderType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}
