package api

import (
	"errors"
	"net/http"

	"github.com/fardannozami/crimewatch/internal/domain"
)

// AsDomain converts a gateway error into the client's error taxonomy.
// Transport failures become ConnectivityError and a 401 becomes AuthError;
// everything else becomes kind, carrying the server message or fallback.
func AsDomain(err error, kind domain.Kind, fallback string) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	if IsNetwork(err) {
		return domain.NewError(domain.KindConnectivity, "can't reach server", err)
	}

	var he *HTTPError
	if errors.As(err, &he) {
		msg := he.Message
		if msg == "" {
			msg = fallback
		}
		if he.StatusCode == http.StatusUnauthorized {
			return domain.NewError(domain.KindAuth, msg, err)
		}
		return domain.NewError(kind, msg, err)
	}
	return domain.NewError(kind, fallback, err)
}
